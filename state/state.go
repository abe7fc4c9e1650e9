// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state holds SharedState, the single aggregate of
// section-wide knowledge that the approved-node control loop (package
// node) owns exclusively: our key chain, our own and our neighbours'
// committees, what we know of neighbours' keys and what they know of
// ours, our membership table, and the backlogs that let churn be
// processed one event at a time (spec 4.6).
package state

import (
	"errors"
	"sort"

	"github.com/luxfi/log"

	"github.com/luxfi/elders/chain"
	"github.com/luxfi/elders/event"
	"github.com/luxfi/elders/members"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/xorname"
)

var (
	// ErrStaleInfo is returned when a caller tries to push an
	// EldersInfo version that is not newer than what we already have.
	ErrStaleInfo = errors.New("state: elders info is not new")
	// ErrNoKnowledge is returned by Prove when no recorded their_keys
	// prefix matches the destination and no override was supplied.
	ErrNoKnowledge = errors.New("state: no recorded knowledge for destination")
)

// SharedState is the exclusive owner of everything the approved loop
// reasons about between accumulated events.
type SharedState struct {
	log log.Logger

	OurHistory *chain.Chain
	OurInfos   []section.EldersInfo

	OurMembers *members.Peers

	neighbourInfos  map[string]section.EldersInfo
	theirKeys       map[string]chain.KeyInfo
	theirKnowledge  map[string]uint64

	RelocateQueue       []section.RelocateDetails
	ChurnEventBacklog   []event.Event
	HandledGenesisEvent bool
}

// New constructs a SharedState seeded with the section's genesis
// chain and committee.
func New(logger log.Logger, genesisChain *chain.Chain, genesisInfo section.EldersInfo) *SharedState {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	s := &SharedState{
		log:            logger,
		OurHistory:     genesisChain,
		OurInfos:       []section.EldersInfo{genesisInfo},
		OurMembers:     members.New(logger),
		neighbourInfos: make(map[string]section.EldersInfo),
		theirKeys:      make(map[string]chain.KeyInfo),
		theirKnowledge: make(map[string]uint64),
	}
	if genesisChain != nil {
		if key, err := genesisChain.LastKey(); err == nil {
			s.theirKeys[genesisInfo.Prefix.String()] = chain.KeyInfo{
				Prefix:  genesisInfo.Prefix,
				Version: genesisInfo.Version,
				Key:     key,
			}
		}
	}
	return s
}

// OurPrefix returns the prefix of the most recently accepted own
// EldersInfo.
func (s *SharedState) OurPrefix() xorname.Prefix {
	return s.OurInfos[len(s.OurInfos)-1].Prefix
}

// OurInfo returns the most recently accepted own EldersInfo.
func (s *SharedState) OurInfo() section.EldersInfo {
	return s.OurInfos[len(s.OurInfos)-1]
}

// PushOurNewInfo appends block to our chain and info to our_infos, and
// records the new key as our own prefix's entry in their_keys (so
// Prove's dst_key lookup for our own prefix always resolves).
func (s *SharedState) PushOurNewInfo(info section.EldersInfo, block chain.ProofBlock) error {
	if err := s.OurHistory.Append(block); err != nil {
		return err
	}
	s.OurInfos = append(s.OurInfos, info)
	s.theirKeys[info.Prefix.String()] = block.KeyInfo
	return nil
}

// UpdateTheirKeys records ki if it is newer than what we have for its
// prefix, and reports whether it changed anything (spec 4.6, monotone
// in version).
func (s *SharedState) UpdateTheirKeys(ki chain.KeyInfo) bool {
	key := ki.Prefix.String()
	existing, ok := s.theirKeys[key]
	if ok && existing.Version >= ki.Version {
		return false
	}
	s.theirKeys[key] = ki
	return true
}

// TheirKey returns the latest known key info for the section matching
// prefix, if any.
func (s *SharedState) TheirKey(prefix xorname.Prefix) (chain.KeyInfo, bool) {
	ki, ok := s.theirKeys[prefix.String()]
	return ki, ok
}

// TheirKeyMatching returns the key info of whichever recorded prefix
// matches name, preferring the longest (most specific) match.
func (s *SharedState) TheirKeyMatching(name xorname.Name) (chain.KeyInfo, bool) {
	var best *chain.KeyInfo
	for _, ki := range s.theirKeys {
		if !ki.Prefix.Matches(name) {
			continue
		}
		if best == nil || ki.Prefix.Len() > best.Prefix.Len() {
			k := ki
			best = &k
		}
	}
	if best == nil {
		return chain.KeyInfo{}, false
	}
	return *best, true
}

// UpdateTheirKnowledge records index as prefix's knowledge of our
// chain if it is higher than what we have, and reports whether it
// changed anything (spec 4.6, monotone in index).
func (s *SharedState) UpdateTheirKnowledge(prefix xorname.Prefix, index uint64) bool {
	key := prefix.String()
	if existing, ok := s.theirKnowledge[key]; ok && existing >= index {
		return false
	}
	s.theirKnowledge[key] = index
	return true
}

// TheirKnowledge returns the last known chain index a prefix is known
// to have.
func (s *SharedState) TheirKnowledge(prefix xorname.Prefix) uint64 {
	return s.theirKnowledge[prefix.String()]
}

// NeighbourInfo returns the latest known EldersInfo for the neighbour
// section matching prefix.
func (s *SharedState) NeighbourInfo(prefix xorname.Prefix) (section.EldersInfo, bool) {
	info, ok := s.neighbourInfos[prefix.String()]
	return info, ok
}

// SetNeighbourInfo records info as the latest for its prefix.
func (s *SharedState) SetNeighbourInfo(info section.EldersInfo) {
	s.neighbourInfos[info.Prefix.String()] = info
}

// NeighbourPrefixes returns every neighbour prefix we currently track.
func (s *SharedState) NeighbourPrefixes() []xorname.Prefix {
	out := make([]xorname.Prefix, 0, len(s.neighbourInfos))
	for _, info := range s.neighbourInfos {
		out = append(out, info.Prefix)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Prove computes the minimal chain slice that proves our chain tip to
// a recipient located at dst, based on what we believe the recipient
// already knows. If override is non-nil it takes precedence over the
// recorded their_knowledge value (spec 4.6, 4.11).
func (s *SharedState) Prove(dst xorname.Name, override *uint64) (chain.ProofSlice, error) {
	firstIndex := uint64(0)
	if override != nil {
		firstIndex = *override
	} else if ki, ok := s.TheirKeyMatching(dst); ok {
		firstIndex = s.TheirKnowledge(ki.Prefix)
	} else {
		return chain.ProofSlice{}, ErrNoKnowledge
	}
	if int(firstIndex) > s.OurHistory.LastKeyIndex() {
		firstIndex = uint64(s.OurHistory.LastKeyIndex())
	}
	return s.OurHistory.SliceFrom(int(firstIndex)), nil
}

// IsNew reports whether info is a version of its prefix we have not
// already accepted or superseded, i.e. its version is strictly
// greater than whatever we have recorded for that exact prefix.
func (s *SharedState) IsNew(info section.EldersInfo) bool {
	if info.Prefix == s.OurPrefix() {
		return info.Version > s.OurInfo().Version
	}
	existing, ok := s.neighbourInfos[info.Prefix.String()]
	if !ok {
		return true
	}
	return info.Version > existing.Version
}

// IsNewNeighbour reports whether info is both new and describes a
// section that is a neighbour of ours or an extension of us (i.e.
// worth tracking as neighbour state at all).
func (s *SharedState) IsNewNeighbour(info section.EldersInfo) bool {
	if !s.IsNew(info) {
		return false
	}
	ours := s.OurPrefix()
	return ours.IsNeighbour(info.Prefix) || info.Prefix.IsExtensionOf(ours) || ours.IsExtensionOf(info.Prefix)
}

// PromoteAndDemoteElders decides the next committee shape for our
// section: if the membership now warrants a split, it returns the two
// child EldersInfo candidates; else if the ideal elder set differs
// from the current one it returns a single replacement info; else it
// returns nil. It never returns a change that would drop the elder
// count below the current supermajority (spec 4.6).
func (s *SharedState) PromoteAndDemoteElders(elderSize int, minAge uint8, splitThreshold int) []section.EldersInfo {
	current := s.OurInfo()

	if s.shouldSplit(splitThreshold) {
		zero := current.Prefix.Pushed(false)
		one := current.Prefix.Pushed(true)
		zeroCandidates := s.OurMembers.ElderCandidatesMatchingPrefix(zero, elderSize, minAge)
		oneCandidates := s.OurMembers.ElderCandidatesMatchingPrefix(one, elderSize, minAge)
		if len(zeroCandidates) == 0 || len(oneCandidates) == 0 {
			return nil
		}
		return []section.EldersInfo{
			buildInfo(zero, current.Version+1, zeroCandidates),
			buildInfo(one, current.Version+1, oneCandidates),
		}
	}

	ideal := s.OurMembers.ElderCandidates(elderSize, minAge)
	if sameElderSet(current, ideal) {
		return nil
	}
	if len(ideal) < supermajority(len(current.Elders)) {
		s.log.Warn("refusing elder change that would drop below supermajority",
			"current", len(current.Elders), "proposed", len(ideal))
		return nil
	}
	return []section.EldersInfo{buildInfo(current.Prefix, current.Version+1, ideal)}
}

// shouldSplit reports whether our section's mature membership on each
// side of the next bit is large enough to support its own committee.
func (s *SharedState) shouldSplit(splitThreshold int) bool {
	current := s.OurInfo()
	zero := current.Prefix.Pushed(false)
	one := current.Prefix.Pushed(true)
	zeroMature := len(s.OurMembers.ElderCandidatesMatchingPrefix(zero, splitThreshold, members.MinAge))
	oneMature := len(s.OurMembers.ElderCandidatesMatchingPrefix(one, splitThreshold, members.MinAge))
	return zeroMature >= splitThreshold && oneMature >= splitThreshold
}

func buildInfo(prefix xorname.Prefix, version uint64, candidates []members.Info) section.EldersInfo {
	elders := make(map[xorname.Name]section.P2pNode, len(candidates))
	for _, c := range candidates {
		elders[c.Node.Name] = c.Node
	}
	return section.EldersInfo{Prefix: prefix, Version: version, Elders: elders}
}

func sameElderSet(current section.EldersInfo, candidates []members.Info) bool {
	if len(current.Elders) != len(candidates) {
		return false
	}
	for _, c := range candidates {
		if !current.IsElder(c.Node.Name) {
			return false
		}
	}
	return true
}

// supermajority returns floor(n*2/3)+1, the minimum elder count that
// may not be undercut by an elder-set change.
func supermajority(n int) int {
	return (n*2)/3 + 1
}
