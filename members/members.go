// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package members tracks per-node membership state for our own
// section: who has joined, who is relocating or has recently left,
// and each member's age, the quantity that drives both elder
// candidacy and relocation.
package members

import (
	"math"
	"sort"

	"github.com/luxfi/log"
	"github.com/luxfi/validators"

	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/xorname"
)

// MinAge is the minimum age a joining node starts at. Ages below this
// are never eligible for elder candidacy.
const MinAge uint8 = 4

// State is a member's lifecycle state within our section.
type State int

const (
	Joined State = iota
	Relocating
	Left
)

func (s State) String() string {
	switch s {
	case Joined:
		return "Joined"
	case Relocating:
		return "Relocating"
	case Left:
		return "Left"
	default:
		return "Unknown"
	}
}

// Info is the per-member record held in SectionPeers.
type Info struct {
	Node       section.P2pNode
	Age        uint8
	State      State
	AgeCounter uint32
}

// BumpAge increments the age counter by delta, saturating at
// math.MaxUint32 rather than wrapping (spec 9, open question 2).
func (m *Info) BumpAge(delta uint32) {
	if math.MaxUint32-m.AgeCounter < delta {
		m.AgeCounter = math.MaxUint32
		return
	}
	m.AgeCounter += delta
}

// Peers is the set of members of our own section, keyed by routing
// name. Left members are retained for a grace period so in-flight
// messages addressed to them can still be attributed.
type Peers struct {
	log     log.Logger
	members map[xorname.Name]*Info
}

// New constructs an empty peer set.
func New(logger log.Logger) *Peers {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Peers{log: logger, members: make(map[xorname.Name]*Info)}
}

// Add inserts a newly-approved member, or reinstates one that had
// left. Adding a member already Joined is a no-op (logged, not an
// error: spec 9's "assert_no_prefix_change" gate is a warn-only gate
// and this mirrors that stance for re-adds).
func (p *Peers) Add(node section.P2pNode, age uint8) {
	existing, ok := p.members[node.Name]
	if !ok {
		p.members[node.Name] = &Info{Node: node, Age: age, State: Joined}
		return
	}
	switch existing.State {
	case Left:
		existing.Node = node
		existing.Age = age
		existing.State = Joined
	case Joined:
		p.log.Warn("member already joined", "name", node.Name.String())
	case Relocating:
		p.log.Warn("member re-added while relocating", "name", node.Name.String())
	}
}

// Remove marks name as Left and returns its previous state. Members
// are never deleted outright -- they stay in the map through the
// grace period so the transport layer can still resolve them.
func (p *Peers) Remove(name xorname.Name) (State, bool) {
	existing, ok := p.members[name]
	if !ok {
		return Left, false
	}
	previous := existing.State
	existing.State = Left
	return previous, true
}

// Get returns the member info for name, if present.
func (p *Peers) Get(name xorname.Name) (Info, bool) {
	existing, ok := p.members[name]
	if !ok {
		return Info{}, false
	}
	return *existing, true
}

// Joined returns every member currently in the Joined state.
func (p *Peers) Joined() []Info {
	return p.filter(func(i *Info) bool { return i.State == Joined })
}

// Mature returns every member (of any non-Left state) whose age
// exceeds minAge.
func (p *Peers) Mature(minAge uint8) []Info {
	return p.filter(func(i *Info) bool { return i.State != Left && i.Age > minAge })
}

// Relocating returns every member currently mid-relocation, used as
// the relocation-trigger fallback pool when no mature non-elder
// candidate exists (spec 4.9.3).
func (p *Peers) Relocating() []Info {
	return p.filter(func(i *Info) bool { return i.State == Relocating })
}

func (p *Peers) filter(pred func(*Info) bool) []Info {
	out := make([]Info, 0, len(p.members))
	for _, m := range p.members {
		if pred(m) {
			out = append(out, *m)
		}
	}
	sortByAgeDescThenName(out)
	return out
}

func sortByAgeDescThenName(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].AgeCounter != infos[j].AgeCounter {
			return infos[i].AgeCounter > infos[j].AgeCounter
		}
		return infos[i].Node.Name.Less(infos[j].Node.Name)
	})
}

// ElderCandidates returns up to size members best suited to be
// elders, ordered by (age_counter desc, name asc). If there are fewer
// than size mature candidates, Relocating members are used to pad the
// list out, so the section can still lose one relocating elder
// without breaking quorum (spec 4.5).
func (p *Peers) ElderCandidates(size int, minAge uint8) []Info {
	return p.elderCandidates(size, minAge, nil)
}

// ElderCandidatesMatchingPrefix is ElderCandidates restricted to
// members whose name matches prefix, used when computing a split's
// two child elder sets.
func (p *Peers) ElderCandidatesMatchingPrefix(prefix xorname.Prefix, size int, minAge uint8) []Info {
	return p.elderCandidates(size, minAge, &prefix)
}

func (p *Peers) elderCandidates(size int, minAge uint8, prefix *xorname.Prefix) []Info {
	matches := func(i *Info) bool {
		return prefix == nil || prefix.Matches(i.Node.Name)
	}

	mature := p.filter(func(i *Info) bool {
		return i.State != Left && i.Age > minAge && matches(i)
	})
	if len(mature) >= size {
		return mature[:size]
	}

	out := append([]Info{}, mature...)
	relocating := p.filter(func(i *Info) bool {
		return i.State == Relocating && i.Age <= minAge && matches(i)
	})
	for _, r := range relocating {
		if len(out) >= size {
			break
		}
		out = append(out, r)
	}
	sortByAgeDescThenName(out)
	if len(out) > size {
		out = out[:size]
	}
	return out
}

// RemoveNotMatching removes every member whose name does not match
// prefix (called immediately after a split this section is the new
// owner of) and returns them, so the caller can retain them as
// post-split sibling members for transport continuity.
func (p *Peers) RemoveNotMatching(prefix xorname.Prefix) []Info {
	var removed []Info
	for name, m := range p.members {
		if prefix.Matches(name) {
			continue
		}
		removed = append(removed, *m)
		delete(p.members, name)
	}
	sortByAgeDescThenName(removed)
	return removed
}

// IsMember reports whether name is a current (non-Left) member.
func (p *Peers) IsMember(name xorname.Name) bool {
	m, ok := p.members[name]
	return ok && m.State != Left
}

// Len returns the number of tracked members, including recently-left ones.
func (p *Peers) Len() int { return len(p.members) }

// AsValidatorOutputs renders infos in the validators.GetValidatorOutput
// shape external tooling built against github.com/luxfi/validators
// already knows how to consume, weighting each by age so the same
// (age_counter desc, name asc) ordering ElderCandidates uses carries
// over to weight-based selection elsewhere.
func AsValidatorOutputs(infos []Info) map[section.P2pNode]*validators.GetValidatorOutput {
	out := make(map[section.P2pNode]*validators.GetValidatorOutput, len(infos))
	for _, i := range infos {
		out[i.Node] = &validators.GetValidatorOutput{
			NodeID: i.Node.NodeID,
			Weight: uint64(i.AgeCounter) + 1,
		}
	}
	return out
}
