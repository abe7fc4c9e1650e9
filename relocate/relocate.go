// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package relocate implements the relocation state machine of spec
// 4.9.3: the source-section side that picks a member to move and
// hands it off, and the destination-section side that accepts an
// incoming candidate.
package relocate

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/luxfi/log"

	"github.com/luxfi/elders/members"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/xorname"
)

// DestinationPrefix computes the destination of a relocation as
// hash(relocated_name || trigger_name) folded into a prefix of the
// given length, per spec 4.9.3.
func DestinationPrefix(relocatedName, triggerName xorname.Name, prefixLen uint16) xorname.Prefix {
	h := sha256.Sum256(append(append([]byte{}, relocatedName[:]...), triggerName[:]...))
	var folded xorname.Name
	copy(folded[:], h[:])
	return xorname.NewPrefix(folded, prefixLen)
}

// PickCandidate chooses which member to relocate on RelocationTrigger
// accumulation: the oldest mature non-elder if one exists, else the
// oldest member already mid-relocation (spec 4.9.3). It returns false
// if no eligible candidate exists.
func PickCandidate(peers *members.Peers, minAge uint8, isElder func(xorname.Name) bool) (members.Info, bool) {
	var best members.Info
	found := false
	for _, m := range peers.Mature(minAge) {
		if isElder(m.Node.Name) {
			continue
		}
		if !found || m.Age > best.Age {
			best, found = m, true
		}
	}
	if found {
		return best, true
	}
	for _, m := range peers.Relocating() {
		if !found || m.Age > best.Age {
			best, found = m, true
		}
	}
	return best, found
}

// --- Source side ------------------------------------------------------

// Source tracks relocations this section has initiated but not yet
// completed.
type Source struct {
	log     log.Logger
	pending map[xorname.Name]section.RelocateDetails
}

// NewSource builds an empty Source tracker.
func NewSource(logger log.Logger) *Source {
	return &Source{log: logger, pending: make(map[xorname.Name]section.RelocateDetails)}
}

// Begin records that details.Name is now Relocating and awaiting a
// RelocateResponse from the destination.
func (s *Source) Begin(details section.RelocateDetails) {
	s.pending[details.Name] = details
}

// HandleRelocateResponse completes a relocation: the candidate leaves
// our section once we have heard back from the destination. Returns
// the details to attach to a RelocatedInfo message, and whether the
// name was actually pending (a response for an unknown candidate is
// the idempotence case called out in spec 4.9.3 and is dropped).
func (s *Source) HandleRelocateResponse(name xorname.Name) (section.RelocateDetails, bool) {
	details, ok := s.pending[name]
	if !ok {
		return section.RelocateDetails{}, false
	}
	delete(s.pending, name)
	return details, true
}

// Pending reports whether name has an in-flight relocation.
func (s *Source) Pending(name xorname.Name) bool {
	_, ok := s.pending[name]
	return ok
}

// --- Destination side ---------------------------------------------------

// CandidateStatus is where an inbound relocation candidate is in our
// destination-side acceptance flow.
type CandidateStatus int

const (
	CandidateAccepted CandidateStatus = iota
	CandidateRefused
	CandidateResend
)

// Destination tracks relocation candidates this section is in the
// process of accepting.
type Destination struct {
	log       log.Logger
	processing map[xorname.Name]struct{}
}

// NewDestination builds an empty Destination tracker.
func NewDestination(logger log.Logger) *Destination {
	return &Destination{log: logger, processing: make(map[xorname.Name]struct{})}
}

// HandleExpectCandidate implements spec 4.9.3's destination-side
// ExpectCandidate-accumulation branch: refuse if we are already
// processing a candidate, resend to a shorter-prefix destination if
// we know of one closer to the candidate's target name, otherwise
// begin accepting it.
func (d *Destination) HandleExpectCandidate(candidateName xorname.Name, ourPrefix xorname.Prefix, shorterPrefixKnown func(xorname.Name) (xorname.Prefix, bool)) CandidateStatus {
	if len(d.processing) > 0 {
		return CandidateRefused
	}
	if shorter, ok := shorterPrefixKnown(candidateName); ok && shorter != ourPrefix {
		return CandidateResend
	}
	d.processing[candidateName] = struct{}{}
	return CandidateAccepted
}

// AcceptAsCandidate adds the relocating node to the destination
// section's membership as a Joined member (no separate
// resource-proofing state is tracked) and returns ourInfo as the
// RelocateResponse payload to send back to the source.
func (d *Destination) AcceptAsCandidate(peers *members.Peers, node section.P2pNode, age uint8, ourInfo section.EldersInfo) section.EldersInfo {
	peers.Add(node, age)
	return ourInfo
}

// Done marks candidateName as fully processed, freeing the
// "already processing a candidate" slot for the next relocation.
func (d *Destination) Done(candidateName xorname.Name) {
	delete(d.processing, candidateName)
}

// EncodeRelocateHash derives the sigaccum lookup key used while
// collecting section signatures over a RelocateDetails payload.
func EncodeRelocateHash(details section.RelocateDetails) [32]byte {
	var buf []byte
	buf = append(buf, details.Name[:]...)
	buf = append(buf, details.Destination[:]...)
	var ageBuf [8]byte
	binary.LittleEndian.PutUint64(ageBuf[:], uint64(details.Age))
	buf = append(buf, ageBuf[:]...)
	return sha256.Sum256(buf)
}
