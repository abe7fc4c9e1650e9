// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package join implements the candidate/joining state machine of
// spec 4.9.2: the elder-side bootstrap/join-request handling that
// turns a new peer into a voted-in adult, and the joiner-side
// sub-machine that walks a candidate through connection-info exchange
// and resource proof up to NodeApproval.
package join

import (
	"crypto/sha256"
	"errors"
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/elders/event"
	"github.com/luxfi/elders/keys"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/wire"
	"github.com/luxfi/elders/xorname"
)

// Default timers, spec 4.9.2.
const (
	ResendCandidateInfoInterval = 5 * time.Second
	RefusedTimeout              = 60 * time.Second
)

// ErrStaleSectionKey is returned by the elder side when a JoinRequest
// carries a section key the candidate should no longer be trusting.
var ErrStaleSectionKey = errors.New("join: candidate's section key is stale")

func keysEqual(a, b *bls.PublicKey) bool {
	if a == nil || b == nil {
		return a == b
	}
	return string(bls.PublicKeyToCompressedBytes(a)) == string(bls.PublicKeyToCompressedBytes(b))
}

// --- Elder side -----------------------------------------------------

// ElderSide handles BootstrapRequest and JoinRequest messages arriving
// at an already-approved section.
type ElderSide struct {
	log log.Logger
}

// NewElderSide builds an ElderSide. A nil logger is replaced with a
// no-op logger by the caller's embedding (mirrors the rest of this
// module's constructors).
func NewElderSide(logger log.Logger) *ElderSide {
	return &ElderSide{log: logger}
}

// HandleBootstrapRequest answers a would-be joiner with our current
// elders and key (spec 4.9.2's BootstrapResponse::Join branch). There
// is no Rebootstrap branch here: that only arises when the request
// reaches a node that no longer covers the requested name, which this
// handler's caller is responsible for checking before invoking it.
func (e *ElderSide) HandleBootstrapRequest(info section.EldersInfo, key *bls.PublicKey) wire.Variant {
	return wire.Variant{
		Kind: wire.VariantBootstrapResponse,
		BootstrapResponse: wire.BootstrapResponse{
			Kind:   wire.BootstrapJoin,
			Elders: info,
			Key:    key,
		},
	}
}

// HandleBootstrapRequestElsewhere answers with a Rebootstrap listing
// addresses the joiner should retry, used when we no longer cover the
// requested destination (the rebootstrap supplement, SPEC_FULL 3).
func (e *ElderSide) HandleBootstrapRequestElsewhere(addrs []string) wire.Variant {
	return wire.Variant{
		Kind: wire.VariantBootstrapResponse,
		BootstrapResponse: wire.BootstrapResponse{
			Kind:        wire.BootstrapRebootstrap,
			Rebootstrap: addrs,
		},
	}
}

// JoinOutcome is what an elder does in response to a JoinRequest.
type JoinOutcome int

const (
	// JoinOutcomeVoteOnline: the section key was fresh, vote the
	// candidate in.
	JoinOutcomeVoteOnline JoinOutcome = iota
	// JoinOutcomeRefreshKey: the candidate's claimed key is stale;
	// reply with a fresh BootstrapResponse::Join rather than voting.
	JoinOutcomeRefreshKey
	// JoinOutcomeIgnore: neither of the above; the request is dropped.
	JoinOutcomeIgnore
)

// HandleJoinRequest implements spec 4.9.2's elder-side JoinRequest
// branch: vote the candidate Online if its claimed section key
// matches ours, offer a fresh key if it is stale but recognisable,
// or ignore it otherwise.
func (e *ElderSide) HandleJoinRequest(candidate section.P2pNode, age uint8, claimedKey, ourKey *bls.PublicKey, ourInfo section.EldersInfo) (JoinOutcome, event.Event) {
	if claimedKey == nil || ourKey == nil {
		return JoinOutcomeIgnore, event.Event{}
	}
	if keysEqual(claimedKey, ourKey) {
		ev := event.NewOnline(event.OnlinePayload{Node: candidate, Age: age})
		return JoinOutcomeVoteOnline, ev
	}
	// A stale key is still worth refreshing only if the candidate is
	// heading to our own prefix; otherwise silently drop it.
	if ourInfo.Prefix.Matches(candidate.Name) {
		return JoinOutcomeRefreshKey, event.Event{}
	}
	return JoinOutcomeIgnore, event.Event{}
}

// --- Joiner side ------------------------------------------------------

// Status is the joiner sub-machine's state.
type Status int

const (
	StatusAwaitingConnections Status = iota
	StatusCandidateInfoSent
	StatusProvingResource
	StatusApproved
	StatusRefused
)

// resourceProofSource is a lazy sequence of proof parts, spec 4.9.2.
// Parts are derived deterministically from a seed so both sides agree
// on content without exchanging it up front.
type resourceProofSource struct {
	seed []byte
	next int
	total int
}

func newResourceProofSource(seed []byte, parts int) *resourceProofSource {
	return &resourceProofSource{seed: seed, total: parts}
}

func (r *resourceProofSource) part(i int) []byte {
	h := sha256.Sum256(append(append([]byte{}, r.seed...), byte(i)))
	return h[:]
}

// Poll returns the next proof part and whether this was the final
// one. Calling Poll after the final part returns (nil, true) again.
func (r *resourceProofSource) Poll() (part []byte, final bool) {
	if r.next >= r.total {
		return nil, true
	}
	p := r.part(r.next)
	r.next++
	return p, r.next >= r.total
}

// Candidate drives the joiner-side sub-machine of spec 4.9.2.
type Candidate struct {
	log              log.Logger
	ourID            ids.NodeID
	ourName          xorname.Name
	destinationElders []section.P2pNode
	sectionKey       *bls.PublicKey
	status           Status
	proofs           map[ids.NodeID]*resourceProofSource
	lastSent         time.Time
	genesis          *wire.GenesisPrefixInfo
}

// NewCandidate begins a join attempt against the elders of
// destination, whose section key the joiner believes is sectionKey.
func NewCandidate(logger log.Logger, ourID ids.NodeID, ourName xorname.Name, destinationElders []section.P2pNode, sectionKey *bls.PublicKey) *Candidate {
	return &Candidate{
		log:               logger,
		ourID:             ourID,
		ourName:           ourName,
		destinationElders: destinationElders,
		sectionKey:        sectionKey,
		status:            StatusAwaitingConnections,
		proofs:            make(map[ids.NodeID]*resourceProofSource),
	}
}

// JoinRequest builds the JoinRequest variant once connection info for
// the destination elders has been exchanged.
func (c *Candidate) JoinRequest() wire.Variant {
	c.status = StatusCandidateInfoSent
	c.lastSent = time.Time{}
	return wire.Variant{Kind: wire.VariantJoinRequest, JoinRequestSectionKey: c.sectionKey}
}

// HandleResourceProofRequest starts proving resource ownership to one
// elder, seeding its proof source from that elder's challenge.
func (c *Candidate) HandleResourceProofRequest(elder ids.NodeID, seed []byte, parts int) []byte {
	c.status = StatusProvingResource
	src := newResourceProofSource(seed, parts)
	c.proofs[elder] = src
	part, _ := src.Poll()
	return part
}

// HandleResourceProofReceipt advances the named elder's proof source
// by one part; the second return value is true once that elder's
// sequence is exhausted and a ValidEnd reply should be sent instead.
func (c *Candidate) HandleResourceProofReceipt(elder ids.NodeID) ([]byte, bool) {
	src, ok := c.proofs[elder]
	if !ok {
		return nil, true
	}
	return src.Poll()
}

// HandleNodeApproval transitions the candidate to Approved, records
// the genesis state it should bootstrap from, and returns it.
func (c *Candidate) HandleNodeApproval(info wire.GenesisPrefixInfo) wire.GenesisPrefixInfo {
	c.status = StatusApproved
	c.genesis = &info
	return info
}

// Genesis returns the genesis state recorded by the most recent
// NodeApproval, if any has been received yet.
func (c *Candidate) Genesis() (wire.GenesisPrefixInfo, bool) {
	if c.genesis == nil {
		return wire.GenesisPrefixInfo{}, false
	}
	return *c.genesis, true
}

// ShouldResendCandidateInfo reports whether ResendCandidateInfoInterval
// has elapsed since the last CandidateInfo send and we are still
// waiting on a response (spec's JoiningTimeoutResendCandidateInfo).
func (c *Candidate) ShouldResendCandidateInfo(now time.Time) bool {
	return c.status == StatusAwaitingConnections && now.Sub(c.lastSent) >= ResendCandidateInfoInterval
}

// MarkCandidateInfoSent records that CandidateInfo was just sent, for
// the resend timer above.
func (c *Candidate) MarkCandidateInfoSent(now time.Time) {
	c.lastSent = now
}

// Status returns the candidate's current sub-state.
func (c *Candidate) Status() Status { return c.status }

// Refuse marks the join attempt as refused (JoiningTimeoutRefused
// fired, or an elder explicitly refused).
func (c *Candidate) Refuse() { c.status = StatusRefused }
