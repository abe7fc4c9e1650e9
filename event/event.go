// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package event defines the AccumulatingEvent tagged union that the
// consensus engine (package consensus) accumulates proofs for, and
// the quorum-tracking accumulator itself (spec 4.3).
package event

import (
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"

	"github.com/luxfi/elders/keys"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/xorname"
)

// Kind discriminates the AccumulatingEvent variants of spec 3.
type Kind int

const (
	Genesis Kind = iota
	StartDkg
	DkgResult
	Online
	Offline
	SectionInfo
	NeighbourInfo
	SendNeighbourInfo
	TheirKeyInfo
	TheirKnowledge
	ParsecPrune
	Relocate
	RelocatePrepare
	User
)

func (k Kind) String() string {
	switch k {
	case Genesis:
		return "Genesis"
	case StartDkg:
		return "StartDkg"
	case DkgResult:
		return "DkgResult"
	case Online:
		return "Online"
	case Offline:
		return "Offline"
	case SectionInfo:
		return "SectionInfo"
	case NeighbourInfo:
		return "NeighbourInfo"
	case SendNeighbourInfo:
		return "SendNeighbourInfo"
	case TheirKeyInfo:
		return "TheirKeyInfo"
	case TheirKnowledge:
		return "TheirKnowledge"
	case ParsecPrune:
		return "ParsecPrune"
	case Relocate:
		return "Relocate"
	case RelocatePrepare:
		return "RelocatePrepare"
	case User:
		return "User"
	default:
		return "Unknown"
	}
}

// OnlinePayload carries the joining node's identity and the age it
// should have after joining.
type OnlinePayload struct {
	Node          section.P2pNode
	Age           uint8
	TheirKnowledge *bls.PublicKey
}

// GenesisPayload is the output-only observation seeding a fresh parsec
// instance with the prior SharedState.
type GenesisPayload struct {
	Group      []ids.NodeID
	RelatedInfo []byte
}

// DkgResultPayload is the output-only observation carrying a finished
// DKG round.
type DkgResultPayload struct {
	Participants []ids.NodeID
	Result       keys.DkgResult
}

// SectionInfoPayload carries an accepted EldersInfo plus the section
// key under which votes for it were signed.
type SectionInfoPayload struct {
	Info      section.EldersInfo
	Key       *bls.PublicKey
	Signature *bls.Signature
}

// SendNeighbourInfoPayload carries the destination and dedup nonce for
// a vote to push a NeighbourInfo message.
type SendNeighbourInfoPayload struct {
	Dst   xorname.Name
	Nonce ids.ID
}

// TheirKeyInfoPayload updates our record of a neighbour's current key.
type TheirKeyInfoPayload struct {
	Prefix xorname.Prefix
	Key    *bls.PublicKey
}

// TheirKnowledgePayload updates our record of how much of our own
// chain a neighbour is known to have.
type TheirKnowledgePayload struct {
	Prefix    xorname.Prefix
	Knowledge uint64
}

// RelocatePayload carries the finalized relocation of a member out of
// our section.
type RelocatePayload struct {
	Details section.RelocateDetails
}

// RelocatePreparePayload is the cool-down vote preceding a Relocate
// vote; Countdown re-votes at Countdown-1 until it reaches zero.
type RelocatePreparePayload struct {
	Details   section.RelocateDetails
	Countdown int32
}

// Event is the tagged union of everything the event accumulator can
// accumulate proofs for. Key is a canonical, comparable identity for
// the event instance, used to fold multiple votes for "the same
// event" together regardless of payload pointer identity.
type Event struct {
	Kind    Kind
	Key     string
	Payload interface{}
}

// NewOnline builds an Online event keyed by the joining node's name, so
// duplicate Online votes for the same candidate fold together even if
// the age differs across proposers (spec 7, DuplicateProof).
func NewOnline(p OnlinePayload) Event {
	return Event{Kind: Online, Key: "online:" + p.Node.Name.String(), Payload: p}
}

// NewOffline builds an Offline event keyed by the departing node's id.
func NewOffline(id ids.NodeID) Event {
	return Event{Kind: Offline, Key: "offline:" + id.String(), Payload: id}
}

// NewSectionInfo builds a SectionInfo event keyed by prefix+version,
// so votes for the same accepted committee accumulate together.
func NewSectionInfo(p SectionInfoPayload) Event {
	return Event{Kind: SectionInfo, Key: "section-info:" + infoKey(p.Info), Payload: p}
}

// NewNeighbourInfo builds a NeighbourInfo event.
func NewNeighbourInfo(p SectionInfoPayload) Event {
	return Event{Kind: NeighbourInfo, Key: "neighbour-info:" + infoKey(p.Info), Payload: p}
}

func infoKey(ei section.EldersInfo) string {
	return ei.Prefix.String() + "#" + itoa(ei.Version)
}

// NewStartDkg builds a StartDkg event for the given participant set.
func NewStartDkg(participants []ids.NodeID) Event {
	key := "start-dkg:"
	for _, id := range participants {
		key += id.String() + ","
	}
	return Event{Kind: StartDkg, Key: key, Payload: participants}
}

// NewRelocate builds a Relocate event keyed by the relocating member.
func NewRelocate(p RelocatePayload) Event {
	return Event{Kind: Relocate, Key: "relocate:" + p.Details.Name.String(), Payload: p}
}

// NewRelocatePrepare builds a RelocatePrepare event keyed by the
// relocating member and the countdown, so each cool-down step's
// re-vote is a fresh event that accumulates on its own.
func NewRelocatePrepare(p RelocatePreparePayload) Event {
	return Event{Kind: RelocatePrepare, Key: "relocate-prepare:" + p.Details.Name.String() + ":" + itoa(uint64(p.Countdown)), Payload: p}
}

// NewTheirKeyInfo builds a TheirKeyInfo event.
func NewTheirKeyInfo(p TheirKeyInfoPayload) Event {
	return Event{Kind: TheirKeyInfo, Key: "their-key:" + p.Prefix.String(), Payload: p}
}

// NewTheirKnowledge builds a TheirKnowledge event.
func NewTheirKnowledge(p TheirKnowledgePayload) Event {
	return Event{Kind: TheirKnowledge, Key: "their-knowledge:" + p.Prefix.String(), Payload: p}
}

// NewSendNeighbourInfo builds a SendNeighbourInfo event.
func NewSendNeighbourInfo(p SendNeighbourInfoPayload) Event {
	return Event{Kind: SendNeighbourInfo, Key: "send-neighbour-info:" + p.Dst.String() + ":" + p.Nonce.String(), Payload: p}
}

// NewUser builds a User (opaque application) event, keyed by its own
// bytes so identical payloads fold together.
func NewUser(payload []byte) Event {
	return Event{Kind: User, Key: "user:" + string(payload), Payload: payload}
}

// NewParsecPrune builds the singleton ParsecPrune event.
func NewParsecPrune() Event { return Event{Kind: ParsecPrune, Key: "parsec-prune"} }

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// IsChurnTrigger reports whether this event's kind is one of the
// three that must wait for is_ready_to_churn (spec 4.9's poll_all).
func (e Event) IsChurnTrigger() bool {
	switch e.Kind {
	case Online, Offline, Relocate:
		return true
	default:
		return false
	}
}
