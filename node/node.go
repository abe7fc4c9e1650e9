// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node implements the approved-node control loop: the single
// cooperative event loop that owns SharedState, the consensus engine,
// the signature accumulator and the transport adapter, and turns
// accumulated events into state transitions (spec 4.9).
package node

import (
	"crypto/sha256"
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/elders/chain"
	"github.com/luxfi/elders/consensus"
	"github.com/luxfi/elders/event"
	"github.com/luxfi/elders/keys"
	"github.com/luxfi/elders/members"
	"github.com/luxfi/elders/metrics"
	"github.com/luxfi/elders/relocate"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/sigaccum"
	"github.com/luxfi/elders/state"
	"github.com/luxfi/elders/wire"
	"github.com/luxfi/elders/xorname"
)

// Params are the tunable sizes the loop consults when deciding
// committee shape and churn readiness.
type Params struct {
	ElderSize      int // E, typically 7
	MinAge         uint8
	SplitThreshold int
	RelocateCoolDownSteps int32
}

// DefaultParams mirrors the teacher's preset-config pattern
// (config/presets.go): one named, reviewable default rather than
// magic numbers scattered through the loop.
func DefaultParams() Params {
	return Params{
		ElderSize:             7,
		MinAge:                members.MinAge,
		SplitThreshold:        7,
		RelocateCoolDownSteps: 10,
	}
}

// Outbox is how the loop hands finished work to the outside world:
// wire sends, user-visible notifications, and timer (re)scheduling.
// The node package never touches a socket directly -- that is
// transport's job, reached only through this narrow interface so the
// loop stays deterministic and unit-testable.
type Outbox interface {
	SendToNode(dst xorname.Name, payload []byte)
	SendToSection(dst xorname.Prefix, payload []byte)
	Notify(kind string, detail interface{})
	ScheduleTimer(token string, d time.Duration)
}

// splitHalf is one accumulated half of a pending split, cached until
// its sibling also accumulates (spec 4.9.1).
type splitHalf struct {
	info section.EldersInfo
	key  []byte // compressed BLS public key
}

// Loop is one node's approved-member control loop.
type Loop struct {
	log   log.Logger
	out   Outbox
	parms Params

	ourID   ids.NodeID
	ourName xorname.Name

	Engine *consensus.Engine
	State  *state.SharedState
	Keys   *keys.Provider
	Sig    *sigaccum.Accumulator

	churnInProgress bool
	membersChanged  bool
	backlog         []event.Event

	splitCache map[string]splitHalf // keyed by parent prefix string
	dkgCache   map[string]section.EldersInfo

	metrics *metrics.Section
}

// SetMetrics attaches the prometheus collectors the loop increments as
// it processes churn; nil is a valid no-op value, so tests and callers
// that don't care about metrics need not set this.
func (l *Loop) SetMetrics(m *metrics.Section) { l.metrics = m }

// New constructs a Loop. The caller is responsible for having already
// run genesis or bootstrap to populate state and engine.
func New(logger log.Logger, out Outbox, ourID ids.NodeID, ourName xorname.Name, eng *consensus.Engine, st *state.SharedState, kp *keys.Provider, sig *sigaccum.Accumulator, parms Params) *Loop {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Loop{
		log:        logger,
		out:        out,
		parms:      parms,
		ourID:      ourID,
		ourName:    ourName,
		Engine:     eng,
		State:      st,
		Keys:       kp,
		Sig:        sig,
		splitCache: make(map[string]splitHalf),
		dkgCache:   make(map[string]section.EldersInfo),
	}
}

// isReadyToChurn is handled_genesis_event && !churn_in_progress.
func (l *Loop) isReadyToChurn() bool {
	return l.State.HandledGenesisEvent && !l.churnInProgress
}

// VoteFor is the local API input: vote_for_user_event and any other
// internally-originated vote (join approval, relocation, DKG, ...).
func (l *Loop) VoteFor(ev event.Event) {
	l.Engine.VoteFor(ev)
}

// PollAll drains every ready unit of work, in the order spec 4.9's
// core loop describes: backlog first (once churn-safe), then a
// pending committee change, then a pending relocation, then whatever
// the consensus engine has accumulated. It returns once nothing more
// is immediately actionable.
func (l *Loop) PollAll() {
	for {
		switch {
		case len(l.backlog) > 0 && l.isReadyToChurn():
			next := l.backlog[0]
			l.backlog = l.backlog[1:]
			l.handleAccumulatedEvent(next)

		case l.membersChanged && l.isReadyToChurn():
			l.membersChanged = false
			newInfos := l.State.PromoteAndDemoteElders(l.parms.ElderSize, l.parms.MinAge, l.parms.SplitThreshold)
			if newInfos == nil {
				l.churnInProgress = false
				continue
			}
			l.churnInProgress = true
			for _, info := range newInfos {
				l.Engine.VoteFor(event.NewStartDkg(info.ElderIDs()))
				l.dkgCache[info.Prefix.String()] = info
			}

		case l.isReadyToChurn() && len(l.State.RelocateQueue) > 0:
			details := l.State.RelocateQueue[0]
			l.State.RelocateQueue = l.State.RelocateQueue[1:]
			if l.State.OurInfo().IsElder(l.ourName) {
				l.Engine.VoteFor(event.NewRelocatePrepare(event.RelocatePreparePayload{
					Details:   details,
					Countdown: l.parms.RelocateCoolDownSteps,
				}))
			}

		default:
			ev, ok := l.Engine.Poll()
			if !ok {
				l.detectAndVoteOffline()
				return
			}
			if ev.IsChurnTrigger() && !l.isReadyToChurn() {
				l.backlog = append([]event.Event{ev}, l.backlog...)
				continue
			}
			l.handleAccumulatedEvent(ev)
		}
	}
}

func (l *Loop) detectAndVoteOffline() {
	unresponsive := l.Engine.DetectUnresponsive(l.State.OurInfo().ElderIDs())
	for _, id := range unresponsive {
		l.Engine.VoteFor(event.NewOffline(id))
	}
}

// handleAccumulatedEvent dispatches one accumulated event to its
// per-kind handler (spec 4.9's "Per-event handlers").
func (l *Loop) handleAccumulatedEvent(ev event.Event) {
	if l.metrics != nil {
		l.metrics.EventsAccum.Inc()
	}
	switch ev.Kind {
	case event.Genesis:
		l.handleGenesis(ev)
	case event.Online:
		l.handleOnline(ev)
	case event.Offline:
		l.handleOffline(ev)
	case event.SectionInfo:
		l.handleSectionInfo(ev)
	case event.NeighbourInfo:
		l.handleNeighbourInfo(ev)
	case event.SendNeighbourInfo:
		l.handleSendNeighbourInfo(ev)
	case event.TheirKeyInfo:
		l.handleTheirKeyInfo(ev)
	case event.TheirKnowledge:
		l.handleTheirKnowledge(ev)
	case event.ParsecPrune:
		l.handleParsecPrune()
	case event.Relocate:
		l.handleRelocate(ev)
	case event.RelocatePrepare:
		l.handleRelocatePrepare(ev)
	case event.DkgResult:
		l.handleDkgResult(ev)
	case event.User:
		l.handleUser(ev)
	default:
		l.log.Warn("no handler for accumulated event", "kind", ev.Kind.String())
	}
}

func (l *Loop) handleGenesis(ev event.Event) {
	l.State.HandledGenesisEvent = true
	l.membersChanged = true
	l.out.Notify("Genesis", ev.Payload)
}

func (l *Loop) handleOnline(ev event.Event) {
	p := ev.Payload.(event.OnlinePayload)
	l.State.OurMembers.Add(p.Node, p.Age)
	l.membersChanged = true
	l.out.Notify("MemberJoined", p)
	if l.metrics != nil {
		l.metrics.Members.Set(float64(l.State.OurMembers.Len()))
	}

	zero := uint64(0)
	slice, err := l.State.Prove(p.Node.Name, &zero)
	if err != nil {
		l.log.Warn("could not build node approval proof slice", "error", err)
		return
	}
	approval := wire.Variant{
		Kind: wire.VariantNodeApproval,
		NodeApproval: wire.GenesisPrefixInfo{
			Info:  l.State.OurInfo(),
			Key:   l.keySetPublicKey(),
			Chain: slice,
		},
	}
	payload, err := wire.EncodeVariant(approval)
	if err != nil {
		l.log.Warn("could not encode node approval", "error", err)
		return
	}
	l.out.SendToNode(p.Node.Name, payload)
}

// keySetPublicKey returns our section's current aggregate key, or nil
// before the first DKG has finalised.
func (l *Loop) keySetPublicKey() *bls.PublicKey {
	if pks := l.Keys.PublicKeySet(); pks != nil {
		return pks.PublicKey
	}
	return nil
}

func (l *Loop) handleOffline(ev event.Event) {
	id := ev.Payload.(ids.NodeID)
	for _, m := range l.State.OurMembers.Joined() {
		if m.Node.NodeID == id {
			l.State.OurMembers.Remove(m.Node.Name)
			l.out.Notify("MemberLeft", m)
			break
		}
	}
	l.membersChanged = true
}

func (l *Loop) handleSendNeighbourInfo(ev event.Event) {
	p := ev.Payload.(event.SendNeighbourInfoPayload)
	v := wire.Variant{Kind: wire.VariantNeighbourInfo}
	v.NeighbourInfo.Info = l.State.OurInfo()
	v.NeighbourInfo.Nonce = p.Nonce
	payload, err := wire.EncodeVariant(v)
	if err != nil {
		l.log.Warn("could not encode neighbour info", "error", err)
		return
	}
	l.out.SendToNode(p.Dst, payload)
}

func (l *Loop) handleTheirKeyInfo(ev event.Event) {
	p := ev.Payload.(event.TheirKeyInfoPayload)
	l.State.UpdateTheirKeys(chain.KeyInfo{Prefix: p.Prefix, Key: p.Key})
}

func (l *Loop) handleTheirKnowledge(ev event.Event) {
	p := ev.Payload.(event.TheirKnowledgePayload)
	l.State.UpdateTheirKnowledge(p.Prefix, p.Knowledge)
}

func (l *Loop) handleParsecPrune() {
	outcome := l.Engine.PrepareReset()
	elders := l.State.OurInfo().ElderIDs()
	l.Engine.FinaliseReset(elders, outcome.UnaccumulatedEvents, l.carryOverFilter())
}

// carryOverFilter implements the per-variant prune filter from spec
// 4.4: Online survives iff the joiner still matches our prefix,
// neighbour-info survives iff still a neighbour; everything else is
// always retained.
func (l *Loop) carryOverFilter() func(event.Event) bool {
	ourPrefix := l.State.OurPrefix()
	return func(ev event.Event) bool {
		switch ev.Kind {
		case event.Online:
			p := ev.Payload.(event.OnlinePayload)
			return ourPrefix.Matches(p.Node.Name)
		case event.NeighbourInfo:
			p := ev.Payload.(event.SectionInfoPayload)
			return ourPrefix.IsNeighbour(p.Info.Prefix)
		default:
			return true
		}
	}
}

func (l *Loop) handleRelocate(ev event.Event) {
	p := ev.Payload.(event.RelocatePayload)
	l.State.OurMembers.Remove(p.Details.Name)
	if l.metrics != nil {
		l.metrics.Relocations.Inc()
	}
	knowledge := l.State.TheirKnowledge(l.destinationPrefix(p.Details.Destination))
	slice, err := l.State.Prove(p.Details.Destination, &knowledge)
	if err != nil {
		l.log.Warn("could not build relocation proof slice", "error", err)
		return
	}

	sig, err := l.signRelocateDetails(p.Details)
	if err != nil {
		l.log.Warn("could not sign relocation details", "error", err)
		return
	}
	msg := wire.Message{
		Src: wire.Src{Kind: wire.SrcSection, Prefix: l.State.OurPrefix()},
		Dst: wire.Dst{Kind: wire.DstNode, Name: p.Details.Name},
		Variant: wire.Variant{
			Kind:     wire.VariantRelocate,
			Relocate: wire.SignedRelocateDetails{Details: p.Details, Signature: sig},
		},
		ProofSlice: slice,
	}
	payload, err := wire.EncodeMessage(msg)
	if err != nil {
		l.log.Warn("could not encode relocate message", "error", err)
		return
	}
	l.out.SendToNode(p.Details.Name, payload)
}

// signRelocateDetails produces our section's share of the signature
// over the relocation, if we hold one; an unsigned relocation (nil
// signature) still carries the chain.ProofSlice proving our identity,
// which is sufficient for the candidate to trust it came from us.
func (l *Loop) signRelocateDetails(details section.RelocateDetails) (*bls.Signature, error) {
	share, err := l.Keys.SecretKeyShare()
	if err != nil {
		return nil, nil
	}
	hash := relocate.EncodeRelocateHash(details)
	return share.Sign(hash[:])
}

func (l *Loop) destinationPrefix(name xorname.Name) xorname.Prefix {
	if ki, ok := l.State.TheirKeyMatching(name); ok {
		return ki.Prefix
	}
	return l.State.OurPrefix()
}

func (l *Loop) handleRelocatePrepare(ev event.Event) {
	p := ev.Payload.(event.RelocatePreparePayload)
	if p.Countdown > 0 {
		l.Engine.VoteFor(event.NewRelocatePrepare(event.RelocatePreparePayload{
			Details:   p.Details,
			Countdown: p.Countdown - 1,
		}))
		return
	}
	l.Engine.VoteFor(event.NewRelocate(event.RelocatePayload{Details: p.Details}))
}

func (l *Loop) handleDkgResult(ev event.Event) {
	p := ev.Payload.(event.DkgResultPayload)
	l.Keys.HandleDkgResultEvent(p.Participants, p.Result)

	if len(p.Participants) == 0 {
		return
	}
	lead := p.Participants[0]
	pks, err := l.Keys.FinaliseDkg(lead)
	if err != nil {
		return
	}
	for prefixStr, info := range l.dkgCache {
		if !l.isWeElder(info) {
			continue
		}
		ki := chain.KeyInfo{Prefix: info.Prefix, Version: info.Version, Key: pks.PublicKey}
		ourShare, err := l.Keys.SecretKeyShare()
		if err != nil {
			continue // not a member of the new elder set: nothing to sign with
		}
		share, err := ourShare.Sign(chain.EncodeKeyInfo(ki))
		if err != nil {
			l.log.Warn("failed to sign our share of new section key", "error", err)
			continue
		}
		l.Sig.Begin(sigHash(ki), chain.EncodeKeyInfo(ki), pks, l.quorumFor(info), 0)
		combined, done, err := l.Sig.AddShare(sigHash(ki), l.ourID, share)
		if err != nil {
			l.log.Warn("failed to accumulate section key signature", "error", err)
			continue
		}
		if !done {
			continue
		}
		infoWithKey := info
		infoWithKey.KeySet = pks
		l.Engine.VoteFor(event.NewSectionInfo(event.SectionInfoPayload{Info: infoWithKey, Key: pks.PublicKey, Signature: combined}))
		delete(l.dkgCache, prefixStr)
	}
}

func (l *Loop) quorumFor(info section.EldersInfo) int {
	return (len(info.Elders)*2)/3 + 1
}

func sigHash(ki chain.KeyInfo) [32]byte {
	return sha256.Sum256(chain.EncodeKeyInfo(ki))
}

func (l *Loop) isWeElder(info section.EldersInfo) bool {
	return info.IsElder(l.ourName)
}

func (l *Loop) handleUser(ev event.Event) {
	l.out.Notify("Consensus", ev.Payload)
}
