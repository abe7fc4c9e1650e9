// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus wraps an external BFT gossip engine
// (github.com/luxfi/bft, via the kept engine/bft collaborator) behind
// the vote_for/poll/create_gossip/handle_request/handle_response
// contract the approved-node loop (package node) drives (spec 4.4).
//
// The external engine supplies bootstrapping, health and liveness;
// the event-level gossip bookkeeping (who to gossip to, what a
// gossip message contains, how a peer's votes get folded in) is owned
// here, since it is this module's own AccumulatingEvent vocabulary,
// not the generic block-finality vocabulary luxbft.Epoch exposes.
package consensus

import (
	"context"
	"sort"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	bftengine "github.com/luxfi/elders/engine/bft"
	"github.com/luxfi/elders/event"
)

// Config configures a new Engine.
type Config struct {
	OurID       ids.NodeID
	Elders      []ids.NodeID
	ParsecVersion uint64
	BFT         bftengine.Config
}

// vote pairs a voted-for event with the voter who cast it, in arrival
// order. It is the unit exchanged in gossip messages and fed to the
// event accumulator.
type vote struct {
	Event event.Event
	Voter ids.NodeID
}

// GossipMessage is what create_gossip produces and
// handle_request/handle_response consume: every vote we have that the
// recipient has not acknowledged yet.
type GossipMessage struct {
	ParsecVersion uint64
	Votes         []vote
}

// Engine is the per-section consensus engine: one instance per elder,
// reset (with an incremented ParsecVersion) on every split/merge/prune.
type Engine struct {
	log log.Logger
	bft *bftengine.Engine

	ourID  ids.NodeID
	elders map[ids.NodeID]bool

	parsecVersion uint64
	accumulator   *event.Accumulator

	// ourVotes is every event we personally voted for and have not
	// seen emerge as an accumulated block, kept so a reset can
	// re-vote them and so our_unpolled_observations can answer
	// truthfully across resets.
	ourVotes map[string]event.Event

	// acked[peer] is the set of event keys we know peer has already
	// seen, so create_gossip only ships the delta.
	acked map[ids.NodeID]map[string]bool

	polled map[string]bool
}

// New constructs an Engine for the given elder set, wrapping a fresh
// external BFT collaborator.
func New(logger log.Logger, cfg Config) (*Engine, error) {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	bft, err := bftengine.New(cfg.BFT)
	if err != nil {
		return nil, err
	}
	elders := make(map[ids.NodeID]bool, len(cfg.Elders))
	for _, id := range cfg.Elders {
		elders[id] = true
	}
	return &Engine{
		log:           logger,
		bft:           bft,
		ourID:         cfg.OurID,
		elders:        elders,
		parsecVersion: cfg.ParsecVersion,
		accumulator:   event.NewAccumulator(logger),
		ourVotes:      make(map[string]event.Event),
		acked:         make(map[ids.NodeID]map[string]bool),
		polled:        make(map[string]bool),
	}, nil
}

// IsBootstrapped delegates to the external collaborator.
func (e *Engine) IsBootstrapped() bool { return e.bft.IsBootstrapped() }

// HealthCheck delegates to the external collaborator.
func (e *Engine) HealthCheck(ctx context.Context) (interface{}, error) { return e.bft.HealthCheck(ctx) }

// VoteFor includes event in the local graph: it is recorded as one of
// our own votes and immediately counted as a proof, exactly as if it
// had already propagated through gossip to ourselves.
func (e *Engine) VoteFor(ev event.Event) {
	if _, already := e.ourVotes[ev.Key]; already {
		return
	}
	e.ourVotes[ev.Key] = ev
	e.accumulator.AddProof(ev, e.ourID)
}

// Poll returns the next event whose proof set now satisfies the
// current elder quorum, or false if none is ready. Each call drains
// at most one event off the front of the ready queue, matching the
// approved loop's one-handler-at-a-time discipline (spec 4.9).
func (e *Engine) Poll() (event.Event, bool) {
	ready := e.accumulator.Poll(len(e.elders))
	for _, ev := range ready {
		if e.polled[ev.Key] {
			continue
		}
		e.polled[ev.Key] = true
		delete(e.ourVotes, ev.Key)
		return ev, true
	}
	return event.Event{}, false
}

// HandleRequest ingests a peer's gossip request, folding every vote it
// carries into our accumulator, and returns the delta response they
// are missing.
func (e *Engine) HandleRequest(sender ids.NodeID, msg GossipMessage) GossipMessage {
	e.ingest(sender, msg)
	return e.CreateGossip(sender)
}

// HandleResponse ingests a peer's gossip response. There is no reply
// to a response.
func (e *Engine) HandleResponse(sender ids.NodeID, msg GossipMessage) {
	e.ingest(sender, msg)
}

func (e *Engine) ingest(sender ids.NodeID, msg GossipMessage) {
	if msg.ParsecVersion != e.parsecVersion {
		e.log.Debug("dropping gossip from mismatched parsec version",
			"sender", sender.String(), "theirs", msg.ParsecVersion, "ours", e.parsecVersion)
		return
	}
	for _, v := range msg.Votes {
		e.accumulator.AddProof(v.Event, v.Voter)
	}
	e.markAcked(sender, msg.Votes)
}

func (e *Engine) markAcked(peer ids.NodeID, votes []vote) {
	acked, ok := e.acked[peer]
	if !ok {
		acked = make(map[string]bool)
		e.acked[peer] = acked
	}
	for _, v := range votes {
		acked[v.Event.Key] = true
	}
}

// CreateGossip builds the gossip message to send to target: every
// event we have voted for, or have seen another elder vote for, that
// target has not yet acknowledged.
func (e *Engine) CreateGossip(target ids.NodeID) GossipMessage {
	acked := e.acked[target]
	events := make(map[string]event.Event, len(e.ourVotes))
	for key, ev := range e.ourVotes {
		events[key] = ev
	}
	for _, ev := range e.UnaccumulatedEvents() {
		if _, ok := events[ev.Key]; !ok {
			events[ev.Key] = ev
		}
	}
	seen := make(map[string]bool)
	var votes []vote
	for key, ev := range events {
		if acked[key] {
			continue
		}
		for _, voter := range e.accumulator.Voters(key) {
			if seen[key+voter.String()] {
				continue
			}
			seen[key+voter.String()] = true
			votes = append(votes, vote{Event: ev, Voter: voter})
		}
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].Event.Key < votes[j].Event.Key })
	return GossipMessage{ParsecVersion: e.parsecVersion, Votes: votes}
}

// ShouldSendGossip reports whether we have anything target has not
// acknowledged yet.
func (e *Engine) ShouldSendGossip(target ids.NodeID) bool {
	return len(e.CreateGossip(target).Votes) > 0
}

// GossipRecipients returns the elders other than ourselves, the
// universe of valid gossip partners.
func (e *Engine) GossipRecipients() []ids.NodeID {
	out := make([]ids.NodeID, 0, len(e.elders))
	for id := range e.elders {
		if id != e.ourID {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// PruneIfNeeded reports whether enough events have fully accumulated
// since the last prune that a ParsecPrune vote is worthwhile, keeping
// the gossip graph from growing without bound.
func (e *Engine) PruneIfNeeded(threshold int) bool {
	return len(e.polled) >= threshold
}

// OurUnpolledObservations returns every event we voted for that has
// not yet emerged as an accumulated block, needed to carry votes
// across a reset (spec 4.4).
func (e *Engine) OurUnpolledObservations() []event.Event {
	out := make([]event.Event, 0, len(e.ourVotes))
	for _, ev := range e.ourVotes {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// UnaccumulatedEvents exposes the accumulator's pending-event view, so
// the control loop's is_accumulated re-check after every add_proof
// (spec 4.4) can be driven without reaching into the accumulator
// directly.
func (e *Engine) UnaccumulatedEvents() []event.Event {
	return e.accumulator.UnaccumulatedEvents(len(e.elders))
}

// DetectUnresponsive forwards to the accumulator.
func (e *Engine) DetectUnresponsive(current []ids.NodeID) []ids.NodeID {
	return e.accumulator.DetectUnresponsive(current)
}

// ResetOutcome is what PrepareReset hands to the caller so it can
// build the Genesis observation of the next engine instance.
type ResetOutcome struct {
	UnaccumulatedEvents []event.Event
	AccumulatedKeys     []string
}

// PrepareReset drains the engine ahead of a split/merge/prune: every
// event we voted for that is not yet accumulated, plus the keys of
// recently-completed events, is returned so the caller can decide
// which to re-vote for against the new elder set (spec 4.4).
func (e *Engine) PrepareReset() ResetOutcome {
	outcome := ResetOutcome{UnaccumulatedEvents: e.OurUnpolledObservations()}
	for key := range e.polled {
		outcome.AccumulatedKeys = append(outcome.AccumulatedKeys, key)
	}
	sort.Strings(outcome.AccumulatedKeys)
	return outcome
}

// FinaliseReset re-initialises the engine against a new elder set and
// parsec version, and re-votes for every carried-over event for which
// keep returns true.
func (e *Engine) FinaliseReset(newElders []ids.NodeID, carryOver []event.Event, keep func(event.Event) bool) {
	e.elders = make(map[ids.NodeID]bool, len(newElders))
	for _, id := range newElders {
		e.elders[id] = true
	}
	e.parsecVersion++
	e.accumulator.ResetAccumulator()
	e.ourVotes = make(map[string]event.Event)
	e.acked = make(map[ids.NodeID]map[string]bool)
	e.polled = make(map[string]bool)

	for _, ev := range carryOver {
		if keep(ev) {
			e.VoteFor(ev)
		}
	}
}

// ParsecVersion returns the engine's current reset generation.
func (e *Engine) ParsecVersion() uint64 { return e.parsecVersion }
