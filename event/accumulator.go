// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"sort"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// Quorum returns floor(total*2/3)+1, the default quorum for accumulating
// events: a strict supermajority of the current elder count.
func Quorum(total int) int {
	if total <= 0 {
		return 0
	}
	return (total*2)/3 + 1
}

// requiresFullConsensus holds the event kinds that spec 9's open
// question 3 resolves to need unanimous elder agreement rather than
// the default quorum: StartDkg and DkgResult, since a key generation
// round that only a bare quorum of elders took part in would leave the
// remaining elders without a usable secret key share.
var requiresFullConsensus = map[Kind]bool{
	StartDkg:  true,
	DkgResult: true,
}

func quorumFor(kind Kind, total int) int {
	if requiresFullConsensus[kind] {
		return total
	}
	return Quorum(total)
}

// proofSet tracks which voters have proven a given event, and (for
// events that carry a section-signed outcome) their BLS signature
// shares over the event's canonical encoding.
type proofSet struct {
	event      Event
	voters     map[ids.NodeID]bool
	order      []ids.NodeID
	accumulated bool
}

func newProofSet(e Event) *proofSet {
	return &proofSet{event: e, voters: make(map[ids.NodeID]bool)}
}

func (ps *proofSet) addVote(voter ids.NodeID) bool {
	if ps.voters[voter] {
		return false
	}
	ps.voters[voter] = true
	ps.order = append(ps.order, voter)
	return true
}

// Accumulator folds votes for AccumulatingEvents into consensus
// outcomes once a quorum of the current elder set agrees, mirroring
// the vote-counting half of what an external parsec gossip graph would
// otherwise do internally (spec 4.3). It is driven externally: callers
// feed it the events that local parsec polling yields as already
// having reached gossip-graph consensus among voters, then call Poll
// to find out which underlying events have now reached the elder
// quorum this epoch, so both layers of consensus use the same quorum
// definition.
type Accumulator struct {
	log   log.Logger
	sets  map[string]*proofSet
	order []string
}

// NewAccumulator constructs an empty accumulator.
func NewAccumulator(logger log.Logger) *Accumulator {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Accumulator{log: logger, sets: make(map[string]*proofSet)}
}

// AddProof records that voter has voted for e. It returns true the
// first time this (event, voter) pair is recorded; a duplicate vote
// from the same voter for the same event key is dropped (spec 7,
// DuplicateProof).
func (a *Accumulator) AddProof(e Event, voter ids.NodeID) bool {
	ps, ok := a.sets[e.Key]
	if !ok {
		ps = newProofSet(e)
		a.sets[e.Key] = ps
		a.order = append(a.order, e.Key)
	}
	return ps.addVote(voter)
}

// Poll returns every event that has reached quorum against elderCount
// but has not yet been returned by a previous Poll call, in the order
// their quorum-reaching vote was first recorded. StartDkg and
// DkgResult always require unanimous elder agreement; all other kinds
// require the default two-thirds-plus-one quorum.
func (a *Accumulator) Poll(elderCount int) []Event {
	var ready []Event
	for _, key := range a.order {
		ps := a.sets[key]
		if ps.accumulated {
			continue
		}
		need := quorumFor(ps.event.Kind, elderCount)
		if len(ps.voters) < need {
			continue
		}
		ps.accumulated = true
		ready = append(ready, ps.event)
	}
	return ready
}

// UnaccumulatedEvents returns the events still short of quorum, sorted
// by descending vote count then by key, for diagnostics and for the
// stalled-section detector.
func (a *Accumulator) UnaccumulatedEvents(elderCount int) []Event {
	type scored struct {
		e     Event
		votes int
	}
	var out []scored
	for _, key := range a.order {
		ps := a.sets[key]
		if ps.accumulated {
			continue
		}
		out = append(out, scored{e: ps.event, votes: len(ps.voters)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].votes != out[j].votes {
			return out[i].votes > out[j].votes
		}
		return out[i].e.Key < out[j].e.Key
	})
	events := make([]Event, len(out))
	for i, s := range out {
		events[i] = s.e
	}
	return events
}

// VoteCount returns how many distinct voters have proven e so far.
func (a *Accumulator) VoteCount(key string) int {
	ps, ok := a.sets[key]
	if !ok {
		return 0
	}
	return len(ps.voters)
}

// Voters returns the voters recorded for key, in vote order.
func (a *Accumulator) Voters(key string) []ids.NodeID {
	ps, ok := a.sets[key]
	if !ok {
		return nil
	}
	out := make([]ids.NodeID, len(ps.order))
	copy(out, ps.order)
	return out
}

// DetectUnresponsive returns the elders in current who have not voted
// for any event still short of quorum, i.e. candidates for the
// unresponsiveness-driven demotion path (spec 4.9).
func (a *Accumulator) DetectUnresponsive(current []ids.NodeID) []ids.NodeID {
	voted := make(map[ids.NodeID]bool)
	for _, key := range a.order {
		ps := a.sets[key]
		if ps.accumulated {
			continue
		}
		for voter := range ps.voters {
			voted[voter] = true
		}
	}
	var unresponsive []ids.NodeID
	for _, id := range current {
		if !voted[id] {
			unresponsive = append(unresponsive, id)
		}
	}
	return unresponsive
}

// ResetAccumulator discards every tracked proof set, used when parsec
// itself is reset across an elder-churn boundary (spec 4.3's
// AccumulatingEvent::ParsecPrune handling): votes cast under the old
// elder set cannot be carried over, since the quorum they were counted
// against no longer matches the new elder count.
func (a *Accumulator) ResetAccumulator() {
	a.log.Info("resetting event accumulator", "pending", len(a.sets))
	a.sets = make(map[string]*proofSet)
	a.order = nil
}

// Len reports how many distinct event keys are currently tracked,
// accumulated or not.
func (a *Accumulator) Len() int { return len(a.sets) }
