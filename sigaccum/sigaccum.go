// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sigaccum collects per-elder signature shares for outbound
// section-signed messages until a quorum combines into a single BLS
// signature, then hands the fully-signed message off (spec 4.8).
package sigaccum

import (
	"errors"
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/elders/keys"
)

// DefaultTimeout is ACCUMULATION_TIMEOUT from spec 4.8.
const DefaultTimeout = 20 * time.Second

// ErrUnknownMessage is returned when a share arrives for a hash the
// accumulator has not been told to expect.
var ErrUnknownMessage = errors.New("sigaccum: unknown message hash")

// Pending is one outbound message awaiting its combined signature.
type Pending struct {
	Hash     [32]byte
	Payload  []byte
	Deadline time.Time
	Keys     *keys.PublicKeySet
	Quorum   int
	shares   []keys.Share
	seen     map[ids.NodeID]bool
}

// Accumulator tracks pending section-signed messages by hash.
type Accumulator struct {
	log     log.Logger
	pending map[[32]byte]*Pending
	now     func() time.Time
}

// New constructs an empty Accumulator. now defaults to time.Now; tests
// may override it for deterministic expiry.
func New(logger log.Logger, now func() time.Time) *Accumulator {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	if now == nil {
		now = time.Now
	}
	return &Accumulator{log: logger, pending: make(map[[32]byte]*Pending), now: now}
}

// Begin registers a new outbound message awaiting signature shares.
func (a *Accumulator) Begin(hash [32]byte, payload []byte, pks *keys.PublicKeySet, quorum int, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	a.pending[hash] = &Pending{
		Hash:     hash,
		Payload:  payload,
		Deadline: a.now().Add(timeout),
		Keys:     pks,
		Quorum:   quorum,
		seen:     make(map[ids.NodeID]bool),
	}
}

// AddShare records a signature share for hash from voter. When the
// share count reaches quorum it combines and verifies the full
// signature and returns it; otherwise it returns (nil, false, nil).
func (a *Accumulator) AddShare(hash [32]byte, voter ids.NodeID, share *bls.Signature) (*bls.Signature, bool, error) {
	p, ok := a.pending[hash]
	if !ok {
		return nil, false, ErrUnknownMessage
	}
	if p.seen[voter] {
		return nil, false, nil
	}
	p.seen[voter] = true
	p.shares = append(p.shares, keys.Share{NodeID: voter, Signature: share})

	if len(p.shares) < p.Quorum {
		return nil, false, nil
	}
	combined, err := keys.Combine(p.Keys, p.Payload, p.shares, p.Quorum)
	if err != nil {
		return nil, false, err
	}
	delete(a.pending, hash)
	return combined, true, nil
}

// ExpireStale drops every pending entry whose deadline has passed and
// returns their hashes, for diagnostics and metrics.
func (a *Accumulator) ExpireStale() [][32]byte {
	now := a.now()
	var expired [][32]byte
	for hash, p := range a.pending {
		if now.After(p.Deadline) {
			expired = append(expired, hash)
			delete(a.pending, hash)
		}
	}
	if len(expired) > 0 {
		a.log.Debug("expired pending section signatures", "count", len(expired))
	}
	return expired
}

// Len returns the number of messages currently awaiting signature.
func (a *Accumulator) Len() int { return len(a.pending) }
