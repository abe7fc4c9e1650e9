// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package keys composes github.com/luxfi/crypto/bls into the section's
// threshold key material: a PublicKeySet shared by every elder and, for
// elders only, a SecretKeyShare. No cryptographic construction is
// invented here -- key generation, share signing and aggregation are
// all delegated to github.com/luxfi/crypto/bls; this package only
// threads the shares produced by a DKG round through the quorum rule
// the section-membership subsystem needs.
package keys

import (
	"errors"
	"fmt"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
)

// ErrInsufficientShares is returned when fewer than quorum shares were
// supplied to Combine.
var ErrInsufficientShares = errors.New("keys: insufficient signature shares for quorum")

// ErrCombinedSignatureInvalid is returned when the combined signature
// does not verify under the claimed public key.
var ErrCombinedSignatureInvalid = errors.New("keys: combined signature does not verify")

// PublicKeySet is the public half of a section's threshold key
// material: every elder's individual public key plus the aggregate
// "section key" that proof slices are verified against.
type PublicKeySet struct {
	PublicKey   *bls.PublicKey            // aggregate section key
	ByElder     map[ids.NodeID]*bls.PublicKey
}

// SecretKeyShare is the secret material an elder uses to sign on
// behalf of the section. It is never shared with another node or task
// (spec 5, "Shared resources").
type SecretKeyShare struct {
	NodeID ids.NodeID
	Secret *bls.SecretKey
}

// Sign produces this elder's signature share over msg.
func (s *SecretKeyShare) Sign(msg []byte) (*bls.Signature, error) {
	if s == nil || s.Secret == nil {
		return nil, errors.New("keys: no secret key share held")
	}
	return s.Secret.Sign(msg)
}

// Share is one elder's signature contribution toward a combined
// section signature.
type Share struct {
	NodeID    ids.NodeID
	Signature *bls.Signature
}

// Combine aggregates shares into a single signature and verifies it
// against pks.PublicKey. It fails if fewer than quorum distinct
// elders contributed, or if the aggregate does not verify -- mirrors
// Chain::check_and_combine_signatures in the original routing source.
func Combine(pks *PublicKeySet, msg []byte, shares []Share, quorum int) (*bls.Signature, error) {
	seen := make(map[ids.NodeID]struct{}, len(shares))
	sigs := make([]*bls.Signature, 0, len(shares))
	for _, sh := range shares {
		if _, ok := pks.ByElder[sh.NodeID]; !ok {
			continue // not a current elder: ignore stale or malicious contribution
		}
		if _, dup := seen[sh.NodeID]; dup {
			continue
		}
		seen[sh.NodeID] = struct{}{}
		sigs = append(sigs, sh.Signature)
	}
	if len(sigs) < quorum {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientShares, len(sigs), quorum)
	}
	combined, err := bls.AggregateSignatures(sigs)
	if err != nil {
		return nil, fmt.Errorf("keys: aggregate signatures: %w", err)
	}
	if !bls.Verify(pks.PublicKey, combined, msg) {
		return nil, ErrCombinedSignatureInvalid
	}
	return combined, nil
}

// DkgResult is the output of a distributed-key-generation round run by
// the gossip/BFT black box for a candidate elder set.
type DkgResult struct {
	Participants []ids.NodeID
	PublicKeySet *PublicKeySet
	// Shares holds the secret share for whichever of Participants is
	// the local node, if the local node took part.
	Shares map[ids.NodeID]*SecretKeyShare
}

// Provider holds the current section key set plus our own secret
// share, if we are an elder, and caches DKG results that have not yet
// been finalised into a new EldersInfo (spec 4.7).
type Provider struct {
	our       ids.NodeID
	current   *PublicKeySet
	ourShare  *SecretKeyShare
	dkgByLead map[ids.NodeID]DkgResult // keyed by first participant, per spec
}

// NewProvider constructs a key provider seeded with the genesis key set.
func NewProvider(our ids.NodeID, genesis *PublicKeySet, ourShare *SecretKeyShare) *Provider {
	return &Provider{
		our:       our,
		current:   genesis,
		ourShare:  ourShare,
		dkgByLead: make(map[ids.NodeID]DkgResult),
	}
}

// PublicKeySet returns the current section public key set.
func (p *Provider) PublicKeySet() *PublicKeySet { return p.current }

// SecretKeyShare returns our secret key share, if we currently hold one.
func (p *Provider) SecretKeyShare() (*SecretKeyShare, error) {
	if p.ourShare == nil {
		return nil, errors.New("keys: this node holds no secret key share")
	}
	return p.ourShare, nil
}

// HandleDkgResultEvent caches a DKG result by its first participant,
// as the source does, so FinaliseDkg can later look it up once the
// corresponding EldersInfo accumulates.
func (p *Provider) HandleDkgResultEvent(participants []ids.NodeID, result DkgResult) {
	if len(participants) == 0 {
		return
	}
	p.dkgByLead[participants[0]] = result
}

// FinaliseDkg selects the key set produced for newElders (identified
// by its first elder, by convention matching HandleDkgResultEvent),
// installs it as current, and updates our secret share if we are a
// member of the new elder set.
func (p *Provider) FinaliseDkg(lead ids.NodeID) (*PublicKeySet, error) {
	result, ok := p.dkgByLead[lead]
	if !ok {
		return nil, fmt.Errorf("keys: no cached dkg result for lead %s", lead)
	}
	delete(p.dkgByLead, lead)
	p.current = result.PublicKeySet
	if share, ok := result.Shares[p.our]; ok {
		p.ourShare = share
	} else {
		p.ourShare = nil
	}
	return p.current, nil
}
