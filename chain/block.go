// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/luxfi/crypto/bls"

	"github.com/luxfi/elders/xorname"
)

// KeyInfo identifies one version of a section's BLS public key.
// Versions increase monotonically per prefix; a split's child
// versions equal the parent's version plus one (spec 3, EldersInfo).
type KeyInfo struct {
	Prefix  xorname.Prefix
	Version uint64
	Key     *bls.PublicKey
}

// ProofBlock is one link in the chain: a KeyInfo plus the signature
// over its canonical encoding made by the *previous* block's key. The
// genesis block is considered signed by itself, by convention.
type ProofBlock struct {
	KeyInfo   KeyInfo
	Signature *bls.Signature
}

// ProofSlice is a contiguous window of proof blocks, used to prove a
// chain tip to a party that only trusts an earlier key.
type ProofSlice struct {
	Blocks []ProofBlock
}
