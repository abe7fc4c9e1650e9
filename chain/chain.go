// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain implements the append-only section chain: a sequence
// of BLS public keys, each signed by the previous, that lets a remote
// party verify a section's current key is descended from one it
// already trusts.
package chain

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/log"

	"github.com/luxfi/elders/elog"
	"github.com/luxfi/elders/keys"
)

// VerifyResult is the outcome of verifying a ProofSlice against a key
// the caller already trusts.
type VerifyResult int

const (
	// Invalid means a signature in the slice failed to verify.
	Invalid VerifyResult = iota
	// Unknown means the slice's first key isn't reachable from a key
	// the caller trusts.
	Unknown
	// Full means the slice starts at (or after) a trusted key and every
	// link verifies, proving the tip.
	Full
)

func (r VerifyResult) String() string {
	switch r {
	case Full:
		return "Full"
	case Unknown:
		return "Unknown"
	default:
		return "Invalid"
	}
}

// Chain is the append-only sequence of section key blocks for this
// node's own section history. Index 0 is genesis.
type Chain struct {
	blocks []ProofBlock
	log    log.Logger
}

// New constructs a chain seeded with a genesis block.
func New(genesis ProofBlock) *Chain {
	return &Chain{blocks: []ProofBlock{genesis}, log: elog.NewNoOpLogger()}
}

// Len returns the number of blocks in the chain.
func (c *Chain) Len() int { return len(c.blocks) }

// FirstKey returns the genesis key. It is immutable across the
// lifetime of the node (spec 3, SectionChain invariant c).
func (c *Chain) FirstKey() (*bls.PublicKey, error) {
	if len(c.blocks) == 0 {
		return nil, ErrEmptyChain
	}
	return c.blocks[0].KeyInfo.Key, nil
}

// LastKey returns the current section key.
func (c *Chain) LastKey() (*bls.PublicKey, error) {
	if len(c.blocks) == 0 {
		return nil, ErrEmptyChain
	}
	return c.blocks[len(c.blocks)-1].KeyInfo.Key, nil
}

// LastKeyIndex returns the index of the current section key.
func (c *Chain) LastKeyIndex() int { return len(c.blocks) - 1 }

// KeyAt returns the key at the given chain index.
func (c *Chain) KeyAt(index int) (*bls.PublicKey, error) {
	if index < 0 || index >= len(c.blocks) {
		return nil, fmt.Errorf("chain: index %d out of range [0,%d)", index, len(c.blocks))
	}
	return c.blocks[index].KeyInfo.Key, nil
}

// BlockAt returns the block at the given chain index.
func (c *Chain) BlockAt(index int) (ProofBlock, error) {
	if index < 0 || index >= len(c.blocks) {
		return ProofBlock{}, fmt.Errorf("chain: index %d out of range [0,%d)", index, len(c.blocks))
	}
	return c.blocks[index], nil
}

// Append adds a new key block, verifying its signature under the
// current tip's key and that its version strictly increases.
func (c *Chain) Append(block ProofBlock) error {
	if len(c.blocks) == 0 {
		return ErrEmptyChain
	}
	tip := c.blocks[len(c.blocks)-1]
	if block.KeyInfo.Version <= tip.KeyInfo.Version {
		err := fmt.Errorf("%w: version %d does not exceed tip version %d",
			ErrInvalidNewSectionKey, block.KeyInfo.Version, tip.KeyInfo.Version)
		elog.OrPanic(c.log, "chain append rejected a non-increasing version", "error", err)
		return err
	}
	msg := EncodeKeyInfo(block.KeyInfo)
	if !bls.Verify(tip.KeyInfo.Key, block.Signature, msg) {
		elog.OrPanic(c.log, "chain append rejected an invalid section key signature",
			"prefix", block.KeyInfo.Prefix.String(), "version", block.KeyInfo.Version)
		return ErrInvalidNewSectionKey
	}
	c.blocks = append(c.blocks, block)
	return nil
}

// SliceFrom returns the suffix of the chain starting at index.
func (c *Chain) SliceFrom(index int) ProofSlice {
	if index < 0 {
		index = 0
	}
	if index >= len(c.blocks) {
		return ProofSlice{}
	}
	out := make([]ProofBlock, len(c.blocks)-index)
	copy(out, c.blocks[index:])
	return ProofSlice{Blocks: out}
}

// Verify checks slice against a key the caller already trusts,
// returning Full, Unknown or Invalid per spec 4.2.
func Verify(slice ProofSlice, trustedKey *bls.PublicKey) VerifyResult {
	if len(slice.Blocks) == 0 {
		return Unknown
	}
	first := slice.Blocks[0]
	startsAtTrusted := keysEqual(first.KeyInfo.Key, trustedKey)
	switch {
	case startsAtTrusted:
		// slice starts at the trusted key itself; verify the rest.
	case bls.Verify(trustedKey, first.Signature, EncodeKeyInfo(first.KeyInfo)):
		// first block is signed by the trusted key: slice begins one
		// block after it.
	default:
		return Unknown
	}
	prevKey := trustedKey
	for i, block := range slice.Blocks {
		if i == 0 && startsAtTrusted {
			prevKey = block.KeyInfo.Key
			continue
		}
		if !bls.Verify(prevKey, block.Signature, EncodeKeyInfo(block.KeyInfo)) {
			return Invalid
		}
		prevKey = block.KeyInfo.Key
	}
	return Full
}

func keysEqual(a, b *bls.PublicKey) bool {
	if a == nil || b == nil {
		return a == b
	}
	return string(bls.PublicKeyToCompressedBytes(a)) == string(bls.PublicKeyToCompressedBytes(b))
}

// EncodeKeyInfo canonically encodes a KeyInfo for signing: a
// length-prefixed prefix string, an 8-byte little-endian version
// (matching wire/codec.go's encoding convention), then the compressed
// public key. Must be bit-exact across implementations for signatures
// to verify (spec 6).
func EncodeKeyInfo(ki KeyInfo) []byte {
	prefixStr := ki.Prefix.String()
	out := make([]byte, 0, len(prefixStr)+1+8+96)
	out = append(out, byte(len(prefixStr)))
	out = append(out, prefixStr...)
	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], ki.Version)
	out = append(out, v[:]...)
	if ki.Key != nil {
		out = append(out, bls.PublicKeyToCompressedBytes(ki.Key)...)
	}
	return out
}

// Combine aggregates quorum signature shares over ki into the
// signature needed for a ProofBlock extending the chain with ki.
func Combine(pks *keys.PublicKeySet, ki KeyInfo, shares []keys.Share, quorum int) (*bls.Signature, error) {
	return keys.Combine(pks, EncodeKeyInfo(ki), shares, quorum)
}
