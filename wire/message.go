// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire defines the on-wire message envelope and variant
// vocabulary (spec 6): the canonical Src/Dst/Variant shapes every
// transport-level payload is built from, plus the length-prefixed
// binary encoding used to serialize them. Bit-exactness of the
// encoding matters: signatures are taken over these bytes.
package wire

import (
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"

	"github.com/luxfi/elders/chain"
	"github.com/luxfi/elders/keys"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/xorname"
)

// SrcKind discriminates a message's claimed origin.
type SrcKind int

const (
	SrcNode SrcKind = iota
	SrcSection
)

// Src is the tagged union of where a message claims to come from.
type Src struct {
	Kind      SrcKind
	NodeID    ids.NodeID      // SrcNode
	Prefix    xorname.Prefix  // SrcSection
	KeySet    *keys.PublicKeySet // SrcSection
	ShareOpt  *bls.Signature  // SrcSection, set only while a share is in flight pre-combination
}

// DstKind discriminates a message's routing destination.
type DstKind int

const (
	DstNode DstKind = iota
	DstSection
	DstPrefix
	DstDirect
)

// Dst is the tagged union of where a message is being sent.
type Dst struct {
	Kind    DstKind
	Name    xorname.Name   // DstNode, DstSection
	Prefix  xorname.Prefix // DstPrefix
	Addr    string         // DstDirect
}

// VariantKind discriminates the Variant union (spec 6).
type VariantKind int

const (
	VariantNodeApproval VariantKind = iota
	VariantGenesisUpdate
	VariantRelocate
	VariantMessageSignature
	VariantBootstrapRequest
	VariantBootstrapResponse
	VariantJoinRequest
	VariantNeighbourInfo
	VariantParsecPoke
	VariantParsecRequest
	VariantParsecResponse
	VariantBouncedUntrusted
	VariantBouncedUnknown
	VariantUserMessage
	VariantPing
)

// GenesisPrefixInfo is the state a newly-approved node needs to start
// participating: the current committee, its key, and the chain that
// proves that key.
type GenesisPrefixInfo struct {
	Info  section.EldersInfo
	Key   *bls.PublicKey
	Chain chain.ProofSlice
}

// BootstrapResponseKind discriminates BootstrapResponse's two shapes.
type BootstrapResponseKind int

const (
	BootstrapJoin BootstrapResponseKind = iota
	BootstrapRebootstrap
)

// BootstrapResponse is the reply to a BootstrapRequest: either the
// elders and key of the section a joiner should talk to, or a list of
// alternative addresses to retry against (the rebootstrap supplement,
// spec 3/9 original_source rebootstrap flow).
type BootstrapResponse struct {
	Kind     BootstrapResponseKind
	Elders   section.EldersInfo
	Key      *bls.PublicKey
	Rebootstrap []string
}

// SignedRelocateDetails pairs a RelocateDetails with the section
// signature proving the source section approved it.
type SignedRelocateDetails struct {
	Details   section.RelocateDetails
	Signature *bls.Signature
}

// AccumulatingMessage is a partially-signed section message still
// collecting shares in the sigaccum accumulator.
type AccumulatingMessage struct {
	Content PlainMessage
	Share   *bls.Signature
	Signer  ids.NodeID
}

// PlainMessage is an outbound message before it has been wrapped with
// a proof slice (spec 4.11, step 1).
type PlainMessage struct {
	SrcPrefix xorname.Prefix
	Dst       Dst
	DstKey    *bls.PublicKey
	Variant   Variant
}

// Variant is the payload carried by a Message, tagged by Kind; exactly
// one of the typed fields below is meaningful per Kind.
type Variant struct {
	Kind VariantKind

	NodeApproval      GenesisPrefixInfo
	GenesisUpdate     GenesisPrefixInfo
	Relocate          SignedRelocateDetails
	MessageSignature  AccumulatingMessage
	BootstrapRequest  xorname.Name
	BootstrapResponse BootstrapResponse
	JoinRequestSectionKey *bls.PublicKey
	NeighbourInfo     struct {
		Info  section.EldersInfo
		Nonce ids.ID
	}
	ParsecVersion    uint64
	ParsecPayload    []byte
	BouncedUntrusted struct {
		Inner        []byte
		LastKeyIndex uint64
	}
	BouncedUnknown struct {
		Bytes         []byte
		ParsecVersion uint64
	}
	UserMessage []byte
}

// Message is the full on-wire envelope (spec 6).
type Message struct {
	Src        Src
	Dst        Dst
	DstKey     *bls.PublicKey
	Variant    Variant
	ProofSlice chain.ProofSlice // only meaningful when Src.Kind == SrcSection
}
