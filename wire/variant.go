// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"fmt"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"

	"github.com/luxfi/elders/chain"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/xorname"
)

// encodeNodeID and encodeID render the transport-level identifiers
// luxfi/ids hands out as their raw bytes, length-prefixed like every
// other field on the wire.
func encodeNodeID(e *encoder, id ids.NodeID) { e.putBytes(id.Bytes()) }

func decodeNodeID(d *decoder) (ids.NodeID, error) {
	b, err := d.bytes()
	if err != nil {
		return ids.NodeID{}, err
	}
	return ids.ToNodeID(b)
}

func encodeID(e *encoder, id ids.ID) { e.putBytes(id.Bytes()) }

func decodeID(d *decoder) (ids.ID, error) {
	b, err := d.bytes()
	if err != nil {
		return ids.ID{}, err
	}
	return ids.ToID(b)
}

func encodeP2pNode(e *encoder, p section.P2pNode) {
	encodeNodeID(e, p.NodeID)
	e.putName(p.Name)
	e.putBytes([]byte(p.Addr))
}

func decodeP2pNode(d *decoder) (section.P2pNode, error) {
	nodeID, err := decodeNodeID(d)
	if err != nil {
		return section.P2pNode{}, err
	}
	name, err := d.name()
	if err != nil {
		return section.P2pNode{}, err
	}
	addr, err := d.bytes()
	if err != nil {
		return section.P2pNode{}, err
	}
	return section.P2pNode{NodeID: nodeID, Name: name, Addr: string(addr)}, nil
}

// encodeEldersInfo intentionally omits EldersInfo.KeySet: the aggregate
// section key already travels alongside in GenesisPrefixInfo.Key /
// BootstrapResponse.Key, and the per-elder share map has no receiver on
// the wire that needs it.
func encodeEldersInfo(e *encoder, info section.EldersInfo) {
	e.putPrefix(info.Prefix)
	e.putUint64(info.Version)
	ordered := info.OrderedElders()
	e.putUint64(uint64(len(ordered)))
	for _, p := range ordered {
		encodeP2pNode(e, p)
	}
}

func decodeEldersInfo(d *decoder) (section.EldersInfo, error) {
	prefix, err := d.prefix()
	if err != nil {
		return section.EldersInfo{}, err
	}
	version, err := d.uint64()
	if err != nil {
		return section.EldersInfo{}, err
	}
	count, err := d.uint64()
	if err != nil {
		return section.EldersInfo{}, err
	}
	elders := make(map[xorname.Name]section.P2pNode, count)
	for i := uint64(0); i < count; i++ {
		p, err := decodeP2pNode(d)
		if err != nil {
			return section.EldersInfo{}, err
		}
		elders[p.Name] = p
	}
	return section.EldersInfo{Prefix: prefix, Version: version, Elders: elders}, nil
}

func encodeKeyInfo(e *encoder, ki chain.KeyInfo) {
	e.putPrefix(ki.Prefix)
	e.putUint64(ki.Version)
	e.putBytes(EncodePublicKey(ki.Key))
}

func decodeKeyInfo(d *decoder) (chain.KeyInfo, error) {
	prefix, err := d.prefix()
	if err != nil {
		return chain.KeyInfo{}, err
	}
	version, err := d.uint64()
	if err != nil {
		return chain.KeyInfo{}, err
	}
	keyBytes, err := d.bytes()
	if err != nil {
		return chain.KeyInfo{}, err
	}
	key, err := DecodePublicKey(keyBytes)
	if err != nil {
		return chain.KeyInfo{}, err
	}
	return chain.KeyInfo{Prefix: prefix, Version: version, Key: key}, nil
}

func encodeProofBlock(e *encoder, b chain.ProofBlock) {
	encodeKeyInfo(e, b.KeyInfo)
	e.putBytes(EncodeSignature(b.Signature))
}

func decodeProofBlock(d *decoder) (chain.ProofBlock, error) {
	ki, err := decodeKeyInfo(d)
	if err != nil {
		return chain.ProofBlock{}, err
	}
	sigBytes, err := d.bytes()
	if err != nil {
		return chain.ProofBlock{}, err
	}
	sig, err := DecodeSignature(sigBytes)
	if err != nil {
		return chain.ProofBlock{}, err
	}
	return chain.ProofBlock{KeyInfo: ki, Signature: sig}, nil
}

func encodeProofSlice(e *encoder, s chain.ProofSlice) {
	e.putUint64(uint64(len(s.Blocks)))
	for _, b := range s.Blocks {
		encodeProofBlock(e, b)
	}
}

func decodeProofSlice(d *decoder) (chain.ProofSlice, error) {
	count, err := d.uint64()
	if err != nil {
		return chain.ProofSlice{}, err
	}
	blocks := make([]chain.ProofBlock, 0, count)
	for i := uint64(0); i < count; i++ {
		b, err := decodeProofBlock(d)
		if err != nil {
			return chain.ProofSlice{}, err
		}
		blocks = append(blocks, b)
	}
	return chain.ProofSlice{Blocks: blocks}, nil
}

func encodeGenesisPrefixInfo(e *encoder, info GenesisPrefixInfo) {
	encodeEldersInfo(e, info.Info)
	e.putBytes(EncodePublicKey(info.Key))
	encodeProofSlice(e, info.Chain)
}

func decodeGenesisPrefixInfo(d *decoder) (GenesisPrefixInfo, error) {
	info, err := decodeEldersInfo(d)
	if err != nil {
		return GenesisPrefixInfo{}, err
	}
	keyBytes, err := d.bytes()
	if err != nil {
		return GenesisPrefixInfo{}, err
	}
	key, err := DecodePublicKey(keyBytes)
	if err != nil {
		return GenesisPrefixInfo{}, err
	}
	chainSlice, err := decodeProofSlice(d)
	if err != nil {
		return GenesisPrefixInfo{}, err
	}
	return GenesisPrefixInfo{Info: info, Key: key, Chain: chainSlice}, nil
}

func encodeRelocateDetails(e *encoder, d section.RelocateDetails) {
	encodeNodeID(e, d.PubID)
	e.putName(d.Name)
	e.putName(d.Destination)
	e.putBytes(EncodePublicKey(d.DestinationKey))
	e.buf = append(e.buf, d.Age)
}

func decodeRelocateDetails(d *decoder) (section.RelocateDetails, error) {
	pubID, err := decodeNodeID(d)
	if err != nil {
		return section.RelocateDetails{}, err
	}
	name, err := d.name()
	if err != nil {
		return section.RelocateDetails{}, err
	}
	destination, err := d.name()
	if err != nil {
		return section.RelocateDetails{}, err
	}
	keyBytes, err := d.bytes()
	if err != nil {
		return section.RelocateDetails{}, err
	}
	key, err := DecodePublicKey(keyBytes)
	if err != nil {
		return section.RelocateDetails{}, err
	}
	age, err := d.readByte()
	if err != nil {
		return section.RelocateDetails{}, err
	}
	return section.RelocateDetails{PubID: pubID, Name: name, Destination: destination, DestinationKey: key, Age: age}, nil
}

// EncodeNodeApproval and EncodeGenesisUpdate share GenesisPrefixInfo's
// shape; both variants hand a freshly-joined or freshly-split node the
// same bootstrap state.
func EncodeNodeApproval(info GenesisPrefixInfo) []byte {
	e := &encoder{}
	encodeGenesisPrefixInfo(e, info)
	return e.buf
}

func DecodeNodeApproval(b []byte) (GenesisPrefixInfo, error) {
	return decodeGenesisPrefixInfo(&decoder{buf: b})
}

func EncodeGenesisUpdate(info GenesisPrefixInfo) []byte { return EncodeNodeApproval(info) }

func DecodeGenesisUpdate(b []byte) (GenesisPrefixInfo, error) { return DecodeNodeApproval(b) }

// EncodeRelocate renders a SignedRelocateDetails.
func EncodeRelocate(r SignedRelocateDetails) []byte {
	e := &encoder{}
	encodeRelocateDetails(e, r.Details)
	e.putBytes(EncodeSignature(r.Signature))
	return e.buf
}

func DecodeRelocate(b []byte) (SignedRelocateDetails, error) {
	d := &decoder{buf: b}
	details, err := decodeRelocateDetails(d)
	if err != nil {
		return SignedRelocateDetails{}, err
	}
	sigBytes, err := d.bytes()
	if err != nil {
		return SignedRelocateDetails{}, err
	}
	sig, err := DecodeSignature(sigBytes)
	if err != nil {
		return SignedRelocateDetails{}, err
	}
	return SignedRelocateDetails{Details: details, Signature: sig}, nil
}

// EncodeBootstrapRequest renders the name a joiner is bootstrapping as.
func EncodeBootstrapRequest(name xorname.Name) []byte {
	e := &encoder{}
	e.putName(name)
	return e.buf
}

func DecodeBootstrapRequest(b []byte) (xorname.Name, error) {
	return (&decoder{buf: b}).name()
}

// EncodeBootstrapResponse renders either shape of BootstrapResponse,
// discriminated by its leading Kind tag.
func EncodeBootstrapResponse(r BootstrapResponse) []byte {
	e := &encoder{}
	e.putUint64(uint64(r.Kind))
	switch r.Kind {
	case BootstrapJoin:
		encodeEldersInfo(e, r.Elders)
		e.putBytes(EncodePublicKey(r.Key))
	case BootstrapRebootstrap:
		e.putUint64(uint64(len(r.Rebootstrap)))
		for _, addr := range r.Rebootstrap {
			e.putBytes([]byte(addr))
		}
	}
	return e.buf
}

func DecodeBootstrapResponse(b []byte) (BootstrapResponse, error) {
	d := &decoder{buf: b}
	kind, err := d.uint64()
	if err != nil {
		return BootstrapResponse{}, err
	}
	r := BootstrapResponse{Kind: BootstrapResponseKind(kind)}
	switch r.Kind {
	case BootstrapJoin:
		elders, err := decodeEldersInfo(d)
		if err != nil {
			return BootstrapResponse{}, err
		}
		keyBytes, err := d.bytes()
		if err != nil {
			return BootstrapResponse{}, err
		}
		key, err := DecodePublicKey(keyBytes)
		if err != nil {
			return BootstrapResponse{}, err
		}
		r.Elders, r.Key = elders, key
	case BootstrapRebootstrap:
		count, err := d.uint64()
		if err != nil {
			return BootstrapResponse{}, err
		}
		r.Rebootstrap = make([]string, 0, count)
		for i := uint64(0); i < count; i++ {
			addr, err := d.bytes()
			if err != nil {
				return BootstrapResponse{}, err
			}
			r.Rebootstrap = append(r.Rebootstrap, string(addr))
		}
	default:
		return BootstrapResponse{}, fmt.Errorf("wire: unknown bootstrap response kind %d", kind)
	}
	return r, nil
}

// EncodeJoinRequest renders the section key a candidate believes it is
// joining under.
func EncodeJoinRequest(sectionKey *bls.PublicKey) []byte { return EncodePublicKey(sectionKey) }

func DecodeJoinRequest(b []byte) (*bls.PublicKey, error) { return DecodePublicKey(b) }

// EncodeNeighbourInfo renders a section's current committee plus the
// nonce the recipient should echo back (spec 4.8 neighbour gossip).
func EncodeNeighbourInfo(info section.EldersInfo, nonce ids.ID) []byte {
	e := &encoder{}
	encodeEldersInfo(e, info)
	encodeID(e, nonce)
	return e.buf
}

func DecodeNeighbourInfo(b []byte) (section.EldersInfo, ids.ID, error) {
	d := &decoder{buf: b}
	info, err := decodeEldersInfo(d)
	if err != nil {
		return section.EldersInfo{}, ids.ID{}, err
	}
	nonce, err := decodeID(d)
	if err != nil {
		return section.EldersInfo{}, ids.ID{}, err
	}
	return info, nonce, nil
}

// EncodeParsecPayload renders the shared shape of the parsec gossip
// variants (Poke carries only the version; Request/Response also carry
// the gossip payload bytes).
func EncodeParsecPayload(version uint64, payload []byte) []byte {
	e := &encoder{}
	e.putUint64(version)
	e.putBytes(payload)
	return e.buf
}

func DecodeParsecPayload(b []byte) (uint64, []byte, error) {
	d := &decoder{buf: b}
	version, err := d.uint64()
	if err != nil {
		return 0, nil, err
	}
	payload, err := d.bytes()
	if err != nil {
		return 0, nil, err
	}
	return version, payload, nil
}

func EncodeBouncedUntrusted(inner []byte, lastKeyIndex uint64) []byte {
	e := &encoder{}
	e.putBytes(inner)
	e.putUint64(lastKeyIndex)
	return e.buf
}

func DecodeBouncedUntrusted(b []byte) (inner []byte, lastKeyIndex uint64, err error) {
	d := &decoder{buf: b}
	if inner, err = d.bytes(); err != nil {
		return nil, 0, err
	}
	if lastKeyIndex, err = d.uint64(); err != nil {
		return nil, 0, err
	}
	return inner, lastKeyIndex, nil
}

func EncodeBouncedUnknown(raw []byte, parsecVersion uint64) []byte {
	e := &encoder{}
	e.putBytes(raw)
	e.putUint64(parsecVersion)
	return e.buf
}

func DecodeBouncedUnknown(b []byte) (raw []byte, parsecVersion uint64, err error) {
	d := &decoder{buf: b}
	if raw, err = d.bytes(); err != nil {
		return nil, 0, err
	}
	if parsecVersion, err = d.uint64(); err != nil {
		return nil, 0, err
	}
	return raw, parsecVersion, nil
}

// EncodeVariant renders a full Variant, prefixed with its Kind tag, so
// a decoder can dispatch without out-of-band context.
func EncodeVariant(v Variant) ([]byte, error) {
	e := &encoder{}
	e.putUint64(uint64(v.Kind))
	switch v.Kind {
	case VariantNodeApproval:
		e.buf = append(e.buf, EncodeNodeApproval(v.NodeApproval)...)
	case VariantGenesisUpdate:
		e.buf = append(e.buf, EncodeGenesisUpdate(v.GenesisUpdate)...)
	case VariantRelocate:
		e.buf = append(e.buf, EncodeRelocate(v.Relocate)...)
	case VariantBootstrapRequest:
		e.buf = append(e.buf, EncodeBootstrapRequest(v.BootstrapRequest)...)
	case VariantBootstrapResponse:
		e.buf = append(e.buf, EncodeBootstrapResponse(v.BootstrapResponse)...)
	case VariantJoinRequest:
		e.buf = append(e.buf, EncodeJoinRequest(v.JoinRequestSectionKey)...)
	case VariantNeighbourInfo:
		e.buf = append(e.buf, EncodeNeighbourInfo(v.NeighbourInfo.Info, v.NeighbourInfo.Nonce)...)
	case VariantParsecPoke, VariantParsecRequest, VariantParsecResponse:
		e.buf = append(e.buf, EncodeParsecPayload(v.ParsecVersion, v.ParsecPayload)...)
	case VariantBouncedUntrusted:
		e.buf = append(e.buf, EncodeBouncedUntrusted(v.BouncedUntrusted.Inner, v.BouncedUntrusted.LastKeyIndex)...)
	case VariantBouncedUnknown:
		e.buf = append(e.buf, EncodeBouncedUnknown(v.BouncedUnknown.Bytes, v.BouncedUnknown.ParsecVersion)...)
	case VariantUserMessage:
		e.buf = append(e.buf, EncodeUserMessage(v.UserMessage)...)
	case VariantPing:
		e.buf = append(e.buf, EncodePing()...)
	default:
		return nil, fmt.Errorf("wire: variant kind %d has no wire encoding", v.Kind)
	}
	return e.buf, nil
}

// DecodeVariant is the inverse of EncodeVariant.
func DecodeVariant(b []byte) (Variant, error) {
	d := &decoder{buf: b}
	kindRaw, err := d.uint64()
	if err != nil {
		return Variant{}, err
	}
	kind := VariantKind(kindRaw)
	rest := d.buf[d.pos:]
	v := Variant{Kind: kind}
	switch kind {
	case VariantNodeApproval:
		v.NodeApproval, err = DecodeNodeApproval(rest)
	case VariantGenesisUpdate:
		v.GenesisUpdate, err = DecodeGenesisUpdate(rest)
	case VariantRelocate:
		v.Relocate, err = DecodeRelocate(rest)
	case VariantBootstrapRequest:
		v.BootstrapRequest, err = DecodeBootstrapRequest(rest)
	case VariantBootstrapResponse:
		v.BootstrapResponse, err = DecodeBootstrapResponse(rest)
	case VariantJoinRequest:
		v.JoinRequestSectionKey, err = DecodeJoinRequest(rest)
	case VariantNeighbourInfo:
		v.NeighbourInfo.Info, v.NeighbourInfo.Nonce, err = DecodeNeighbourInfo(rest)
	case VariantParsecPoke, VariantParsecRequest, VariantParsecResponse:
		v.ParsecVersion, v.ParsecPayload, err = DecodeParsecPayload(rest)
	case VariantBouncedUntrusted:
		v.BouncedUntrusted.Inner, v.BouncedUntrusted.LastKeyIndex, err = DecodeBouncedUntrusted(rest)
	case VariantBouncedUnknown:
		v.BouncedUnknown.Bytes, v.BouncedUnknown.ParsecVersion, err = DecodeBouncedUnknown(rest)
	case VariantUserMessage:
		v.UserMessage, err = DecodeUserMessage(rest)
	case VariantPing:
	default:
		return Variant{}, fmt.Errorf("wire: unknown variant kind %d", kind)
	}
	if err != nil {
		return Variant{}, err
	}
	return v, nil
}

func encodeSrc(e *encoder, s Src) {
	e.putUint64(uint64(s.Kind))
	switch s.Kind {
	case SrcNode:
		encodeNodeID(e, s.NodeID)
	case SrcSection:
		e.putPrefix(s.Prefix)
	}
}

func decodeSrc(d *decoder) (Src, error) {
	kindRaw, err := d.uint64()
	if err != nil {
		return Src{}, err
	}
	s := Src{Kind: SrcKind(kindRaw)}
	switch s.Kind {
	case SrcNode:
		s.NodeID, err = decodeNodeID(d)
	case SrcSection:
		s.Prefix, err = d.prefix()
	default:
		return Src{}, fmt.Errorf("wire: unknown src kind %d", kindRaw)
	}
	if err != nil {
		return Src{}, err
	}
	return s, nil
}

func encodeDst(e *encoder, dst Dst) {
	e.putUint64(uint64(dst.Kind))
	switch dst.Kind {
	case DstNode, DstSection:
		e.putName(dst.Name)
	case DstPrefix:
		e.putPrefix(dst.Prefix)
	case DstDirect:
		e.putBytes([]byte(dst.Addr))
	}
}

func decodeDst(d *decoder) (Dst, error) {
	kindRaw, err := d.uint64()
	if err != nil {
		return Dst{}, err
	}
	dst := Dst{Kind: DstKind(kindRaw)}
	switch dst.Kind {
	case DstNode, DstSection:
		dst.Name, err = d.name()
	case DstPrefix:
		dst.Prefix, err = d.prefix()
	case DstDirect:
		var addr []byte
		addr, err = d.bytes()
		dst.Addr = string(addr)
	default:
		return Dst{}, fmt.Errorf("wire: unknown dst kind %d", kindRaw)
	}
	if err != nil {
		return Dst{}, err
	}
	return dst, nil
}

// EncodeMessage renders the full on-wire envelope (spec 6). Src.KeySet
// and Src.ShareOpt are process-local signing bookkeeping and never
// cross the wire.
func EncodeMessage(m Message) ([]byte, error) {
	e := &encoder{}
	encodeSrc(e, m.Src)
	encodeDst(e, m.Dst)
	e.putBytes(EncodePublicKey(m.DstKey))
	variantBytes, err := EncodeVariant(m.Variant)
	if err != nil {
		return nil, err
	}
	e.putBytes(variantBytes)
	encodeProofSlice(e, m.ProofSlice)
	return e.buf, nil
}

// DecodeMessage is the inverse of EncodeMessage.
func DecodeMessage(b []byte) (Message, error) {
	d := &decoder{buf: b}
	src, err := decodeSrc(d)
	if err != nil {
		return Message{}, err
	}
	dst, err := decodeDst(d)
	if err != nil {
		return Message{}, err
	}
	dstKeyBytes, err := d.bytes()
	if err != nil {
		return Message{}, err
	}
	dstKey, err := DecodePublicKey(dstKeyBytes)
	if err != nil {
		return Message{}, err
	}
	variantBytes, err := d.bytes()
	if err != nil {
		return Message{}, err
	}
	variant, err := DecodeVariant(variantBytes)
	if err != nil {
		return Message{}, err
	}
	proofSlice, err := decodeProofSlice(d)
	if err != nil {
		return Message{}, err
	}
	return Message{Src: src, Dst: dst, DstKey: dstKey, Variant: variant, ProofSlice: proofSlice}, nil
}
