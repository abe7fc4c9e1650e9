// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"encoding/binary"
	"errors"

	"github.com/luxfi/crypto/bls"

	"github.com/luxfi/elders/xorname"
)

// ErrTruncated is returned by decode functions when the input ends
// before a length-prefixed field is fully present.
var ErrTruncated = errors.New("wire: truncated message")

type encoder struct {
	buf []byte
}

func (e *encoder) putUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *encoder) putBytes(b []byte) {
	e.putUint64(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) putName(n xorname.Name) { e.buf = append(e.buf, n[:]...) }

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) uint64() (uint64, error) {
	if len(d.buf)-d.pos < 8 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.uint64()
	if err != nil {
		return nil, err
	}
	if uint64(len(d.buf)-d.pos) < n {
		return nil, ErrTruncated
	}
	out := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return append([]byte(nil), out...), nil
}

func (d *decoder) name() (xorname.Name, error) {
	var n xorname.Name
	if len(d.buf)-d.pos < xorname.Len {
		return n, ErrTruncated
	}
	copy(n[:], d.buf[d.pos:d.pos+xorname.Len])
	d.pos += xorname.Len
	return n, nil
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrTruncated
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// prefix reads a prefix encoded in EncodePrefix's fixed-width shape
// directly off the shared cursor, so callers composing a larger
// message need not round-trip through a nested byte slice.
func (d *decoder) prefix() (xorname.Prefix, error) {
	length, err := d.uint64()
	if err != nil {
		return xorname.Prefix{}, err
	}
	name, err := d.name()
	if err != nil {
		return xorname.Prefix{}, err
	}
	return xorname.NewPrefix(name, uint16(length)), nil
}

// EncodePrefix renders a prefix as its bit length followed by its
// masked name, for use wherever a prefix needs to travel on the wire.
// The result is always exactly 8+xorname.Len bytes, so it can be
// appended directly into a larger encoding without its own length
// prefix.
func EncodePrefix(p xorname.Prefix) []byte {
	e := &encoder{}
	e.putUint64(uint64(p.Len()))
	e.putName(p.Name())
	return e.buf
}

func (e *encoder) putPrefix(p xorname.Prefix) { e.buf = append(e.buf, EncodePrefix(p)...) }

// DecodePrefix is the inverse of EncodePrefix.
func DecodePrefix(b []byte) (xorname.Prefix, error) {
	d := &decoder{buf: b}
	return d.prefix()
}

// EncodePublicKey renders a BLS public key as its compressed bytes,
// length-prefixed so absence (nil) round-trips as a zero-length field.
func EncodePublicKey(pk *bls.PublicKey) []byte {
	if pk == nil {
		return (&encoder{}).buf
	}
	e := &encoder{}
	e.putBytes(bls.PublicKeyToCompressedBytes(pk))
	return e.buf
}

// DecodePublicKey is the inverse of EncodePublicKey. An empty input
// decodes to a nil key, round-tripping the absent-key case.
func DecodePublicKey(b []byte) (*bls.PublicKey, error) {
	if len(b) == 0 {
		return nil, nil
	}
	d := &decoder{buf: b}
	compressed, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return bls.PublicKeyFromCompressedBytes(compressed)
}

// EncodeSignature renders a BLS signature as its compressed bytes,
// mirroring EncodePublicKey's length-prefixed, nil-safe shape.
func EncodeSignature(sig *bls.Signature) []byte {
	if sig == nil {
		return (&encoder{}).buf
	}
	e := &encoder{}
	e.putBytes(bls.SignatureToCompressedBytes(sig))
	return e.buf
}

// DecodeSignature is the inverse of EncodeSignature.
func DecodeSignature(b []byte) (*bls.Signature, error) {
	if len(b) == 0 {
		return nil, nil
	}
	d := &decoder{buf: b}
	compressed, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return bls.SignatureFromCompressedBytes(compressed)
}

// EncodeUserMessage wraps an application payload as a canonical
// UserMessage variant body: just the length-prefixed bytes themselves,
// since User events carry no other structure.
func EncodeUserMessage(payload []byte) []byte {
	e := &encoder{}
	e.putBytes(payload)
	return e.buf
}

// DecodeUserMessage is the inverse of EncodeUserMessage.
func DecodeUserMessage(b []byte) ([]byte, error) {
	d := &decoder{buf: b}
	return d.bytes()
}

// EncodePing renders the zero-length Ping body.
func EncodePing() []byte { return nil }
