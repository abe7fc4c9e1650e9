// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xorname

import (
	"fmt"
	"strings"
)

// Prefix identifies a section as an initial run of bits of a Name.
// The zero value is the prefix of length 0, which matches every name
// (the root section before any split has occurred).
type Prefix struct {
	name Name   // only the first Len bits are significant
	len  uint16 // number of significant bits, 0 <= len <= Bits
}

// NewPrefix builds a Prefix from name, keeping only the first length bits.
func NewPrefix(name Name, length uint16) Prefix {
	if length > Bits {
		length = Bits
	}
	return Prefix{name: maskName(name, length), len: length}
}

func maskName(n Name, length uint16) Name {
	out := n
	for i := length; i < Bits; i++ {
		out = out.WithBit(i, false)
	}
	return out
}

// Len returns the number of significant bits in the prefix.
func (p Prefix) Len() uint16 { return p.len }

// Name returns the masked name backing this prefix (bits beyond Len
// are zero).
func (p Prefix) Name() Name { return p.name }

// Bit returns the value of the i-th bit of the prefix. i must be < Len.
func (p Prefix) Bit(i uint16) bool { return p.name.Bit(i) }

// Matches reports whether name agrees with p on all of p's significant
// bits. Every name matches exactly one prefix of a given length.
func (p Prefix) Matches(name Name) bool {
	return name.CommonPrefixLen(p.name) >= p.len
}

// IsCompatible reports whether one of p, other is a prefix of the
// other, i.e. the shorter one matches the longer one's name.
func (p Prefix) IsCompatible(other Prefix) bool {
	shorter, longer := p, other
	if longer.len < shorter.len {
		shorter, longer = longer, shorter
	}
	return shorter.Matches(longer.name)
}

// IsExtensionOf reports whether p is strictly longer than other and
// agrees with it on all of other's bits, i.e. p was produced by one
// or more splits of other.
func (p Prefix) IsExtensionOf(other Prefix) bool {
	return p.len > other.len && other.Matches(p.name)
}

// IsNeighbour reports whether p and other differ in exactly one bit
// position within the shorter of the two prefix lengths, and agree on
// every other bit up to that length. This is the standard
// "differ-by-one-bit" neighbour relation, for prefixes of any lengths, used to
// decide which sections must exchange `NeighbourInfo`.
func (p Prefix) IsNeighbour(other Prefix) bool {
	minLen := p.len
	if other.len < minLen {
		minLen = other.len
	}
	cpl := p.name.CommonPrefixLen(other.name)
	if cpl >= minLen {
		return false // identical over the shared length: compatible, not neighbours
	}
	// cpl is the first differing bit; flipping it must leave the two
	// names agreeing on every remaining bit up to minLen.
	flipped := p.name.WithBit(cpl, !p.name.Bit(cpl))
	return flipped.CommonPrefixLen(other.name) >= minLen
}

// Pushed returns the child prefix formed by appending bit to p.
func (p Prefix) Pushed(bit bool) Prefix {
	return NewPrefix(p.name.WithBit(p.len, bit), p.len+1)
}

// Popped returns the parent prefix formed by dropping p's last bit.
// Popping the zero-length prefix returns itself.
func (p Prefix) Popped() Prefix {
	if p.len == 0 {
		return p
	}
	return NewPrefix(p.name, p.len-1)
}

// Sibling returns the prefix of the same length that differs from p
// in exactly its last bit. The sibling of the zero-length prefix is
// itself (there is no sibling of the whole name space).
func (p Prefix) Sibling() Prefix {
	if p.len == 0 {
		return p
	}
	return NewPrefix(p.name.WithBit(p.len-1, !p.Bit(p.len-1)), p.len)
}

// WithFlippedBit returns the prefix of the same length with bit i
// flipped. i must be < Len.
func (p Prefix) WithFlippedBit(i uint16) Prefix {
	return NewPrefix(p.name.WithBit(i, !p.name.Bit(i)), p.len)
}

// IsCoveredBy reports whether the union of prefixes in others exactly
// covers p's name space: every name matching p matches exactly one
// prefix in others, and none of them is shorter than p (which would
// leave names outside the set unmatched by anything in others) in a
// way that fails to subdivide p.
func (p Prefix) IsCoveredBy(others []Prefix) bool {
	if len(others) == 0 {
		return false
	}
	for _, o := range others {
		if o.len < p.len || !o.IsCompatible(p) {
			continue
		}
		if o == p {
			return true
		}
	}
	if p.len >= Bits {
		// No shorter-or-equal prefix in others matched exactly above,
		// and p cannot be subdivided any further.
		return false
	}
	// Recurse on both children: covered iff both halves are covered.
	left := p.Pushed(false)
	right := p.Pushed(true)
	var relevant []Prefix
	for _, o := range others {
		if o.IsCompatible(left) || o.IsCompatible(right) {
			relevant = append(relevant, o)
		}
	}
	if len(relevant) == 0 {
		return false
	}
	return left.IsCoveredBy(relevant) && right.IsCoveredBy(relevant)
}

// String renders the prefix as its significant bits, e.g. "101".
func (p Prefix) String() string {
	var sb strings.Builder
	for i := uint16(0); i < p.len; i++ {
		if p.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ParsePrefix parses a bit-string produced by String.
func ParsePrefix(s string) (Prefix, error) {
	if len(s) > Bits {
		return Prefix{}, fmt.Errorf("xorname: prefix too long: %d bits", len(s))
	}
	var n Name
	for i, c := range s {
		switch c {
		case '1':
			n = n.WithBit(uint16(i), true)
		case '0':
		default:
			return Prefix{}, fmt.Errorf("xorname: invalid prefix character %q", c)
		}
	}
	return NewPrefix(n, uint16(len(s))), nil
}
