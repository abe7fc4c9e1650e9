// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package section holds the data types shared by the event, state,
// members and router packages: a peer's address-bound identity, the
// per-version elder committee of a section, and the details of a
// pending relocation.
package section

import (
	"sort"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"

	"github.com/luxfi/elders/keys"
	"github.com/luxfi/elders/xorname"
)

// P2pNode is a peer's address-bound identity: its transport-level
// node ID plus its XOR-metric routing name and last-known address.
type P2pNode struct {
	NodeID ids.NodeID
	Name   xorname.Name
	Addr   string
}

// EldersInfo describes one accepted version of a section's governing
// committee. Versions increase monotonically per prefix, and across a
// split a child's version equals the parent's version plus one.
type EldersInfo struct {
	Prefix  xorname.Prefix
	Version uint64
	Elders  map[xorname.Name]P2pNode
	KeySet  *keys.PublicKeySet
}

// OrderedElders returns the elders sorted by name, for deterministic
// iteration (signing order, gossip recipient order, wire encoding).
func (ei EldersInfo) OrderedElders() []P2pNode {
	out := make([]P2pNode, 0, len(ei.Elders))
	for _, p := range ei.Elders {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.Less(out[j].Name) })
	return out
}

// ElderIDs returns the node IDs of the elders, in name order.
func (ei EldersInfo) ElderIDs() []ids.NodeID {
	ordered := ei.OrderedElders()
	out := make([]ids.NodeID, len(ordered))
	for i, p := range ordered {
		out[i] = p.NodeID
	}
	return out
}

// IsElder reports whether name belongs to this committee.
func (ei EldersInfo) IsElder(name xorname.Name) bool {
	_, ok := ei.Elders[name]
	return ok
}

// RelocateDetails describes a pending relocation of one member to a
// new section.
type RelocateDetails struct {
	PubID          ids.NodeID
	Name           xorname.Name
	Destination    xorname.Name
	DestinationKey *bls.PublicKey
	Age            uint8
}
