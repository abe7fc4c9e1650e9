// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router computes delivery groups for outgoing messages and
// carries out the section-signed outbound flow (spec 4.10-4.11):
// given a destination and the current section/neighbour view, decide
// which peers to hand the bytes to and at what delivery-group size.
package router

import (
	"errors"
	"sort"

	"github.com/luxfi/warp"

	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/state"
	"github.com/luxfi/elders/wire"
	"github.com/luxfi/elders/xorname"
)

// Error is the router's base error type, matching the teacher's own
// core/router alias over the shared warp error type.
type Error = warp.Error

// ErrCannotRoute is returned when a Prefix destination is compatible
// with our view of the network but not fully covered by known
// sections, so no delivery group can be computed.
var ErrCannotRoute = errors.New("router: cannot route: destination not covered")

// Target is one address this transport should deliver bytes to.
type Target struct {
	Addr string
	Name xorname.Name
}

// DeliveryGroup is the result of resolving a Dst: the addresses to
// send to, and dg, the number of those sends required for the message
// to be considered delivered (signature target count for section
// messages, or a ceil(n/3)-sized fan-out for best-effort routing).
type DeliveryGroup struct {
	Targets []Target
	DG      int
}

func closestN(candidates []section.P2pNode, to xorname.Name, n int) []Target {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name.CloserTo(candidates[j].Name, to)
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]Target, n)
	for i := 0; i < n; i++ {
		out[i] = Target{Addr: candidates[i].Addr, Name: candidates[i].Name}
	}
	return out
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Router resolves destinations against a section's view of the world.
type Router struct {
	state  *state.SharedState
	ourID  xorname.Name
	allSections func() []section.EldersInfo
}

// New builds a Router bound to st's view of our section and
// neighbours. allSections, if non-nil, is consulted for Prefix and
// fallback Node/Section routing across the wider network; a nil value
// restricts routing decisions to our own section and its neighbours.
func New(st *state.SharedState, ourName xorname.Name, allSections func() []section.EldersInfo) *Router {
	return &Router{state: st, ourID: ourName, allSections: allSections}
}

func (r *Router) knownPeers() []section.P2pNode {
	info := r.state.OurInfo()
	out := make([]section.P2pNode, 0, len(info.Elders))
	for _, p := range info.Elders {
		out = append(out, p)
	}
	for _, prefix := range r.state.NeighbourPrefixes() {
		ni, ok := r.state.NeighbourInfo(prefix)
		if !ok {
			continue
		}
		for _, p := range ni.Elders {
			out = append(out, p)
		}
	}
	return out
}

func (r *Router) everyKnownElder() []section.P2pNode {
	out := r.knownPeers()
	if r.allSections == nil {
		return out
	}
	for _, info := range r.allSections() {
		for _, p := range info.Elders {
			out = append(out, p)
		}
	}
	return out
}

// ResolveNode implements spec 4.10's Node(name) destination rule.
func (r *Router) ResolveNode(name xorname.Name) (DeliveryGroup, error) {
	if name == r.ourID {
		return DeliveryGroup{Targets: []Target{{Name: name}}, DG: 1}, nil
	}
	for _, p := range r.knownPeers() {
		if p.Name == name {
			return DeliveryGroup{Targets: []Target{{Addr: p.Addr, Name: p.Name}}, DG: 1}, nil
		}
	}
	candidates := r.everyKnownElder()
	n := ceilDiv(len(candidates), 3)
	if n == 0 {
		return DeliveryGroup{}, ErrCannotRoute
	}
	return DeliveryGroup{Targets: closestN(candidates, name, n), DG: n}, nil
}

// ResolveSection implements spec 4.10's Section(name) destination
// rule: name identifies the section whose elders should receive the
// message, found by locating which prefix (ours, a neighbour's, or
// elsewhere) covers it.
func (r *Router) ResolveSection(name xorname.Name) (DeliveryGroup, error) {
	ourInfo := r.state.OurInfo()
	if ourInfo.Prefix.Matches(name) {
		var targets []Target
		for _, p := range ourInfo.OrderedElders() {
			if p.Name == r.ourID {
				continue
			}
			targets = append(targets, Target{Addr: p.Addr, Name: p.Name})
		}
		return DeliveryGroup{Targets: targets, DG: len(targets)}, nil
	}
	for _, prefix := range r.state.NeighbourPrefixes() {
		if !prefix.Matches(name) {
			continue
		}
		ni, ok := r.state.NeighbourInfo(prefix)
		if !ok {
			continue
		}
		var targets []Target
		for _, p := range ni.OrderedElders() {
			targets = append(targets, Target{Addr: p.Addr, Name: p.Name})
		}
		n := ceilDiv(len(targets), 3)
		if n == 0 {
			return DeliveryGroup{}, ErrCannotRoute
		}
		if n > len(targets) {
			n = len(targets)
		}
		return DeliveryGroup{Targets: targets[:n], DG: n}, nil
	}
	candidates := r.everyKnownElder()
	n := ceilDiv(len(candidates), 3)
	if n == 0 {
		return DeliveryGroup{}, ErrCannotRoute
	}
	return DeliveryGroup{Targets: closestN(candidates, name, n), DG: n}, nil
}

// ResolvePrefix implements spec 4.10's Prefix(p) destination rule.
func (r *Router) ResolvePrefix(p xorname.Prefix) (DeliveryGroup, error) {
	ourInfo := r.state.OurInfo()

	var compatible []section.EldersInfo
	var known []xorname.Prefix
	if ourInfo.Prefix.IsCompatible(p) {
		compatible = append(compatible, ourInfo)
		known = append(known, ourInfo.Prefix)
	}
	for _, prefix := range r.state.NeighbourPrefixes() {
		if !prefix.IsCompatible(p) {
			continue
		}
		if ni, ok := r.state.NeighbourInfo(prefix); ok {
			compatible = append(compatible, ni)
			known = append(known, prefix)
		}
	}

	if len(compatible) > 0 && p.IsCoveredBy(known) {
		var targets []Target
		for _, info := range compatible {
			for _, peer := range info.OrderedElders() {
				if peer.Name == r.ourID {
					continue
				}
				targets = append(targets, Target{Addr: peer.Addr, Name: peer.Name})
			}
		}
		return DeliveryGroup{Targets: targets, DG: len(targets)}, nil
	}
	if len(compatible) > 0 {
		return DeliveryGroup{}, ErrCannotRoute
	}

	candidates := r.everyKnownElder()
	n := ceilDiv(len(candidates), 3)
	if n == 0 {
		return DeliveryGroup{}, ErrCannotRoute
	}
	return DeliveryGroup{Targets: closestN(candidates, p.Name(), n), DG: n}, nil
}

// ResolveDirect implements spec 4.10's Direct destination: a single
// sender-supplied address, unconditionally.
func (r *Router) ResolveDirect(addr string) DeliveryGroup {
	return DeliveryGroup{Targets: []Target{{Addr: addr}}, DG: 1}
}

// Resolve dispatches to the matching Resolve* method by dst.Kind.
func (r *Router) Resolve(dst wire.Dst) (DeliveryGroup, error) {
	switch dst.Kind {
	case wire.DstNode:
		return r.ResolveNode(dst.Name)
	case wire.DstSection:
		return r.ResolveSection(dst.Name)
	case wire.DstPrefix:
		return r.ResolvePrefix(dst.Prefix)
	case wire.DstDirect:
		return r.ResolveDirect(dst.Addr), nil
	default:
		return DeliveryGroup{}, ErrCannotRoute
	}
}

// SignatureTargets returns our elders, the set whose shares we gather
// for any outbound section-signed message (spec 4.10's note on
// signature targets), and whether we are a member of that set.
func (r *Router) SignatureTargets() (elders []section.P2pNode, weAreElder bool) {
	info := r.state.OurInfo()
	elders = info.OrderedElders()
	weAreElder = info.IsElder(r.ourID)
	return elders, weAreElder
}

// ForwardToElders builds the delivery group used when we are not an
// elder and must forward an elder-only message to our own elders to
// let them resolve it (spec 4.10's final paragraph).
func (r *Router) ForwardToElders() DeliveryGroup {
	info := r.state.OurInfo()
	var targets []Target
	for _, p := range info.OrderedElders() {
		targets = append(targets, Target{Addr: p.Addr, Name: p.Name})
	}
	return DeliveryGroup{Targets: targets, DG: len(targets)}
}
