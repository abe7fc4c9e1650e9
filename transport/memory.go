// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"context"
	"sync"
)

// registry lets independently-constructed Loopback adapters in the
// same process address each other by addr, the way a real transport's
// DNS/peer table would. Tests and single-process demos share one.
type registry struct {
	mu    sync.Mutex
	peers map[string]*Loopback
}

func newRegistry() *registry { return &registry{peers: make(map[string]*Loopback)} }

func (r *registry) register(addr string, l *Loopback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[addr] = l
}

func (r *registry) lookup(addr string) (*Loopback, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.peers[addr]
	return l, ok
}

// Loopback is an in-process Adapter implementation: Send delivers
// directly to another Loopback registered under the destination addr
// in the same Network. It exists for tests and single-process demos
// (cmd/elderd's local mode); a real deployment substitutes a socket-
// backed Adapter behind the same interface.
type Loopback struct {
	addr     string
	net      *registry
	mu       sync.Mutex
	handler  EventHandler
	stopped  bool
}

// Network groups Loopback adapters that can reach each other.
type Network struct {
	reg *registry
}

// NewNetwork creates an empty loopback network.
func NewNetwork() *Network { return &Network{reg: newRegistry()} }

// NewAdapter registers and returns a Loopback bound to addr within n.
func (n *Network) NewAdapter(addr string) *Loopback {
	l := &Loopback{addr: addr, net: n.reg}
	n.reg.register(addr, l)
	return l
}

// Send implements Adapter. Delivery to an unregistered addr reports a
// ConnectionFailure event back to the sender rather than returning an
// error, matching spec 6's "best-effort, failures surface as events".
func (l *Loopback) Send(addr string, bytes []byte) {
	peer, ok := l.net.lookup(addr)
	if !ok {
		l.deliver(Event{Kind: ConnectionFailure, Addr: addr})
		return
	}
	peer.deliver(Event{Kind: NewMessage, Addr: l.addr, Bytes: bytes})
}

// Disconnect implements Adapter by notifying the peer, if reachable,
// that we are dropping it.
func (l *Loopback) Disconnect(addr string) {
	if peer, ok := l.net.lookup(addr); ok {
		peer.deliver(Event{Kind: PeerLost, Addr: l.addr})
	}
}

// RegisterHandler implements Adapter.
func (l *Loopback) RegisterHandler(handler EventHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = handler
}

// Start implements Adapter; a Loopback has nothing to listen for, so
// this only observes ctx cancellation to call Stop.
func (l *Loopback) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = l.Stop()
	}()
	return nil
}

// Stop implements Adapter.
func (l *Loopback) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	return nil
}

func (l *Loopback) deliver(ev Event) {
	l.mu.Lock()
	handler, stopped := l.handler, l.stopped
	l.mu.Unlock()
	if stopped || handler == nil {
		return
	}
	handler(ev)
}
