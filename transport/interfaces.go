// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport is the thin adapter the approved-node loop sends
// bytes through (spec 5, 6): a narrow send/disconnect surface plus an
// inbound event stream, deliberately smaller than a general p2p stack
// since addressing, retry and peer discovery live below this layer.
package transport

import "context"

// EventKind discriminates the three inbound events spec 6 requires.
type EventKind int

const (
	// NewMessage carries inbound bytes from addr.
	NewMessage EventKind = iota
	// ConnectionFailure reports that a Send to addr could not be
	// delivered at the transport level (as opposed to PeerLost, which
	// reports an established connection dropping).
	ConnectionFailure
	// PeerLost reports that a previously connected peer at addr has
	// disconnected.
	PeerLost
)

func (k EventKind) String() string {
	switch k {
	case NewMessage:
		return "NewMessage"
	case ConnectionFailure:
		return "ConnectionFailure"
	case PeerLost:
		return "PeerLost"
	default:
		return "Unknown"
	}
}

// Event is one occurrence the approved-node loop reacts to.
type Event struct {
	Kind  EventKind
	Addr  string
	Bytes []byte
}

// EventHandler processes one inbound Event. Handlers run on the
// adapter's own goroutine and must not block (spec 5: "the core is
// single-threaded and cooperative" -- the handler's job is to hand
// the event to that single loop, not to act on it directly).
type EventHandler func(Event)

// Adapter is the external connection layer surface the core depends
// on. Implementations own real sockets, retries and peer discovery;
// this package only narrows that down to what the core needs.
type Adapter interface {
	// Send enqueues bytes to addr without blocking. Delivery is
	// best-effort; failure surfaces later as a ConnectionFailure event,
	// not as an error return.
	Send(addr string, bytes []byte)

	// Disconnect tears down any connection to addr. Best-effort.
	Disconnect(addr string)

	// RegisterHandler installs the function invoked for every inbound
	// Event. Only one handler is supported; registering a second one
	// replaces the first, matching the single-owner rule in spec 5's
	// "all per-node mutable state is owned by the approved loop".
	RegisterHandler(handler EventHandler)

	// Start begins accepting connections and delivering events.
	Start(ctx context.Context) error

	// Stop shuts the adapter down, releasing any held connections.
	Stop() error
}