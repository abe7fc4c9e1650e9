// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopbackDeliversToRegisteredPeer(t *testing.T) {
	require := require.New(t)
	net := NewNetwork()
	a := net.NewAdapter("a")
	b := net.NewAdapter("b")

	received := make(chan Event, 1)
	b.RegisterHandler(func(ev Event) { received <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(a.Start(ctx))
	require.NoError(b.Start(ctx))

	a.Send("b", []byte("hello"))

	select {
	case ev := <-received:
		require.Equal(NewMessage, ev.Kind)
		require.Equal("a", ev.Addr)
		require.Equal([]byte("hello"), ev.Bytes)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestLoopbackSendToUnknownAddrReportsConnectionFailure(t *testing.T) {
	require := require.New(t)
	net := NewNetwork()
	a := net.NewAdapter("a")

	received := make(chan Event, 1)
	a.RegisterHandler(func(ev Event) { received <- ev })

	a.Send("ghost", []byte("x"))

	select {
	case ev := <-received:
		require.Equal(ConnectionFailure, ev.Kind)
		require.Equal("ghost", ev.Addr)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for failure event")
	}
}

func TestLoopbackDisconnectNotifiesPeer(t *testing.T) {
	require := require.New(t)
	net := NewNetwork()
	a := net.NewAdapter("a")
	b := net.NewAdapter("b")

	received := make(chan Event, 1)
	b.RegisterHandler(func(ev Event) { received <- ev })

	a.Disconnect("b")

	select {
	case ev := <-received:
		require.Equal(PeerLost, ev.Kind)
		require.Equal("a", ev.Addr)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for PeerLost")
	}
}
