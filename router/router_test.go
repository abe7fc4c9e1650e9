// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"testing"

	"github.com/luxfi/crypto/bls"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/elders/chain"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/state"
	"github.com/luxfi/elders/wire"
	"github.com/luxfi/elders/xorname"
)

func genesis(t *testing.T, us xorname.Name, others ...xorname.Name) (*state.SharedState, section.EldersInfo) {
	t.Helper()
	require := require.New(t)

	sk, err := bls.NewSecretKey()
	require.NoError(err)
	ki := chain.KeyInfo{Prefix: xorname.Prefix{}, Version: 0, Key: sk.PublicKey()}
	sig, err := sk.Sign(chain.EncodeKeyInfo(ki))
	require.NoError(err)
	c := chain.New(chain.ProofBlock{KeyInfo: ki, Signature: sig})

	elders := map[xorname.Name]section.P2pNode{us: {Name: us, Addr: "us:1"}}
	for i, n := range others {
		elders[n] = section.P2pNode{Name: n, Addr: "peer" + string(rune('a'+i)) + ":1"}
	}
	info := section.EldersInfo{Prefix: xorname.Prefix{}, Version: 0, Elders: elders}
	return state.New(nil, c, info), info
}

func TestResolveNodeLocal(t *testing.T) {
	require := require.New(t)
	var us xorname.Name
	us[0] = 1
	st, _ := genesis(t, us)
	r := New(st, us, nil)

	dg, err := r.ResolveNode(us)
	require.NoError(err)
	require.Equal(1, dg.DG)
	require.Equal(us, dg.Targets[0].Name)
}

func TestResolveNodeKnownPeer(t *testing.T) {
	require := require.New(t)
	var us, peer xorname.Name
	us[0], peer[0] = 1, 2
	st, _ := genesis(t, us, peer)
	r := New(st, us, nil)

	dg, err := r.ResolveNode(peer)
	require.NoError(err)
	require.Len(dg.Targets, 1)
	require.Equal(peer, dg.Targets[0].Name)
}

func TestResolveSectionOurs(t *testing.T) {
	require := require.New(t)
	var us, peer1, peer2 xorname.Name
	us[0], peer1[0], peer2[0] = 1, 2, 3
	st, _ := genesis(t, us, peer1, peer2)
	r := New(st, us, nil)

	dg, err := r.ResolveSection(us)
	require.NoError(err)
	require.Equal(2, dg.DG)
	for _, target := range dg.Targets {
		require.NotEqual(us, target.Name)
	}
}

func TestResolvePrefixNotCoveredFails(t *testing.T) {
	require := require.New(t)
	var us xorname.Name
	us[0] = 0xFF
	st, _ := genesis(t, us)
	r := New(st, us, nil)

	var other xorname.Name
	other[0] = 0x00
	p := xorname.NewPrefix(other, 1)
	_, err := r.ResolvePrefix(p)
	require.ErrorIs(err, ErrCannotRoute)
}

func TestResolveDirect(t *testing.T) {
	require := require.New(t)
	var us xorname.Name
	st, _ := genesis(t, us)
	r := New(st, us, nil)

	dg := r.ResolveDirect("10.0.0.1:9000")
	require.Equal(1, dg.DG)
	require.Equal("10.0.0.1:9000", dg.Targets[0].Addr)
}

func TestDispatchByDstKind(t *testing.T) {
	require := require.New(t)
	var us xorname.Name
	st, _ := genesis(t, us)
	r := New(st, us, nil)

	dg, err := r.Resolve(wire.Dst{Kind: wire.DstDirect, Addr: "x:1"})
	require.NoError(err)
	require.Equal(1, dg.DG)
}
