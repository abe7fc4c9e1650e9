// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package join

import (
	"testing"
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/wire"
	"github.com/luxfi/elders/xorname"
)

func TestHandleBootstrapRequest(t *testing.T) {
	require := require.New(t)
	e := NewElderSide(nil)

	sk, err := bls.NewSecretKey()
	require.NoError(err)
	info := section.EldersInfo{Prefix: xorname.Prefix{}}

	v := e.HandleBootstrapRequest(info, sk.PublicKey())
	require.Equal(wire.VariantBootstrapResponse, v.Kind)
	require.Equal(wire.BootstrapJoin, v.BootstrapResponse.Kind)
	require.NotNil(v.BootstrapResponse.Key)
}

func TestHandleJoinRequestFreshKeyVotesOnline(t *testing.T) {
	require := require.New(t)
	e := NewElderSide(nil)

	sk, err := bls.NewSecretKey()
	require.NoError(err)
	pk := sk.PublicKey()

	candidate := section.P2pNode{Name: xorname.Name{}, NodeID: ids.GenerateTestNodeID()}
	info := section.EldersInfo{Prefix: xorname.Prefix{}}

	outcome, ev := e.HandleJoinRequest(candidate, 5, pk, pk, info)
	require.Equal(JoinOutcomeVoteOnline, outcome)
	require.NotNil(ev.Payload)
}

func TestHandleJoinRequestStaleKeyInOurPrefixRefreshes(t *testing.T) {
	require := require.New(t)
	e := NewElderSide(nil)

	sk1, err := bls.NewSecretKey()
	require.NoError(err)
	sk2, err := bls.NewSecretKey()
	require.NoError(err)

	candidate := section.P2pNode{Name: xorname.Name{}}
	info := section.EldersInfo{Prefix: xorname.Prefix{}}

	outcome, _ := e.HandleJoinRequest(candidate, 5, sk1.PublicKey(), sk2.PublicKey(), info)
	require.Equal(JoinOutcomeRefreshKey, outcome)
}

func TestCandidateResourceProofSequence(t *testing.T) {
	require := require.New(t)
	c := NewCandidate(nil, ids.GenerateTestNodeID(), xorname.Name{}, nil, nil)

	elder := ids.GenerateTestNodeID()
	first := c.HandleResourceProofRequest(elder, []byte("seed"), 3)
	require.NotEmpty(first)
	require.Equal(StatusProvingResource, c.Status())

	second, done := c.HandleResourceProofReceipt(elder)
	require.NotEmpty(second)
	require.False(done)

	third, done := c.HandleResourceProofReceipt(elder)
	require.NotEmpty(third)
	require.True(done)
}

func TestCandidateResendTimer(t *testing.T) {
	require := require.New(t)
	c := NewCandidate(nil, ids.GenerateTestNodeID(), xorname.Name{}, nil, nil)

	now := time.Now()
	c.MarkCandidateInfoSent(now)
	require.False(c.ShouldResendCandidateInfo(now))
	require.True(c.ShouldResendCandidateInfo(now.Add(ResendCandidateInfoInterval + time.Second)))
}
