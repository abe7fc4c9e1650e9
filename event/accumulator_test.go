// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/xorname"
)

func TestQuorum(t *testing.T) {
	require := require.New(t)

	require.Equal(0, Quorum(0))
	require.Equal(1, Quorum(1))
	require.Equal(3, Quorum(3))
	require.Equal(5, Quorum(7))
}

func TestAccumulatorPollsAtQuorum(t *testing.T) {
	require := require.New(t)

	a := NewAccumulator(nil)
	var n xorname.Name
	n[0] = 7
	e := NewOnline(OnlinePayload{Node: section.P2pNode{Name: n}, Age: 5})

	v1, v2, v3 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()

	require.True(a.AddProof(e, v1))
	require.Empty(a.Poll(2))

	require.True(a.AddProof(e, v2))
	ready := a.Poll(2)
	require.Len(ready, 1)
	require.Equal(e.Key, ready[0].Key)

	// already accumulated: further polling returns nothing more for it
	require.True(a.AddProof(e, v3))
	require.Empty(a.Poll(2))
}

func TestAccumulatorDuplicateVoteIgnored(t *testing.T) {
	require := require.New(t)

	a := NewAccumulator(nil)
	e := NewParsecPrune()
	v1 := ids.GenerateTestNodeID()

	require.True(a.AddProof(e, v1))
	require.False(a.AddProof(e, v1))
	require.Equal(1, a.VoteCount(e.Key))
}

func TestAccumulatorFullConsensusForDkg(t *testing.T) {
	require := require.New(t)

	a := NewAccumulator(nil)
	e := NewStartDkg([]ids.NodeID{ids.GenerateTestNodeID()})

	v1, v2, v3 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	require.True(a.AddProof(e, v1))
	require.True(a.AddProof(e, v2))
	require.Empty(a.Poll(3), "two of three votes should not satisfy full consensus")

	require.True(a.AddProof(e, v3))
	require.Len(a.Poll(3), 1)
}

func TestAccumulatorDetectUnresponsive(t *testing.T) {
	require := require.New(t)

	a := NewAccumulator(nil)
	e := NewParsecPrune()
	v1, v2 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	require.True(a.AddProof(e, v1))

	unresponsive := a.DetectUnresponsive([]ids.NodeID{v1, v2})
	require.Equal([]ids.NodeID{v2}, unresponsive)
}

func TestAccumulatorReset(t *testing.T) {
	require := require.New(t)

	a := NewAccumulator(nil)
	a.AddProof(NewParsecPrune(), ids.GenerateTestNodeID())
	require.Equal(1, a.Len())

	a.ResetAccumulator()
	require.Equal(0, a.Len())
}
