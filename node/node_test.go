// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"testing"
	"time"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/elders/chain"
	"github.com/luxfi/elders/consensus"
	"github.com/luxfi/elders/engine/bft"
	"github.com/luxfi/elders/event"
	"github.com/luxfi/elders/keys"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/sigaccum"
	"github.com/luxfi/elders/state"
	"github.com/luxfi/elders/wire"
	"github.com/luxfi/elders/xorname"
)

type sentMessage struct {
	dst     xorname.Name
	payload []byte
}

type recordingOutbox struct {
	notifications []string
	sentToNode    []sentMessage
}

func (r *recordingOutbox) SendToNode(dst xorname.Name, payload []byte) {
	r.sentToNode = append(r.sentToNode, sentMessage{dst: dst, payload: payload})
}
func (r *recordingOutbox) SendToSection(xorname.Prefix, []byte) {}
func (r *recordingOutbox) Notify(kind string, _ interface{})    { r.notifications = append(r.notifications, kind) }
func (r *recordingOutbox) ScheduleTimer(string, time.Duration)  {}

func newTestLoop(t *testing.T) (*Loop, *recordingOutbox, ids.NodeID) {
	t.Helper()
	require := require.New(t)

	sk, err := bls.NewSecretKey()
	require.NoError(err)
	ki := chain.KeyInfo{Prefix: xorname.Prefix{}, Version: 0, Key: sk.PublicKey()}
	sig, err := sk.Sign(chain.EncodeKeyInfo(ki))
	require.NoError(err)
	c := chain.New(chain.ProofBlock{KeyInfo: ki, Signature: sig})

	ourID := ids.GenerateTestNodeID()
	info := section.EldersInfo{Prefix: xorname.Prefix{}, Version: 0, Elders: map[xorname.Name]section.P2pNode{}}
	st := state.New(nil, c, info)
	st.HandledGenesisEvent = true

	eng, err := consensus.New(nil, consensus.Config{OurID: ourID, Elders: []ids.NodeID{ourID}, BFT: bft.Config{}})
	require.NoError(err)

	out := &recordingOutbox{}
	kp := keys.NewProvider(ourID, nil, nil)
	sa := sigaccum.New(nil, nil)

	loop := New(nil, out, ourID, xorname.Name{}, eng, st, kp, sa, DefaultParams())
	return loop, out, ourID
}

func TestPollAllHandlesOnline(t *testing.T) {
	require := require.New(t)
	loop, out, ourID := newTestLoop(t)

	var joinerName xorname.Name
	joinerName[0] = 9
	ev := event.NewOnline(event.OnlinePayload{Node: section.P2pNode{Name: joinerName}, Age: 5})
	loop.Engine.VoteFor(ev)

	loop.PollAll()

	require.True(loop.State.OurMembers.IsMember(joinerName))
	require.Contains(out.notifications, "MemberJoined")
	_ = ourID

	require.Len(out.sentToNode, 1)
	require.Equal(joinerName, out.sentToNode[0].dst)
	variant, err := wire.DecodeVariant(out.sentToNode[0].payload)
	require.NoError(err)
	require.Equal(wire.VariantNodeApproval, variant.Kind)
	require.Equal(loop.State.OurPrefix(), variant.NodeApproval.Info.Prefix)
}

func TestHandleSendNeighbourInfoEncodesVariant(t *testing.T) {
	require := require.New(t)
	loop, out, _ := newTestLoop(t)

	var dst xorname.Name
	dst[0] = 42
	nonce := ids.GenerateTestID()
	loop.handleSendNeighbourInfo(event.NewSendNeighbourInfo(event.SendNeighbourInfoPayload{Dst: dst, Nonce: nonce}))

	require.Len(out.sentToNode, 1)
	require.Equal(dst, out.sentToNode[0].dst)
	variant, err := wire.DecodeVariant(out.sentToNode[0].payload)
	require.NoError(err)
	require.Equal(wire.VariantNeighbourInfo, variant.Kind)
	require.Equal(nonce, variant.NeighbourInfo.Nonce)
	require.Equal(loop.State.OurPrefix(), variant.NeighbourInfo.Info.Prefix)
}

func TestHandleRelocateEncodesMessageWithProofSlice(t *testing.T) {
	require := require.New(t)
	loop, out, _ := newTestLoop(t)

	var memberName, destination xorname.Name
	memberName[0] = 11
	destination[0] = 22
	loop.State.OurMembers.Add(section.P2pNode{Name: memberName}, 5)

	details := section.RelocateDetails{Name: memberName, Destination: destination, Age: 5}
	loop.handleRelocate(event.NewRelocate(event.RelocatePayload{Details: details}))

	require.False(loop.State.OurMembers.IsMember(memberName))
	require.Len(out.sentToNode, 1)
	require.Equal(memberName, out.sentToNode[0].dst)

	msg, err := wire.DecodeMessage(out.sentToNode[0].payload)
	require.NoError(err)
	require.Equal(wire.VariantRelocate, msg.Variant.Kind)
	require.Equal(destination, msg.Variant.Relocate.Details.Destination)
	require.Equal(wire.SrcSection, msg.Src.Kind)
	require.NotEmpty(msg.ProofSlice.Blocks)
}

func TestPollAllBacklogsChurnEventsUntilReady(t *testing.T) {
	require := require.New(t)
	loop, _, _ := newTestLoop(t)
	loop.State.HandledGenesisEvent = false

	var joinerName xorname.Name
	joinerName[0] = 3
	ev := event.NewOnline(event.OnlinePayload{Node: section.P2pNode{Name: joinerName}, Age: 5})
	loop.Engine.VoteFor(ev)

	loop.PollAll()

	require.False(loop.State.OurMembers.IsMember(joinerName))
	require.Len(loop.backlog, 1)
}
