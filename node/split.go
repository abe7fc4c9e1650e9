// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"github.com/luxfi/crypto/bls"

	"github.com/luxfi/elders/chain"
	"github.com/luxfi/elders/event"
	"github.com/luxfi/elders/section"
	"github.com/luxfi/elders/wire"
)

// handleSectionInfo implements spec 4.9.1: an accumulated SectionInfo
// either extends our current prefix (half of a split, cached until
// the sibling half also accumulates) or replaces our committee in
// place (ordinary elder churn, no split).
func (l *Loop) handleSectionInfo(ev event.Event) {
	p := ev.Payload.(event.SectionInfoPayload)
	ourPrefix := l.State.OurPrefix()

	if !p.Info.Prefix.IsExtensionOf(ourPrefix) {
		l.applyInPlace(p)
		return
	}

	parentKey := ourPrefix.String()
	cached, ok := l.splitCache[parentKey]
	if !ok {
		l.splitCache[parentKey] = splitHalf{info: p.Info, key: bls.PublicKeyToCompressedBytes(p.Key)}
		return
	}
	delete(l.splitCache, parentKey)

	ourHalf, siblingHalf := p, event.SectionInfoPayload{Info: cached.info}
	if cached.info.Prefix.Matches(l.ourName) {
		ourHalf, siblingHalf = event.SectionInfoPayload{Info: cached.info}, p
	}

	l.applyOurSplitHalf(ourHalf)
	l.applySiblingSplitHalf(siblingHalf)
}

func (l *Loop) applyInPlace(p event.SectionInfoPayload) {
	if p.Signature == nil {
		l.log.Warn("dropping committee change with no combined signature", "prefix", p.Info.Prefix.String())
		return
	}
	block := chain.ProofBlock{
		KeyInfo:   chain.KeyInfo{Prefix: p.Info.Prefix, Version: p.Info.Version, Key: p.Key},
		Signature: p.Signature,
	}
	if err := l.State.PushOurNewInfo(p.Info, block); err != nil {
		l.log.Warn("failed to push replacement committee", "error", err)
		return
	}
	if l.metrics != nil {
		l.metrics.Elders.Set(float64(len(p.Info.Elders)))
	}
	l.out.Notify("EldersChanged", p.Info)
}

// applyOurSplitHalf builds a SectionProofBlock from the payload's
// already-combined signature, appends it to our chain, evicts members
// that no longer match our new prefix, notifies the new half, and
// votes ParsecPrune. It does not itself combine shares or finalise DKG.
func (l *Loop) applyOurSplitHalf(p event.SectionInfoPayload) {
	if p.Signature == nil {
		l.log.Warn("dropping split half with no combined signature", "prefix", p.Info.Prefix.String())
		return
	}
	block := chain.ProofBlock{
		KeyInfo:   chain.KeyInfo{Prefix: p.Info.Prefix, Version: p.Info.Version, Key: p.Key},
		Signature: p.Signature,
	}
	if err := l.State.PushOurNewInfo(p.Info, block); err != nil {
		l.log.Warn("failed to push split committee", "error", err)
		return
	}
	evicted := l.State.OurMembers.RemoveNotMatching(p.Info.Prefix)
	for _, m := range evicted {
		l.out.Notify("PostSplitSiblingMember", m)
	}
	if l.metrics != nil {
		l.metrics.Splits.Inc()
		l.metrics.Elders.Set(float64(len(p.Info.Elders)))
	}
	l.sendSplitGenesisUpdates(p.Info)
	l.sendSplitParsecPokes(p.Info)
	l.Engine.VoteFor(event.NewParsecPrune())
	if p.Info.IsElder(l.ourName) {
		l.out.Notify("Promoted", p.Info)
	} else {
		l.out.Notify("Demoted", p.Info)
	}
}

// sendSplitGenesisUpdates hands every non-elder member of our new
// half the fresh GenesisPrefixInfo, so it adopts the new prefix and
// key instead of waiting to learn of the split indirectly (spec
// 4.9.1's post-split notification).
func (l *Loop) sendSplitGenesisUpdates(info section.EldersInfo) {
	zero := uint64(0)
	slice, err := l.State.Prove(l.ourName, &zero)
	if err != nil {
		l.log.Warn("could not build split genesis proof slice", "error", err)
		return
	}
	update := wire.Variant{
		Kind: wire.VariantGenesisUpdate,
		GenesisUpdate: wire.GenesisPrefixInfo{
			Info:  info,
			Key:   l.keySetPublicKey(),
			Chain: slice,
		},
	}
	payload, err := wire.EncodeVariant(update)
	if err != nil {
		l.log.Warn("could not encode split genesis update", "error", err)
		return
	}
	for _, m := range l.State.OurMembers.Joined() {
		if info.IsElder(m.Node.Name) {
			continue
		}
		l.out.SendToNode(m.Node.Name, payload)
	}
}

// sendSplitParsecPokes prompts every other elder of the new half to
// start gossiping under the new section, instead of waiting on its own
// next scheduled poke.
func (l *Loop) sendSplitParsecPokes(info section.EldersInfo) {
	poke, err := wire.EncodeVariant(wire.Variant{Kind: wire.VariantParsecPoke, ParsecVersion: info.Version})
	if err != nil {
		l.log.Warn("could not encode split parsec poke", "error", err)
		return
	}
	for _, elder := range info.OrderedElders() {
		if elder.Name == l.ourName {
			continue
		}
		l.out.SendToNode(elder.Name, poke)
	}
}

func (l *Loop) applySiblingSplitHalf(p event.SectionInfoPayload) {
	l.State.SetNeighbourInfo(p.Info)
	l.State.UpdateTheirKeys(chain.KeyInfo{Prefix: p.Info.Prefix, Version: p.Info.Version, Key: p.Key})
	l.State.UpdateTheirKnowledge(p.Info.Prefix, uint64(l.State.OurHistory.LastKeyIndex()))
}

// handleNeighbourInfo updates our record of a neighbour committee and
// disconnects from peers that are no longer elders there.
func (l *Loop) handleNeighbourInfo(ev event.Event) {
	p := ev.Payload.(event.SectionInfoPayload)
	previous, had := l.State.NeighbourInfo(p.Info.Prefix)
	l.State.SetNeighbourInfo(p.Info)
	l.State.UpdateTheirKeys(chain.KeyInfo{Prefix: p.Info.Prefix, Version: p.Info.Version, Key: p.Key})
	l.State.UpdateTheirKnowledge(p.Info.Prefix, uint64(l.State.OurHistory.LastKeyIndex()))

	if !had {
		return
	}
	for name, peer := range previous.Elders {
		if !p.Info.IsElder(name) {
			l.out.Notify("DisconnectPeer", peer)
		}
	}
}
