// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"time"
)

// NetworkType selects one of the built-in parameter presets.
type NetworkType string

const (
	MainnetNetwork NetworkType = "mainnet"
	TestnetNetwork NetworkType = "testnet"
	LocalNetwork   NetworkType = "local"
)

// Builder provides a fluent interface for constructing Parameters,
// accumulating the first error encountered the way the teacher's own
// sampling-consensus Builder does.
type Builder struct {
	params Parameters
	err    error
}

// NewBuilder starts from the Local preset, the smallest and therefore
// safest default to iterate on.
func NewBuilder() *Builder {
	return &Builder{params: Local()}
}

// FromPreset replaces the builder's parameters with a named preset.
func (b *Builder) FromPreset(preset NetworkType) *Builder {
	if b.err != nil {
		return b
	}
	switch preset {
	case MainnetNetwork:
		b.params = Mainnet()
	case TestnetNetwork:
		b.params = Testnet()
	case LocalNetwork:
		b.params = Local()
	default:
		b.err = fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
	}
	return b
}

// WithElderSize sets the elder committee size.
func (b *Builder) WithElderSize(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("%w: got %d", ErrInvalidElderSize, n)
		return b
	}
	b.params.ElderSize = n
	if b.params.RecommendedSectionSize < n {
		b.params.RecommendedSectionSize = n
	}
	return b
}

// WithSectionSizes sets both the elder committee size and the
// recommended overall section size in one call.
func (b *Builder) WithSectionSizes(elderSize, recommended int) *Builder {
	if b.err != nil {
		return b
	}
	if elderSize < 1 {
		b.err = fmt.Errorf("%w: got %d", ErrInvalidElderSize, elderSize)
		return b
	}
	if recommended < elderSize {
		b.err = fmt.Errorf("%w: recommended=%d elderSize=%d", ErrInvalidSectionSize, recommended, elderSize)
		return b
	}
	b.params.ElderSize = elderSize
	b.params.RecommendedSectionSize = recommended
	return b
}

// WithMinAge sets the minimum age a node must reach before it is
// eligible for elder promotion.
func (b *Builder) WithMinAge(age uint8) *Builder {
	if b.err != nil {
		return b
	}
	if age < 1 {
		b.err = fmt.Errorf("%w: got %d", ErrInvalidMinAge, age)
		return b
	}
	b.params.MinAge = age
	return b
}

// WithSplitThreshold sets the member count at which a section attempts
// a split.
func (b *Builder) WithSplitThreshold(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		b.err = fmt.Errorf("%w: got %d", ErrInvalidSplitThreshold, n)
		return b
	}
	b.params.SplitThreshold = n
	return b
}

// WithQuorum sets the numerator/denominator of the supermajority ratio.
func (b *Builder) WithQuorum(numerator, denominator int) *Builder {
	if b.err != nil {
		return b
	}
	if denominator <= 0 || numerator <= 0 || numerator >= denominator {
		b.err = fmt.Errorf("%w: %d/%d", ErrInvalidQuorumRatio, numerator, denominator)
		return b
	}
	b.params.QuorumNumerator = numerator
	b.params.QuorumDenominator = denominator
	return b
}

// WithUnresponsiveDetection sets the observation window and the
// within-window count that marks a peer unresponsive.
func (b *Builder) WithUnresponsiveDetection(window, threshold int) *Builder {
	if b.err != nil {
		return b
	}
	if threshold > window {
		b.err = fmt.Errorf("%w: threshold=%d window=%d", ErrInvalidUnresponsive, threshold, window)
		return b
	}
	b.params.UnresponsiveWindow = window
	b.params.UnresponsiveThreshold = threshold
	return b
}

// WithRelocateCoolDownSteps sets how many RelocatePrepare re-votes a
// member picked for relocation goes through before the Relocate vote.
func (b *Builder) WithRelocateCoolDownSteps(steps int) *Builder {
	if b.err != nil {
		return b
	}
	if steps < 0 {
		b.err = fmt.Errorf("%w: got %d", ErrInvalidRelocateCoolDown, steps)
		return b
	}
	b.params.RelocateCoolDownSteps = steps
	return b
}

// WithGossipPeriod sets the interval between PARSEC gossip rounds.
func (b *Builder) WithGossipPeriod(period time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if period <= 0 {
		b.err = fmt.Errorf("%w: GossipPeriod got %s", ErrInvalidTimer, period)
		return b
	}
	b.params.GossipPeriod = period
	return b
}

// WithAccumulationTimeout sets AccumulationTimeout, the expiry for
// signature shares collected toward a section-signed message. No
// package reads it: node.Loop begins every sigaccum entry with
// sigaccum.DefaultTimeout.
func (b *Builder) WithAccumulationTimeout(timeout time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if timeout <= 0 {
		b.err = fmt.Errorf("%w: AccumulationTimeout got %s", ErrInvalidTimer, timeout)
		return b
	}
	b.params.AccumulationTimeout = timeout
	return b
}

// OptimizeForChurn shortens churn-detection windows and the relocate
// cool-down so a high-turnover network reacts faster, trading some
// false-positive risk for responsiveness.
func (b *Builder) OptimizeForChurn() *Builder {
	if b.err != nil {
		return b
	}
	b.params.UnresponsiveWindow = b.params.UnresponsiveWindow / 2
	if b.params.UnresponsiveWindow < 4 {
		b.params.UnresponsiveWindow = 4
	}
	b.params.UnresponsiveThreshold = (b.params.UnresponsiveWindow * 3) / 4
	b.params.RelocateCoolDownSteps = 1
	return b
}

// OptimizeForStability doubles the churn-detection window (keeping the
// threshold at three quarters of it) and adds two relocate cool-down
// steps, trading responsiveness for a network that tolerates transient
// flakiness without reshuffling elders. Elder and section sizes are
// left unchanged.
func (b *Builder) OptimizeForStability() *Builder {
	if b.err != nil {
		return b
	}
	b.params.UnresponsiveWindow *= 2
	b.params.UnresponsiveThreshold = (b.params.UnresponsiveWindow * 3) / 4
	b.params.RelocateCoolDownSteps += 2
	return b
}

// Build validates the accumulated parameters and returns them, or the
// first error encountered while constructing or validating them.
func (b *Builder) Build() (Parameters, error) {
	if b.err != nil {
		return Parameters{}, b.err
	}
	if err := NewValidator().Validate(&b.params); err != nil {
		return Parameters{}, err
	}
	return b.params, nil
}
