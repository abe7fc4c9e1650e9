// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "time"

// Parameters holds every tunable the section-membership and consensus
// subsystem reads, gathered in one struct the way the teacher's
// sampling-consensus Parameters did before this pass.
type Parameters struct {
	// Section sizing (spec 4.5, 4.9.1).
	ElderSize              int
	RecommendedSectionSize int
	MinAge                 uint8
	SplitThreshold         int

	// Quorum rule (spec 4.3): Quorum(n) is floor(n*Numerator/Denominator)+1,
	// the same supermajority formula state.PromoteAndDemoteElders and
	// event.Quorum apply with a fixed 2/3.
	QuorumNumerator   int
	QuorumDenominator int

	// Churn and unresponsiveness detection (spec 4.3, 4.9).
	UnresponsiveWindow    int
	UnresponsiveThreshold int
	RelocateCoolDownSteps int

	// Timers (spec 5).
	KnowledgeRefreshInterval     time.Duration
	AccumulationTimeout          time.Duration
	ResendCandidateInfoInterval  time.Duration
	JoiningRefusedTimeout        time.Duration
	GossipPeriod                 time.Duration
}

// Mainnet returns production-scale parameters.
func Mainnet() Parameters {
	return Parameters{
		ElderSize:                   7,
		RecommendedSectionSize:      20,
		MinAge:                      4,
		SplitThreshold:              20,
		QuorumNumerator:             2,
		QuorumDenominator:           3,
		UnresponsiveWindow:          50,
		UnresponsiveThreshold:       38,
		RelocateCoolDownSteps:       3,
		KnowledgeRefreshInterval:    2 * time.Second,
		AccumulationTimeout:         20 * time.Second,
		ResendCandidateInfoInterval: 5 * time.Second,
		JoiningRefusedTimeout:       60 * time.Second,
		GossipPeriod:                500 * time.Millisecond,
	}
}

// Testnet returns parameters scaled down for a smaller, more churny
// network while keeping the same quorum and timing ratios.
func Testnet() Parameters {
	p := Mainnet()
	p.ElderSize = 5
	p.RecommendedSectionSize = 10
	p.SplitThreshold = 10
	return p
}

// Local returns parameters for a single-process development network:
// tiny sections, fast timers, so a local demo churns visibly.
func Local() Parameters {
	return Parameters{
		ElderSize:                   3,
		RecommendedSectionSize:      4,
		MinAge:                      4,
		SplitThreshold:              4,
		QuorumNumerator:             2,
		QuorumDenominator:           3,
		UnresponsiveWindow:          10,
		UnresponsiveThreshold:       7,
		RelocateCoolDownSteps:       1,
		KnowledgeRefreshInterval:    200 * time.Millisecond,
		AccumulationTimeout:         2 * time.Second,
		ResendCandidateInfoInterval: 500 * time.Millisecond,
		JoiningRefusedTimeout:       5 * time.Second,
		GossipPeriod:                50 * time.Millisecond,
	}
}

// Quorum returns floor(n*Numerator/Denominator)+1, the supermajority
// threshold used throughout event accumulation and elder promotion.
func (p Parameters) Quorum(n int) int {
	return (n*p.QuorumNumerator)/p.QuorumDenominator + 1
}
