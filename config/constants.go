// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

// QuorumNumerator and QuorumDenominator fix the supermajority ratio
// used throughout event accumulation, elder promotion, and section
// key signature combination: floor(n*Numerator/Denominator)+1.
const (
	QuorumNumerator   = 2
	QuorumDenominator = 3
)

// DefaultQuorum returns floor(n*2/3)+1 for a committee of size n,
// matching state.SharedState's and event.Accumulator's own quorum
// rule. Exported here so an embedding process can size a committee
// without constructing a SharedState first.
func DefaultQuorum(n int) int {
	return (n*QuorumNumerator)/QuorumDenominator + 1
}

// HasQuorum reports whether count of n has reached the supermajority
// threshold.
func HasQuorum(count, n int) bool {
	return count >= DefaultQuorum(n)
}
