// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"strings"

	"github.com/luxfi/log"
)

// ValidationMode determines how strict validation should be.
type ValidationMode int

const (
	// StrictMode also checks the recommended-but-not-required bounds,
	// reporting a breach of one as a warning rather than an error.
	StrictMode ValidationMode = iota
	// SoftMode allows experimental/local configurations to skip the
	// recommended-but-not-required bounds.
	SoftMode
)

// ValidationError describes one field that failed or merited a warning.
type ValidationError struct {
	Field      string
	Value      interface{}
	Constraint string
	Severity   string // "error" or "warning"
	Suggestion string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s=%v violates constraint: %s", ve.Severity, ve.Field, ve.Value, ve.Constraint)
}

// ValidationResult collects every error and warning from one pass.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
	Valid    bool
}

// Validator validates Parameters built through Builder or loaded from
// elsewhere, the way the teacher's sampling-consensus Validator did for
// its own K/Alpha/Beta triangle.
type Validator struct {
	mode ValidationMode
}

// NewValidator creates a validator in StrictMode by default.
func NewValidator() *Validator {
	return &Validator{mode: StrictMode}
}

// WithMode sets the validation mode and returns the validator for
// chaining.
func (v *Validator) WithMode(mode ValidationMode) *Validator {
	v.mode = mode
	return v
}

// Validate returns a single error summarizing every validation failure,
// or nil if p is usable.
func (v *Validator) Validate(p *Parameters) error {
	result := v.ValidateDetailed(p)
	if !result.Valid {
		errStrs := make([]string, 0, len(result.Errors))
		for _, err := range result.Errors {
			errStrs = append(errStrs, err.Error())
		}
		return fmt.Errorf("validation failed:\n%s", strings.Join(errStrs, "\n"))
	}
	return nil
}

// ValidateDetailed runs every check and returns both errors and
// warnings without collapsing them into one error value.
func (v *Validator) ValidateDetailed(p *Parameters) *ValidationResult {
	result := &ValidationResult{Valid: true}

	v.validateSectionSizing(p, result)
	v.validateQuorum(p, result)
	v.validateChurn(p, result)
	v.validateTimers(p, result)

	return result
}

func (v *Validator) validateSectionSizing(p *Parameters, result *ValidationResult) {
	if p.ElderSize < 1 {
		v.addError(result, "ElderSize", p.ElderSize, "must be at least 1", "Set ElderSize >= 1")
	} else if p.ElderSize < 3 && v.mode == StrictMode {
		v.addWarning(result, "ElderSize", p.ElderSize,
			"fewer than 3 elders cannot tolerate any Byzantine elder",
			"Consider ElderSize >= 7 for production")
	}

	if p.RecommendedSectionSize < p.ElderSize {
		v.addError(result, "RecommendedSectionSize", p.RecommendedSectionSize,
			fmt.Sprintf("must be >= ElderSize (%d)", p.ElderSize),
			fmt.Sprintf("Set RecommendedSectionSize >= %d", p.ElderSize))
	}

	if p.MinAge < 1 {
		v.addError(result, "MinAge", p.MinAge, "must be at least 1", "Set MinAge >= 1")
	}

	if p.SplitThreshold <= 0 {
		v.addError(result, "SplitThreshold", p.SplitThreshold, "must be positive", "Set SplitThreshold > 0")
	} else if p.SplitThreshold < p.RecommendedSectionSize && v.mode == StrictMode {
		v.addWarning(result, "SplitThreshold", p.SplitThreshold,
			fmt.Sprintf("below RecommendedSectionSize (%d) causes near-constant splitting", p.RecommendedSectionSize),
			fmt.Sprintf("Consider SplitThreshold >= %d", p.RecommendedSectionSize))
	}
}

func (v *Validator) validateQuorum(p *Parameters, result *ValidationResult) {
	if p.QuorumDenominator <= 0 {
		v.addError(result, "QuorumDenominator", p.QuorumDenominator, "must be positive", "Set QuorumDenominator > 0")
		return
	}
	if p.QuorumNumerator <= 0 || p.QuorumNumerator >= p.QuorumDenominator {
		v.addError(result, "QuorumNumerator", p.QuorumNumerator,
			fmt.Sprintf("must be between 0 and QuorumDenominator (%d) exclusive", p.QuorumDenominator),
			"Set 0 < QuorumNumerator < QuorumDenominator")
	}
}

func (v *Validator) validateChurn(p *Parameters, result *ValidationResult) {
	if p.UnresponsiveWindow <= 0 {
		v.addError(result, "UnresponsiveWindow", p.UnresponsiveWindow, "must be positive", "Set UnresponsiveWindow > 0")
	}
	if p.UnresponsiveThreshold > p.UnresponsiveWindow {
		v.addError(result, "UnresponsiveThreshold", p.UnresponsiveThreshold,
			fmt.Sprintf("cannot exceed UnresponsiveWindow (%d)", p.UnresponsiveWindow),
			fmt.Sprintf("Set UnresponsiveThreshold <= %d", p.UnresponsiveWindow))
	}
	if p.RelocateCoolDownSteps < 0 {
		v.addError(result, "RelocateCoolDownSteps", p.RelocateCoolDownSteps, "must not be negative", "Set RelocateCoolDownSteps >= 0")
	}
}

func (v *Validator) validateTimers(p *Parameters, result *ValidationResult) {
	timers := []struct {
		name string
		val  interface{ Seconds() float64 }
	}{
		{"KnowledgeRefreshInterval", p.KnowledgeRefreshInterval},
		{"AccumulationTimeout", p.AccumulationTimeout},
		{"ResendCandidateInfoInterval", p.ResendCandidateInfoInterval},
		{"JoiningRefusedTimeout", p.JoiningRefusedTimeout},
		{"GossipPeriod", p.GossipPeriod},
	}
	for _, timer := range timers {
		if timer.val.Seconds() <= 0 {
			v.addError(result, timer.name, timer.val, "must be positive", "Set a positive duration")
		}
	}
	if v.mode == StrictMode && p.GossipPeriod.Seconds() > p.AccumulationTimeout.Seconds() {
		log.Warn("config: gossip period exceeds accumulation timeout, events may expire before a second gossip round",
			"gossipPeriod", p.GossipPeriod, "accumulationTimeout", p.AccumulationTimeout)
		v.addWarning(result, "GossipPeriod", p.GossipPeriod,
			"exceeds AccumulationTimeout",
			"Set GossipPeriod well below AccumulationTimeout so events get multiple gossip rounds")
	}
}

func (v *Validator) addError(result *ValidationResult, field string, value interface{}, constraint, suggestion string) {
	result.Errors = append(result.Errors, ValidationError{
		Field:      field,
		Value:      value,
		Constraint: constraint,
		Severity:   "error",
		Suggestion: suggestion,
	})
	result.Valid = false
}

func (v *Validator) addWarning(result *ValidationResult, field string, value interface{}, constraint, suggestion string) {
	result.Warnings = append(result.Warnings, ValidationError{
		Field:      field,
		Value:      value,
		Constraint: constraint,
		Severity:   "warning",
		Suggestion: suggestion,
	})
}
