// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package health is the ambient health-check surface: a registry of
// named Checkers an embedding process (cmd/elderd) polls and renders,
// following the shape of the teacher's api/health package.
package health

import (
	"context"
	"sync"
	"time"
)

// Checker reports on the health of one component.
type Checker interface {
	HealthCheck(context.Context) (interface{}, error)
}

// CheckerFunc adapts a plain function to a Checker.
type CheckerFunc func(context.Context) (interface{}, error)

func (f CheckerFunc) HealthCheck(ctx context.Context) (interface{}, error) { return f(ctx) }

// Check is one named check's result.
type Check struct {
	Name     string                 `json:"name"`
	Healthy  bool                   `json:"healthy"`
	Error    string                 `json:"error,omitempty"`
	Details  interface{}            `json:"details,omitempty"`
	Duration time.Duration          `json:"duration"`
}

// Report aggregates every registered check's result.
type Report struct {
	Healthy  bool          `json:"healthy"`
	Checks   []Check       `json:"checks"`
	Duration time.Duration `json:"duration"`
}

// Registry holds every named Checker a process has registered.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// Register adds a named checker. Registering the same name twice
// replaces the previous checker.
func (r *Registry) Register(name string, c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = c
}

// Check runs every registered checker and aggregates the results.
// A checker that returns an error or panics is reported unhealthy
// rather than aborting the whole report.
func (r *Registry) Check(ctx context.Context) Report {
	start := time.Now()

	r.mu.RLock()
	names := make([]string, 0, len(r.checkers))
	checkers := make(map[string]Checker, len(r.checkers))
	for name, c := range r.checkers {
		names = append(names, name)
		checkers[name] = c
	}
	r.mu.RUnlock()

	report := Report{Healthy: true}
	for _, name := range names {
		report.Checks = append(report.Checks, r.runOne(ctx, name, checkers[name]))
	}
	for _, c := range report.Checks {
		if !c.Healthy {
			report.Healthy = false
			break
		}
	}
	report.Duration = time.Since(start)
	return report
}

func (r *Registry) runOne(ctx context.Context, name string, c Checker) (check Check) {
	start := time.Now()
	defer func() {
		check.Duration = time.Since(start)
		if rec := recover(); rec != nil {
			check.Name = name
			check.Healthy = false
			check.Error = "panic during health check"
		}
	}()

	details, err := c.HealthCheck(ctx)
	check.Name = name
	check.Details = details
	if err != nil {
		check.Healthy = false
		check.Error = err.Error()
		return check
	}
	check.Healthy = true
	return check
}
