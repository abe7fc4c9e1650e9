// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package elog is the thin structured-logging wrapper every stateful
// package in this module takes a log.Logger field through, mirroring
// the shape of the teacher's own log/noop.go.
package elog

import (
	"fmt"

	"github.com/luxfi/log"
)

// NewNoOpLogger returns a logger that discards everything, the way
// log.NewNoOpLogger() does -- used by tests and by callers that have
// not wired a real logger in yet.
func NewNoOpLogger() log.Logger {
	return log.NewNoOpLogger()
}

// debug is flipped by the debug build tag (see elog_debug.go); it
// governs whether OrPanic panics or just logs.
var debug = false

// OrPanic implements the log_or_panic helper spec 7 calls for on a
// protocol invariant violation: panic when built with the debug tag so
// test runs and local development fail loudly, otherwise log at Error
// and return so a production process degrades instead of crashing.
func OrPanic(logger log.Logger, msg string, kv ...interface{}) {
	if debug {
		panic(fmt.Sprintf("%s %v", msg, kv))
	}
	logger.Error(msg, kv...)
}
