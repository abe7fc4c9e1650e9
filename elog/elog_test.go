// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package elog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewNoOpLoggerDoesNotPanic(t *testing.T) {
	logger := NewNoOpLogger()
	require.NotNil(t, logger)
	logger.Info("hello", "k", "v")
}

func TestOrPanicLogsWithoutDebugTag(t *testing.T) {
	require.False(t, debug)
	logger := NewNoOpLogger()
	require.NotPanics(t, func() {
		OrPanic(logger, "invariant violated", "detail", 1)
	})
}
