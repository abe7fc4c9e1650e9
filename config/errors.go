// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "errors"

var (
	ErrInvalidElderSize        = errors.New("config: elder size must be >= 1")
	ErrInvalidSectionSize      = errors.New("config: recommended section size must be >= elder size")
	ErrInvalidMinAge           = errors.New("config: min age must be >= 1")
	ErrInvalidSplitThreshold   = errors.New("config: split threshold must be positive")
	ErrInvalidQuorumRatio      = errors.New("config: quorum numerator must be positive and less than denominator")
	ErrInvalidUnresponsive     = errors.New("config: unresponsive threshold must not exceed unresponsive window")
	ErrInvalidRelocateCoolDown = errors.New("config: relocate cool-down steps must not be negative")
	ErrInvalidTimer            = errors.New("config: timer durations must be positive")
	ErrUnknownPreset           = errors.New("config: unknown network preset")
)
