// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatorAcceptsMainnet(t *testing.T) {
	require := require.New(t)
	p := Mainnet()
	require.NoError(NewValidator().Validate(&p))
}

func TestValidatorRejectsZeroElderSize(t *testing.T) {
	require := require.New(t)
	p := Mainnet()
	p.ElderSize = 0
	require.Error(NewValidator().Validate(&p))
}

func TestValidatorRejectsSectionSmallerThanElders(t *testing.T) {
	require := require.New(t)
	p := Mainnet()
	p.RecommendedSectionSize = p.ElderSize - 1
	require.Error(NewValidator().Validate(&p))
}

func TestValidatorStrictModeWarnsOnTinyElderSize(t *testing.T) {
	require := require.New(t)
	p := Mainnet()
	p.ElderSize = 1
	p.RecommendedSectionSize = 1
	result := NewValidator().WithMode(StrictMode).ValidateDetailed(&p)
	require.True(result.Valid)
	require.NotEmpty(result.Warnings)
}

func TestValidatorSoftModeSuppressesWarnings(t *testing.T) {
	require := require.New(t)
	p := Mainnet()
	p.ElderSize = 1
	p.RecommendedSectionSize = 1
	result := NewValidator().WithMode(SoftMode).ValidateDetailed(&p)
	require.True(result.Valid)
	require.Empty(result.Warnings)
}

func TestValidatorRejectsUnresponsiveThresholdAboveWindow(t *testing.T) {
	require := require.New(t)
	p := Mainnet()
	p.UnresponsiveThreshold = p.UnresponsiveWindow + 1
	require.Error(NewValidator().Validate(&p))
}

func TestValidatorRejectsNonPositiveTimer(t *testing.T) {
	require := require.New(t)
	p := Mainnet()
	p.AccumulationTimeout = 0
	require.Error(NewValidator().Validate(&p))
}
