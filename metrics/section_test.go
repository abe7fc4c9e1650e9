// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewSectionRegistersAllCollectors(t *testing.T) {
	require := require.New(t)
	reg := prometheus.NewRegistry()
	s, err := NewSection(reg, "elders_test")
	require.NoError(err)
	require.NotNil(s)

	s.Elders.Set(7)
	s.Splits.Inc()
	s.Relocations.Add(3)

	var families []*dto.MetricFamily
	families, err = reg.Gather()
	require.NoError(err)
	require.NotEmpty(families)

	var sawElders bool
	for _, fam := range families {
		if fam.GetName() == "elders_test_elders" {
			sawElders = true
			require.Equal(float64(7), fam.GetMetric()[0].GetGauge().GetValue())
		}
	}
	require.True(sawElders)
}

func TestNewSectionDuplicateNamespaceFails(t *testing.T) {
	require := require.New(t)
	reg := prometheus.NewRegistry()
	_, err := NewSection(reg, "dup")
	require.NoError(err)
	_, err = NewSection(reg, "dup")
	require.Error(err)
}
