// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
    "github.com/luxfi/metric"
    "github.com/prometheus/client_golang/prometheus"
)

// Metrics provides consensus metrics
type Metrics struct {
    Registry prometheus.Registerer

    // Gatherer is the caller-supplied metric.Metrics this process
    // otherwise reports through, carried alongside the prometheus
    // registry so a host process that already tracks metrics via
    // luxfi/metric keeps a single source of truth.
    Gatherer metric.Metrics
}

// NewMetrics creates new metrics instance
func NewMetrics(reg prometheus.Registerer) *Metrics {
    return &Metrics{
        Registry: reg,
    }
}

// NewMetricsWithGatherer is NewMetrics for a host process that already
// threads a metric.Metrics through its own components.
func NewMetricsWithGatherer(reg prometheus.Registerer, gatherer metric.Metrics) *Metrics {
    return &Metrics{
        Registry: reg,
        Gatherer: gatherer,
    }
}

// Register registers a prometheus collector
func (m *Metrics) Register(collector prometheus.Collector) error {
    return m.Registry.Register(collector)
}
