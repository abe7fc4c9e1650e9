// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Section bundles every counter/gauge a running section reports,
// registered against one prometheus.Registerer the way cmd/elderd
// wires a single Metrics{Registry} for a whole process.
type Section struct {
	Elders          prometheus.Gauge
	Members         prometheus.Gauge
	Splits          prometheus.Counter
	Merges          prometheus.Counter
	Relocations     prometheus.Counter
	BouncedMessages prometheus.Counter
	EventsAccum     prometheus.Counter
	GossipRounds    prometheus.Counter
}

// NewSection registers a fresh set of section-lifecycle metrics. The
// namespace keeps multiple sections (as in a local multi-node demo)
// from colliding on the same collector names.
func NewSection(reg prometheus.Registerer, namespace string) (*Section, error) {
	s := &Section{
		Elders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "elders", Help: "current elder count",
		}),
		Members: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "members", Help: "current section member count",
		}),
		Splits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "splits_total", Help: "section splits applied",
		}),
		Merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "merges_total", Help: "section merges applied",
		}),
		Relocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "relocations_total", Help: "nodes relocated away from this section",
		}),
		BouncedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bounced_messages_total", Help: "messages bounced for stale or unknown section keys",
		}),
		EventsAccum: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_accumulated_total", Help: "accumulating events that reached quorum",
		}),
		GossipRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "gossip_rounds_total", Help: "PARSEC gossip rounds observed",
		}),
	}
	for _, c := range []prometheus.Collector{
		s.Elders, s.Members, s.Splits, s.Merges, s.Relocations,
		s.BouncedMessages, s.EventsAccum, s.GossipRounds,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}
