// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics exposes Prometheus counters for the GPS acquisition loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts line outcomes, emitted fixes and sink failures.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	lines      *prometheus.CounterVec
	fixes      prometheus.Counter
	sinkErrors *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gps",
			Name:      "lines_total",
			Help:      "Lines read from the receiver, by processing outcome.",
		}, []string{"outcome"}),
		fixes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gps",
			Name:      "fixes_total",
			Help:      "Fix records assembled and dispatched.",
		}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gps",
			Name:      "sink_errors_total",
			Help:      "Failed fix deliveries, by sink.",
		}, []string{"sink"}),
	}
	reg.MustRegister(m.lines, m.fixes, m.sinkErrors)
	return m
}

func (m *Metrics) ObserveLine(outcome string) {
	if m == nil {
		return
	}
	m.lines.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFix() {
	if m == nil {
		return
	}
	m.fixes.Inc()
}

func (m *Metrics) ObserveSinkError(sink string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
