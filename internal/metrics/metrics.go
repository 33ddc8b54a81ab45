// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "logwatch"

var (
	// Admissions counts finished admissions by variant and outcome.
	Admissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admissions_total",
		Help:      "Log payloads handled by the front door, by variant and outcome.",
	}, []string{"variant", "outcome"})

	// TokenLookups counts resolver results: hit, miss, not_found, revoked, error.
	TokenLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_lookups_total",
		Help:      "Access token resolutions by result.",
	}, []string{"result"})

	// SinkDuration observes forwarding latency per sink.
	SinkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sink_duration_seconds",
		Help:      "Time spent forwarding accepted payloads to a sink.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"sink", "result"})
)
