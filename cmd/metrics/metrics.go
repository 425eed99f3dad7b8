package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScreenerQueries counts public screener list reads by data source.
	ScreenerQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screener_queries_total",
			Help: "Public screener list requests, labeled by serving source",
		},
		[]string{"source"}, // cache or db
	)

	// SubscriptionActivations counts placement purchases by outcome.
	SubscriptionActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_activations_total",
			Help: "Subscription activation attempts, labeled by outcome",
		},
		[]string{"status"}, // success or failure
	)

	// ScreenerQueryDuration tracks the latency of uncached screener queries.
	ScreenerQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screener_query_duration_seconds",
			Help:    "Duration of screener database queries in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
	)
)
