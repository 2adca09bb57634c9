// Package metrics holds the Prometheus collectors for the dialogue service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insure",
		Name:      "turns_total",
		Help:      "Conversation turns by phase at turn start and outcome.",
	}, []string{"phase", "outcome"})

	TurnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "insure",
		Name:      "turn_duration_seconds",
		Help:      "Wall time of a conversation turn.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase"})

	DigressionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insure",
		Name:      "digressions_total",
		Help:      "Off-flow questions answered, by resume phase and result.",
	}, []string{"phase", "result"})

	RetrievalFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "insure",
		Name:      "retrieval_fallbacks_total",
		Help:      "Recommendation runs that needed the generic fallback query.",
	})

	QuotesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "insure",
		Name:      "quotes_total",
		Help:      "Premium quotations computed.",
	})

	LeadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "insure",
		Name:      "leads_total",
		Help:      "Leads captured at the end of the closing flow.",
	})
)
