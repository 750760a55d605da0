package main

import "github.com/prometheus/client_golang/prometheus"

var (
	challengesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "justicar",
		Subsystem: "handover",
		Name:      "challenges_issued_total",
		Help:      "Challenges issued by this node acting as handover server.",
	})

	handoversCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "justicar",
		Subsystem: "handover",
		Name:      "completed_total",
		Help:      "Completed HandoverStart calls, labeled by outcome.",
	}, []string{"outcome"})

	handoverDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "justicar",
		Subsystem: "handover",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of HandoverStart, including attestation I/O.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(challengesIssued, handoversCompleted, handoverDuration)
}
