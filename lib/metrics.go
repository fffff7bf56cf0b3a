package lib

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	challengesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sortcha_challenges_issued",
		Help: "The total number of challenge tokens issued",
	}, []string{"game"})

	verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sortcha_verifications",
		Help: "The total number of verify calls by outcome reason",
	}, []string{"reason"})

	reportedMoves = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sortcha_reported_moves",
		Help:    "Move counts claimed in submitted outcomes, a rough anti-abuse signal",
		Buckets: prometheus.ExponentialBucketsRange(1, 1024, 11),
	})
)
