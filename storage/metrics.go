package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ranked_vods",
			Name:      "match_cache_lookups_total",
			Help:      "Match cache lookups by outcome (hit, miss, corrupt).",
		},
		[]string{"outcome"},
	)

	cacheWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ranked_vods",
			Name:      "match_cache_write_failures_total",
			Help:      "Match records that were fetched but could not be persisted.",
		},
	)
)
