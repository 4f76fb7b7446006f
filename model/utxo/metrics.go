package utxo

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusCoinsFlush        prometheus.Counter
	prometheusCoinsBatches      *prometheus.CounterVec
	prometheusCoinsBatchBytes   prometheus.Histogram
	prometheusCoinsWritten      prometheus.Counter
	prometheusCoinsErased       prometheus.Counter
	prometheusCoinsFlushErrors  prometheus.Counter
	prometheusCoinsCacheHit     prometheus.Counter
	prometheusCoinsCacheMiss    prometheus.Counter
	prometheusCoinsFlushSeconds prometheus.Histogram

	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCoinsFlush = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainstate_coins_flush",
			Help: "Number of coin database flushes started",
		},
	)
	prometheusCoinsBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainstate_coins_batches",
			Help: "Number of coin database batches committed",
		},
		[]string{
			"phase", // mark, coins or commit
		},
	)
	prometheusCoinsBatchBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chainstate_coins_batch_bytes",
			Help:    "Estimated size of committed coin batches",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)
	prometheusCoinsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainstate_coins_written",
			Help: "Number of coins written to the coin database",
		},
	)
	prometheusCoinsErased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainstate_coins_erased",
			Help: "Number of coins erased from the coin database",
		},
	)
	prometheusCoinsFlushErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainstate_coins_flush_errors",
			Help: "Number of coin database flushes that failed",
		},
	)
	prometheusCoinsCacheHit = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainstate_coins_cache_hit",
			Help: "Number of coin lookups answered by the cache",
		},
	)
	prometheusCoinsCacheMiss = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainstate_coins_cache_miss",
			Help: "Number of coin lookups passed to the layer below the cache",
		},
	)
	prometheusCoinsFlushSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chainstate_coins_flush_seconds",
			Help:    "Duration of coin database flushes",
			Buckets: prometheus.DefBuckets,
		},
	)
}
