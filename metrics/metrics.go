package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TxRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_tx_retries_total",
		Help: "Units of work retried after a lock conflict",
	})

	TxContentionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_tx_contention_failures_total",
		Help: "Units of work abandoned after exhausting lock-conflict retries",
	})

	TxRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_tx_rollbacks_total",
		Help: "Transactions rolled back",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_cache_hits_total",
		Help: "Cached query results served from memory",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_cache_misses_total",
		Help: "Cached queries that fell through to the database",
	})

	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamvault_cache_invalidations_total",
		Help: "Cache invalidations by scope",
	}, []string{"scope"})

	MailSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamvault_mail_sent_total",
		Help: "Outbound mail delivery attempts by result",
	}, []string{"result"})

	ResetMailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_password_reset_mail_failures_total",
		Help: "Password reset links issued but not delivered",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamvault_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)
