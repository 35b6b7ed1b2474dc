package metrics

import (
	"database/sql"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "telemetry_"

	resultSuccess = "success"
	resultError   = "error"
)

// Ingest results
const (
	IngestDecodeError   = "decode_error"
	IngestUnknownSensor = "unknown_sensor"
	IngestStoreError    = "store_error"
	IngestStored        = "stored"
)

var (
	registerOnce sync.Once

	ingestMessages *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	brokerConnected  prometheus.Gauge
	brokerReconnects prometheus.Counter
	storeAttempts    *prometheus.CounterVec

	cacheErrors prometheus.Counter

	apiRequests *prometheus.CounterVec
)

// Init registers the process metrics. db may be nil.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		ingestMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_messages_total",
				Help: "Broker messages handled by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Per-message handling latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		brokerConnected = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "broker_connected",
				Help: "1 while the broker connection is up and subscribed",
			},
		)
		brokerReconnects = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "broker_reconnects_total",
				Help: "Broker connections re-established after a loss",
			},
		)
		storeAttempts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_connect_attempts_total",
				Help: "Store readiness attempts by result",
			},
			[]string{"result"},
		)

		cacheErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "latest_cache_errors_total",
				Help: "Failed latest-value cache writes",
			},
		)

		apiRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "api_requests_total",
				Help: "HTTP API requests by route and status code",
			},
			[]string{"route", "code"},
		)

		prometheus.MustRegister(
			ingestMessages,
			ingestLatency,
			brokerConnected,
			brokerReconnects,
			storeAttempts,
			cacheErrors,
			apiRequests,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records one handled message
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = IngestStored
	}
	if ingestMessages != nil {
		ingestMessages.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// SetBrokerConnected flips the broker gauge
func SetBrokerConnected(up bool) {
	if brokerConnected == nil {
		return
	}
	if up {
		brokerConnected.Set(1)
	} else {
		brokerConnected.Set(0)
	}
}

// IncBrokerReconnect counts a recovered connection
func IncBrokerReconnect() {
	if brokerReconnects != nil {
		brokerReconnects.Inc()
	}
}

// IncStoreAttempt counts one readiness attempt
func IncStoreAttempt(err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if storeAttempts != nil {
		storeAttempts.WithLabelValues(result).Inc()
	}
}

// IncCacheError counts a failed cache write
func IncCacheError() {
	if cacheErrors != nil {
		cacheErrors.Inc()
	}
}

// IncAPIRequest counts one served request
func IncAPIRequest(route string, code int) {
	if route == "" {
		route = "unknown"
	}
	if apiRequests != nil {
		apiRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	}
}
