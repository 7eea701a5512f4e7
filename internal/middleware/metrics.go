package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Message metrics
	messagesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_chat_messages_appended_total",
		Help: "Total number of messages appended to chats",
	}, []string{"role"})

	// Backend metrics
	backendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nexus_chat_backend_request_duration_seconds",
		Help:    "Duration of language-model backend requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model", "status"})

	backendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_chat_backend_requests_total",
		Help: "Total number of language-model backend requests",
	}, []string{"model", "status"})

	staleResponsesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nexus_chat_stale_responses_dropped_total",
		Help: "Backend responses discarded because the user switched away",
	})

	// Rating metrics
	ratingsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_chat_ratings_recorded_total",
		Help: "Total number of assistant ratings recorded",
	}, []string{"assistant_id"})

	// Cache metrics
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nexus_chat_cache_hits_total",
		Help: "Total number of response cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nexus_chat_cache_misses_total",
		Help: "Total number of response cache misses",
	})

	// Rate limit metrics
	rateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_chat_rate_limit_exceeded_total",
		Help: "Total number of rate limit exceeded events",
	}, []string{"client_id"})

	// Storage metrics
	storageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_chat_storage_operations_total",
		Help: "Total number of storage operations",
	}, []string{"operation", "status"})

	storageOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nexus_chat_storage_operation_duration_seconds",
		Help:    "Duration of storage operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// Active chats gauge
	activeChats = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nexus_chat_active_chats",
		Help: "Number of non-archived chats",
	})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordMessageAppended records a message appended to a chat
func (m *Metrics) RecordMessageAppended(role string) {
	messagesAppended.WithLabelValues(role).Inc()
}

// RecordBackendRequest records a backend request
func (m *Metrics) RecordBackendRequest(model, status string, duration time.Duration) {
	backendRequestDuration.WithLabelValues(model, status).Observe(duration.Seconds())
	backendRequestsTotal.WithLabelValues(model, status).Inc()
}

// RecordStaleResponseDropped records a discarded late backend response
func (m *Metrics) RecordStaleResponseDropped() {
	staleResponsesDropped.Inc()
}

// RecordRating records a submitted assistant rating
func (m *Metrics) RecordRating(assistantID string) {
	ratingsRecorded.WithLabelValues(assistantID).Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss() {
	cacheMisses.Inc()
}

// RecordRateLimitExceeded records a rate limit exceeded event
func (m *Metrics) RecordRateLimitExceeded(clientID string) {
	rateLimitExceeded.WithLabelValues(clientID).Inc()
}

// RecordStorageOperation records a storage operation
func (m *Metrics) RecordStorageOperation(operation, status string, duration time.Duration) {
	storageOperations.WithLabelValues(operation, status).Inc()
	storageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetActiveChats sets the number of non-archived chats
func (m *Metrics) SetActiveChats(count float64) {
	activeChats.Set(count)
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
