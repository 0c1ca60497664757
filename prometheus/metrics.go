package prometheus

import (
	"fmt"
	"time"

	"procurement-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Planning engine metrics
	PlanningOperationsCounter prometheus.CounterVec
	AllocationDuration        prometheus.Histogram
	LedgerConflictsCounter    prometheus.Counter

	// Capacity metrics
	CapacityUtilizationGauge prometheus.GaugeVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Planning engine metrics
	PlanningOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_planning_operations_total",
			Help: "Total number of planning operations (suggest, commit, replan, confirm, reject)",
		},
		[]string{"operation"},
	)

	AllocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_allocation_duration_seconds",
			Help:    "Duration of distribution computations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LedgerConflictsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_ledger_conflicts_total",
			Help: "Total number of capacity reservations abandoned after repeated version conflicts",
		},
	)

	// Capacity metrics
	CapacityUtilizationGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_capacity_utilization_ratio",
			Help: "Committed/maximum capacity ratio per supplier and product type",
		},
		[]string{"supplier_id", "product_type"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordPlanningOperation increments the counter for planning operations
func RecordPlanningOperation(operation string) {
	PlanningOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordLedgerConflict increments the abandoned-reservation counter
func RecordLedgerConflict() {
	LedgerConflictsCounter.Inc()
}

// UpdateCapacityUtilization updates the utilization gauge for one capability
func UpdateCapacityUtilization(supplierID uint, productType string, ratio float64) {
	CapacityUtilizationGauge.WithLabelValues(
		fmt.Sprintf("%d", supplierID),
		productType,
	).Set(ratio)
}
