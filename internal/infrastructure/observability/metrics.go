package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Счётчик вызовов методов репозитория
	RepositoryCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_calls_total",
			Help: "Total number of repository method calls",
		},
		[]string{"method", "status"},
	)

	RepositoryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_duration_seconds",
			Help:    "Duration of repository method calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	SessionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_session_outcomes_total",
			Help: "Login, refresh and logout outcomes",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(RepositoryCalls, RepositoryDuration, SessionOutcomes)
}

func ObserveRepository(method string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RepositoryCalls.WithLabelValues(method, status).Inc()
	RepositoryDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
