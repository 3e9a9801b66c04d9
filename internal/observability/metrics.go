package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "futctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests against the admin endpoint.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "futctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	connectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "futctl",
			Subsystem: "explorer",
			Name:      "connect_attempts_total",
			Help:      "Engine dial attempts by result.",
		},
		[]string{"result"},
	)
	samplesClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "futctl",
			Subsystem: "explorer",
			Name:      "samples_classified_total",
			Help:      "Probe points classified, by verdict.",
		},
		[]string{"class"},
	)
	classifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "futctl",
			Subsystem: "explorer",
			Name:      "classification_duration_seconds",
			Help:      "Single forward-pass classification duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 10, 9),
		},
	)
	rounds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "futctl",
			Subsystem: "explorer",
			Name:      "rounds_total",
			Help:      "Exploration rounds by terminal status.",
		},
		[]string{"status"},
	)
	sessionSamples = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "futctl",
			Subsystem: "explorer",
			Name:      "session_samples",
			Help:      "Samples collected per session.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			connectAttempts, samplesClassified, classifyDuration,
			rounds, sessionSamples,
		)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordConnectAttempt(result string) {
	RegisterMetrics()
	connectAttempts.WithLabelValues(result).Inc()
}

func RecordClassification(duration time.Duration, valid bool) {
	RegisterMetrics()
	class := "invalid"
	if valid {
		class = "valid"
	}
	samplesClassified.WithLabelValues(class).Inc()
	classifyDuration.Observe(duration.Seconds())
}

func RecordRound(status string, samples int) {
	RegisterMetrics()
	rounds.WithLabelValues(status).Inc()
	sessionSamples.Observe(float64(samples))
}
