package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	signupCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signup_service",
		Subsystem: "registry",
		Name:      "signups_total",
		Help:      "Number of successful activity signups.",
	}, []string{"activity"})

	unregisterCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signup_service",
		Subsystem: "registry",
		Name:      "unregistrations_total",
		Help:      "Number of participants removed from an activity.",
	}, []string{"activity"})

	rejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "signup_service",
		Subsystem: "registry",
		Name:      "rejected_total",
		Help:      "Roster mutations rejected by a precondition, labeled by operation and reason.",
	}, []string{"operation", "reason"})

	rosterGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "signup_service",
		Subsystem: "registry",
		Name:      "participants",
		Help:      "Current roster size per activity.",
	}, []string{"activity"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "signup_service",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency grouped by method and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})
)

func init() {
	prometheus.MustRegister(signupCounter, unregisterCounter, rejectedCounter, rosterGauge, requestDuration)
}

// RecordSignup counts a successful signup.
func RecordSignup(activity string) {
	signupCounter.WithLabelValues(activity).Inc()
}

// RecordUnregister counts a successful removal.
func RecordUnregister(activity string) {
	unregisterCounter.WithLabelValues(activity).Inc()
}

// RecordRejected counts a failed roster mutation.
func RecordRejected(operation, reason string) {
	rejectedCounter.WithLabelValues(operation, reason).Inc()
}

// RecordRosterSize sets the participant gauge for an activity.
func RecordRosterSize(activity string, size int) {
	rosterGauge.WithLabelValues(activity).Set(float64(size))
}

// ObserveRequest records the latency of a completed HTTP request.
func ObserveRequest(method string, status int, elapsed time.Duration) {
	requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
