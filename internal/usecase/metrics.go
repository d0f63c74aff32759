package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
)

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "sparky",
		Subsystem: "relay",
		Name:      "requests_total",
		Help:      "Counts relay operations by outcome",
	},
	[]string{"operation", "outcome"}, // outcome: ok or an error code
)

var providerLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "sparky",
		Subsystem: "provider",
		Name:      "latency_seconds",
		Help:      "Latency of generative-AI provider calls",
		Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 10, 15, 20, 30},
	},
	[]string{"provider", "status"},
)

var bookingCaptureTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "sparky",
		Subsystem: "booking",
		Name:      "capture_total",
		Help:      "Counts transcript booking captures by outcome",
	},
	[]string{"outcome"}, // outcome: incomplete, duplicate, submitted, error
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(providerLatency)
	prometheus.MustRegister(bookingCaptureTotal)
}

// RegisterMetrics registers relay metrics with a custom registry.
func RegisterMetrics(reg prometheus.Registerer) {
	if reg == nil || reg == prometheus.DefaultRegisterer {
		return
	}
	reg.MustRegister(requestsTotal, providerLatency, bookingCaptureTotal)
}

func observeOutcome(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(CodeOf(err))
	}
	requestsTotal.WithLabelValues(operation, outcome).Inc()
}
