// Package prometheus builds the go-kit request metrics exported by services.
package prometheus

import (
	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MakeMetrics returns a request counter and a latency summary, both labelled
// by method.
func MakeMetrics(namespace, subsystem string) (metrics.Counter, metrics.Histogram) {
	counter := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, []string{"method"})
	latency := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_latency_seconds",
		Help:      "Total duration of requests in seconds.",
	}, []string{"method"})

	return counter, latency
}

// MakeTrainingMetrics returns gauges describing the last local training run.
func MakeTrainingMetrics(namespace string) (samples metrics.Counter, loss metrics.Gauge) {
	samples = kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "training",
		Name:      "samples_total",
		Help:      "Number of samples consumed by local training.",
	}, []string{"party"})
	loss = kitprometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "training",
		Name:      "loss",
		Help:      "Mean loss of the last local training run.",
	}, []string{"party"})

	return samples, loss
}
