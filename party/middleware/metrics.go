package middleware

import (
	"context"
	"time"

	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/fl"
	"github.com/go-kit/kit/metrics"
)

var _ party.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	samples metrics.Counter
	loss    metrics.Gauge
	svc     party.Service
}

// Metrics records request counts and latencies. samples and loss may be nil.
func Metrics(counter metrics.Counter, latency metrics.Histogram, samples metrics.Counter, loss metrics.Gauge, svc party.Service) party.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		samples: samples,
		loss:    loss,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Train(ctx context.Context, task fl.Task) (fl.Update, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "train").Add(1)
		mm.latency.With("method", "train").Observe(time.Since(begin).Seconds())
	}(time.Now())

	update, err := mm.svc.Train(ctx, task)
	if err != nil {
		return update, err
	}
	if mm.samples != nil {
		mm.samples.With("party", update.PartyID).Add(float64(update.NumSamples))
	}
	if l, ok := update.Metrics[fedprox.LossMetric]; ok && mm.loss != nil {
		mm.loss.With("party", update.PartyID).Set(l)
	}

	return update, nil
}

func (mm *metricsMiddleware) Logs(ctx context.Context) (party.TrainingLogs, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "logs").Add(1)
		mm.latency.With("method", "logs").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Logs(ctx)
}

func (mm *metricsMiddleware) Checkpoints(ctx context.Context, offset, limit uint64) (checkpoint.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "checkpoints").Add(1)
		mm.latency.With("method", "checkpoints").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Checkpoints(ctx, offset, limit)
}
