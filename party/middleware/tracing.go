package middleware

import (
	"context"

	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/fl"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ party.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    party.Service
}

func Tracing(tracer trace.Tracer, svc party.Service) party.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Train(ctx context.Context, task fl.Task) (update fl.Update, err error) {
	ctx, span := tm.tracer.Start(ctx, "train", trace.WithAttributes(
		attribute.String("round_id", task.RoundID),
		attribute.Int("step", task.Step),
		attribute.Int("local_steps", task.LocalSteps),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("num_samples", update.NumSamples))
		}
		span.End()
	}()

	return tm.svc.Train(ctx, task)
}

func (tm *tracing) Logs(ctx context.Context) (party.TrainingLogs, error) {
	ctx, span := tm.tracer.Start(ctx, "logs")
	defer span.End()

	return tm.svc.Logs(ctx)
}

func (tm *tracing) Checkpoints(ctx context.Context, offset, limit uint64) (checkpoint.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "checkpoints", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.Checkpoints(ctx, offset, limit)
}
