package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/fl"
)

var _ party.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    party.Service
}

func Logging(logger *slog.Logger, svc party.Service) party.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Train(ctx context.Context, task fl.Task) (update fl.Update, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("task",
				slog.String("round_id", task.RoundID),
				slog.Int("step", task.Step),
				slog.Int("local_steps", task.LocalSteps),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Local training failed", args...)

			return
		}
		args = append(args, slog.Group("update",
			slog.String("party_id", update.PartyID),
			slog.Int("num_samples", update.NumSamples),
		))
		lm.logger.Info("Local training completed successfully", args...)
	}(time.Now())

	return lm.svc.Train(ctx, task)
}

func (lm *loggingMiddleware) Logs(ctx context.Context) (logs party.TrainingLogs, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get training logs failed", args...)

			return
		}
		lm.logger.Info("Get training logs completed successfully", args...)
	}(time.Now())

	return lm.svc.Logs(ctx)
}

func (lm *loggingMiddleware) Checkpoints(ctx context.Context, offset, limit uint64) (page checkpoint.Page, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List checkpoints failed", args...)

			return
		}
		lm.logger.Info("List checkpoints completed successfully", args...)
	}(time.Now())

	return lm.svc.Checkpoints(ctx, offset, limit)
}
