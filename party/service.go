// Package party hosts one FedProx participant: it owns the local model, the
// batch source and the checkpoint history, and answers round tasks.
package party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/fedprox/pkg/checkpoint"
	pkgerrors "github.com/absmach/fedprox/pkg/errors"
	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/fl"
)

// TrainingLogs holds the two most recent metric snapshots.
type TrainingLogs struct {
	Current  fedprox.Logs `json:"current"`
	Previous fedprox.Logs `json:"previous"`
}

type Service interface {
	// Train runs local training for one round and returns the update to
	// share. Calls are serialized.
	Train(ctx context.Context, task fl.Task) (fl.Update, error)
	Logs(ctx context.Context) (TrainingLogs, error)
	Checkpoints(ctx context.Context, offset, limit uint64) (checkpoint.Page, error)
}

// SourceFactory opens a fresh batch source. It is called on the first task
// and again after a source runs dry.
type SourceFactory func(ctx context.Context) (fedprox.BatchSource, error)

var _ Service = (*service)(nil)

type service struct {
	mu          sync.Mutex
	id          string
	strategy    fedprox.Strategy
	hook        fedprox.PrivacyHook
	sources     SourceFactory
	src         fedprox.BatchSource
	checkpoints checkpoint.Repository
	logger      *slog.Logger
}

func NewService(id string, strategy fedprox.Strategy, hook fedprox.PrivacyHook, sources SourceFactory, checkpoints checkpoint.Repository, logger *slog.Logger) Service {
	return &service{
		id:          id,
		strategy:    strategy,
		hook:        hook,
		sources:     sources,
		checkpoints: checkpoints,
		logger:      logger,
	}
}

func (s *service) Train(ctx context.Context, task fl.Task) (fl.Update, error) {
	if task.RoundID == "" {
		return fl.Update{}, errors.Join(pkgerrors.ErrValidation, pkgerrors.ErrMissingRoundID)
	}
	if s.strategy == nil {
		return fl.Update{}, fedprox.ErrNotConfigured
	}

	cfg, err := fedprox.ConfigFromOptions(task.Hyperparams, s.hook)
	if err != nil {
		return fl.Update{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil && task.LocalSteps > 0 {
		if s.sources == nil {
			return fl.Update{}, fmt.Errorf("%w: no data source configured", fedprox.ErrStarvedSource)
		}
		src, err := s.sources(ctx)
		if err != nil {
			return fl.Update{}, fmt.Errorf("failed to open batch source: %w", err)
		}
		s.src = src
	}

	weights := task.Params
	if len(weights) == 0 {
		weights = nil
	}

	res, err := s.strategy.Run(ctx, weights, task.Step, task.LocalSteps, s.src, cfg)
	if err != nil {
		if errors.Is(err, fedprox.ErrStarvedSource) {
			s.src = nil
		}

		return fl.Update{}, err
	}

	if s.checkpoints != nil {
		c, err := s.checkpoints.Save(ctx, checkpoint.Checkpoint{
			RoundID:    task.RoundID,
			Step:       task.Step + task.LocalSteps,
			NumSamples: res.NumSamples,
			Logs:       res.Logs,
			Params:     s.strategy.Parameters(),
		})
		if err != nil {
			s.logger.Warn("Failed to save checkpoint", slog.String("round_id", task.RoundID), slog.Any("error", err))
		} else {
			s.logger.Debug("Saved checkpoint", slog.String("round_id", task.RoundID), slog.String("checkpoint_id", c.ID))
		}
	}

	return fl.Update{
		RoundID:      task.RoundID,
		PartyID:      s.id,
		BaseModelURI: task.ModelRef,
		NumSamples:   res.NumSamples,
		Metrics:      res.Logs,
		Params:       res.Params,
		ReceivedAt:   time.Now().UTC(),
	}, nil
}

func (s *service) Logs(_ context.Context) (TrainingLogs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.strategy == nil {
		return TrainingLogs{}, fedprox.ErrNotConfigured
	}

	return TrainingLogs{Current: s.strategy.Logs(), Previous: s.strategy.PreviousLogs()}, nil
}

func (s *service) Checkpoints(ctx context.Context, offset, limit uint64) (checkpoint.Page, error) {
	if s.checkpoints == nil {
		return checkpoint.Page{Offset: offset, Limit: limit, Checkpoints: []checkpoint.Checkpoint{}}, nil
	}

	return s.checkpoints.List(ctx, offset, limit)
}
