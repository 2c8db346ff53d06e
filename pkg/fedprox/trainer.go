package fedprox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/absmach/fedprox/pkg/tensor"
)

var _ Strategy = (*Trainer)(nil)

// Result is the outcome of one local training run.
type Result struct {
	// Params is a fresh snapshot of the final parameters, after the privacy hook.
	Params     tensor.Params
	NumSamples int
	Logs       Logs
}

// Strategy is a local training strategy a party runs once per round.
type Strategy interface {
	Run(ctx context.Context, weights tensor.Params, curStep, steps int, src BatchSource, cfg Config) (Result, error)
	Logs() Logs
	PreviousLogs() Logs
	Parameters() tensor.Params
}

type Option func(*Trainer)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Trainer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func WithCallbacks(cbs ...Callback) Option {
	return func(t *Trainer) {
		t.callbacks = append(t.callbacks, cbs...)
	}
}

// WithoutProximal disables the proximal term regardless of Config.Mu.
func WithoutProximal() Option {
	return func(t *Trainer) {
		t.proximal = false
	}
}

// Trainer runs FedProx local training for a single party. It is not safe for
// concurrent use; callers must serialize Run.
type Trainer struct {
	model     Model
	proximal  bool
	callbacks []Callback
	logger    *slog.Logger

	logs     Logs
	prevLogs Logs
}

func NewTrainer(model Model, opts ...Option) *Trainer {
	t := &Trainer{
		model:    model,
		proximal: true,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Attach replaces the underlying model. Optimizer state moves with the model.
func (t *Trainer) Attach(model Model) {
	t.model = model
}

// Run performs steps local updates starting from weights and returns the
// final parameters with the number of samples consumed. A nil weights keeps
// the model's current parameters and disables the proximal term.
func (t *Trainer) Run(ctx context.Context, weights tensor.Params, curStep, steps int, src BatchSource, cfg Config) (Result, error) {
	if t.model == nil {
		return Result{}, ErrNotConfigured
	}
	if steps < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidStepCount, steps)
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if src == nil && steps > 0 {
		return Result{}, fmt.Errorf("%w: no batch source", ErrStarvedSource)
	}

	begin := time.Now()

	var anchor tensor.Params
	if weights != nil {
		anchor = weights.Clone()
		if err := tensor.Compatible(anchor, t.model.Parameters()); err != nil {
			return Result{}, err
		}
		if err := t.model.SetParameters(anchor.Clone()); err != nil {
			return Result{}, fmt.Errorf("failed to set received weights: %w", err)
		}
	}
	prox := t.proximal && anchor != nil && cfg.Mu > 0

	for _, cb := range t.callbacks {
		cb.OnTrainBatchBegin(curStep)
	}

	metrics := newStepMetrics(t.model.Metrics())
	numSamples := 0
	var lastProx float64

	for step := range steps {
		batch, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Result{}, fmt.Errorf("%w: after %d of %d local steps", ErrStarvedSource, step, steps)
			}

			return Result{}, fmt.Errorf("failed to fetch batch for local step %d: %w", step, err)
		}

		x, err := batch.normalize()
		if err != nil {
			return Result{}, fmt.Errorf("local step %d: %w", step, err)
		}
		rows, _ := x.Dims()
		numSamples += rows

		eval, err := t.model.Evaluate(x, batch.Y, batch.Weights)
		if err != nil {
			return Result{}, fmt.Errorf("local step %d: forward pass failed: %w", step, err)
		}

		grads := eval.Gradients
		if prox {
			value, pgrad, err := proximal(cfg.Mu, anchor, t.model.Parameters())
			if err != nil {
				return Result{}, err
			}
			lastProx = value
			if err := tensor.AddScaled(grads, 1, pgrad); err != nil {
				return Result{}, fmt.Errorf("local step %d: %w", step, err)
			}
		}

		if err := t.model.ApplyGradients(grads); err != nil {
			return Result{}, fmt.Errorf("local step %d: optimizer update failed: %w", step, err)
		}

		metrics.update(eval.Loss, rows, batch.Y, eval.Predictions, batch.Weights)
	}

	logs := metrics.finalize()
	for _, cb := range t.callbacks {
		cb.OnTrainBatchEnd(curStep+steps, logs.Clone())
	}

	final := t.model.Parameters().Clone()
	if cfg.PrivacyHook != nil {
		protected, err := cfg.PrivacyHook.Apply(final.Clone())
		if err != nil {
			return Result{}, err
		}
		if err := tensor.Compatible(final, protected); err != nil {
			return Result{}, fmt.Errorf("privacy hook changed parameter shapes: %w", err)
		}
		final = protected
	}

	// A run that fails closed leaves both log generations untouched.
	t.prevLogs = t.logs
	t.logs = logs

	t.logger.Debug("Local training completed",
		slog.Int("cur_step", curStep),
		slog.Int("local_steps", steps),
		slog.Int("num_samples", numSamples),
		slog.Float64("mu", cfg.Mu),
		slog.Bool("proximal", prox),
		slog.Float64("proximal_term", lastProx),
		slog.String("duration", time.Since(begin).String()),
	)

	return Result{Params: final, NumSamples: numSamples, Logs: logs.Clone()}, nil
}

// Logs returns the metric snapshot of the most recent Run.
func (t *Trainer) Logs() Logs {
	return t.logs.Clone()
}

// PreviousLogs returns the snapshot of the Run before the most recent one.
func (t *Trainer) PreviousLogs() Logs {
	return t.prevLogs.Clone()
}

// Parameters returns a copy of the model's live parameters, or nil when no
// model is attached.
func (t *Trainer) Parameters() tensor.Params {
	if t.model == nil {
		return nil
	}

	return t.model.Parameters().Clone()
}
