// Package coordinator drives FedProx rounds in-process: it hands the global
// model to every party, collects their updates and aggregates them.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/fl"
	"github.com/absmach/fedprox/pkg/scheduler"
	"github.com/absmach/fedprox/pkg/tensor"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoParties    = errors.New("no parties registered")
	ErrInvalidRound = errors.New("invalid round settings")
	ErrAllExcluded  = errors.New("every party was excluded from the round")
	ErrInvalidParty = errors.New("invalid party")
)

// Participant is a party reachable by the coordinator.
type Participant struct {
	ID      string
	Service party.Service
}

// Config holds the per-round settings sent to every party.
type Config struct {
	LocalSteps int            `toml:"local_steps"`
	Mu         float64        `toml:"mu"`
	Parallel   int            `toml:"parallel"`
	Options    map[string]any `toml:"options"`
}

type Option func(*Coordinator)

func WithAggregator(a fl.Aggregator) Option {
	return func(c *Coordinator) {
		if a != nil {
			c.aggregator = a
		}
	}
}

// WithStorage persists every round state and model version.
func WithStorage(s *fl.PersistentStorage) Option {
	return func(c *Coordinator) {
		c.storage = s
	}
}

// WithScheduler picks a subset of parties every round. All parties train by
// default.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.scheduler = s
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type Coordinator struct {
	mu         sync.Mutex
	parties    []Participant
	cfg        Config
	aggregator fl.Aggregator
	scheduler  scheduler.Scheduler
	storage    *fl.PersistentStorage
	logger     *slog.Logger
	model      fl.Model
	step       int
}

// New starts from initial as model version 0. A nil initial lets each party
// train from its own state in the first round.
func New(initial tensor.Params, parties []Participant, cfg Config, opts ...Option) (*Coordinator, error) {
	if len(parties) == 0 {
		return nil, ErrNoParties
	}
	seen := make(map[string]struct{}, len(parties))
	for _, p := range parties {
		if _, ok := seen[p.ID]; ok || p.ID == "" || p.Service == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidParty, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if cfg.LocalSteps < 0 || cfg.Parallel < 0 {
		return nil, fmt.Errorf("%w: local steps %d, parallel %d", ErrInvalidRound, cfg.LocalSteps, cfg.Parallel)
	}
	if err := (fedprox.Config{Mu: cfg.Mu}).Validate(); err != nil {
		return nil, err
	}

	c := &Coordinator{
		parties:    parties,
		cfg:        cfg,
		aggregator: fl.NewFedAvgAggregator(),
		scheduler:  scheduler.NewAll(),
		logger:     slog.New(slog.DiscardHandler),
		model:      fl.Model{Params: initial.Clone()},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Model returns a copy of the current global model.
func (c *Coordinator) Model() fl.Model {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.model
	m.Params = c.model.Params.Clone()

	return m
}

// Run executes rounds sequentially and returns their states. It stops at the
// first round that fails.
func (c *Coordinator) Run(ctx context.Context, rounds int) ([]fl.RoundState, error) {
	if rounds < 0 {
		return nil, fmt.Errorf("%w: %d rounds", ErrInvalidRound, rounds)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	states := make([]fl.RoundState, 0, rounds)
	for range rounds {
		state, err := c.round(ctx)
		if err != nil {
			return states, err
		}
		states = append(states, state)
	}

	return states, nil
}

func (c *Coordinator) round(ctx context.Context) (fl.RoundState, error) {
	version := c.model.Version + 1
	state := fl.RoundState{
		RoundID:      fmt.Sprintf("round-%d", version),
		ModelVersion: version,
		StartTime:    time.Now().UTC(),
		Excluded:     make(map[string]string),
	}

	hyperparams := make(map[string]any, len(c.cfg.Options)+1)
	for k, v := range c.cfg.Options {
		hyperparams[k] = v
	}
	hyperparams[fedprox.MuOption] = c.cfg.Mu

	selected, err := c.selectParties(version - 1)
	if err != nil {
		return state, fmt.Errorf("round %s: %w", state.RoundID, err)
	}

	updates := make([]*fl.Update, len(selected))
	var excludedMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if c.cfg.Parallel > 0 {
		g.SetLimit(c.cfg.Parallel)
	}
	for i, p := range selected {
		task := fl.Task{
			RoundID:     state.RoundID,
			ModelRef:    fmt.Sprintf("fl/models/global_model_v%d", c.model.Version),
			Step:        c.step,
			LocalSteps:  c.cfg.LocalSteps,
			Params:      c.model.Params.Clone(),
			Hyperparams: hyperparams,
		}
		g.Go(func() error {
			update, err := p.Service.Train(gctx, task)
			switch {
			case errors.Is(err, fedprox.ErrStarvedSource):
				c.logger.Warn("Party excluded from round",
					slog.String("round_id", task.RoundID),
					slog.String("party_id", p.ID),
					slog.Any("error", err))
				excludedMu.Lock()
				state.Excluded[p.ID] = err.Error()
				excludedMu.Unlock()

				return nil
			case err != nil:
				return fmt.Errorf("party %s: %w", p.ID, err)
			}
			if update.PartyID == "" {
				update.PartyID = p.ID
			}
			update.ReceivedAt = time.Now().UTC()
			updates[i] = &update

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return state, fmt.Errorf("round %s: %w", state.RoundID, err)
	}

	for _, u := range updates {
		if u != nil {
			state.Updates = append(state.Updates, *u)
		}
	}
	if len(state.Updates) == 0 {
		return state, fmt.Errorf("round %s: %w", state.RoundID, ErrAllExcluded)
	}

	model, err := c.aggregator.Aggregate(state.Updates)
	if err != nil {
		return state, fmt.Errorf("round %s: %w", state.RoundID, err)
	}
	model.Version = version
	if model.Metadata == nil {
		model.Metadata = make(map[string]any)
	}
	model.Metadata["round_id"] = state.RoundID

	state.EndTime = time.Now().UTC()
	state.Completed = true

	if c.storage != nil {
		if err := c.storage.SaveModel(model); err != nil {
			return state, err
		}
		if err := c.storage.SaveRound(state); err != nil {
			return state, err
		}
	}

	c.model = model
	c.step += c.cfg.LocalSteps

	c.logger.Info("Round completed",
		slog.String("round_id", state.RoundID),
		slog.Int("model_version", version),
		slog.Int("updates", len(state.Updates)),
		slog.Int("excluded", len(state.Excluded)),
		slog.String("duration", state.EndTime.Sub(state.StartTime).String()))

	return state, nil
}

func (c *Coordinator) selectParties(round int) ([]Participant, error) {
	ids := make([]string, len(c.parties))
	byID := make(map[string]Participant, len(c.parties))
	for i, p := range c.parties {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	picked, err := c.scheduler.Select(round, ids)
	if err != nil {
		return nil, err
	}

	selected := make([]Participant, 0, len(picked))
	for _, id := range picked {
		selected = append(selected, byID[id])
	}

	return selected, nil
}
