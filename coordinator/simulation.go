package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/dataset"
	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/fl"
	"github.com/absmach/fedprox/pkg/model"
	"github.com/absmach/fedprox/pkg/privacy"
	"github.com/absmach/fedprox/pkg/scheduler"
)

// SimulationConfig describes a federation simulated on synthetic data.
type SimulationConfig struct {
	Strategy   string           `toml:"strategy"`
	Parties    int              `toml:"parties"`
	PartyNames []string         `toml:"party_names"`
	Rounds     int              `toml:"rounds"`
	Samples    int              `toml:"samples"`
	BatchSize  int              `toml:"batch_size"`
	Shuffle    bool             `toml:"shuffle"`
	Seed       uint64           `toml:"seed"`
	StorageDir string           `toml:"storage_dir"`
	Round      Config           `toml:"round"`
	Schedule   scheduler.Config `toml:"schedule"`
	Model      model.Config     `toml:"model"`
	Privacy    privacy.Config   `toml:"privacy"`
}

func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Strategy:  "fed_prox",
		Parties:   3,
		Rounds:    5,
		Samples:   256,
		BatchSize: dataset.DefaultBatchSize,
		Round:     Config{LocalSteps: 10, Mu: 0.01},
		Model: model.Config{
			Kind:         string(model.LogisticRegression),
			Features:     4,
			Optimizer:    model.OptimizerSGD,
			LearningRate: 0.1,
		},
		Privacy: privacy.Config{Mechanism: privacy.MechanismNone},
	}
}

// Summary is the outcome of a simulation.
type Summary struct {
	Parties []string        `json:"parties"`
	Rounds  []fl.RoundState `json:"rounds"`
	Model   fl.Model        `json:"model"`
}

// PartyIDs returns the configured names, padding with generated ones up to
// cfg.Parties.
func (cfg SimulationConfig) PartyIDs() []string {
	ids := append([]string(nil), cfg.PartyNames...)
	gen := namegenerator.NewGenerator()
	for i := len(ids); i < cfg.Parties; i++ {
		ids = append(ids, fmt.Sprintf("%s-%d", gen.Generate(), i))
	}

	return ids
}

// NewSimulation wires one in-memory party per ID behind a coordinator.
func NewSimulation(cfg SimulationConfig, logger *slog.Logger) (*Coordinator, []string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ids := cfg.PartyIDs()
	if len(ids) == 0 {
		return nil, nil, ErrNoParties
	}

	parties := make([]Participant, 0, len(ids))
	for _, id := range ids {
		m, err := model.FromConfig(cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		hook, err := privacy.NewStrategy(cfg.Privacy)
		if err != nil {
			return nil, nil, err
		}
		strategy, err := fedprox.New(cfg.Strategy, m, fedprox.WithLogger(logger.With(slog.String("party_id", id))))
		if err != nil {
			return nil, nil, err
		}

		opts := []dataset.Option{dataset.WithBatchSize(cfg.BatchSize)}
		if cfg.Shuffle {
			opts = append(opts, dataset.WithShuffle(cfg.Seed))
		}
		svc := party.NewService(id, strategy, hook, party.SyntheticSource(id, cfg.Samples, cfg.Model.Features, opts...), checkpoint.NewMemoryRepository(), logger)
		parties = append(parties, Participant{ID: id, Service: svc})
	}

	sched, err := scheduler.New(cfg.Schedule)
	if err != nil {
		return nil, nil, err
	}
	copts := []Option{WithLogger(logger), WithScheduler(sched)}
	if cfg.StorageDir != "" {
		storage, err := fl.NewPersistentStorage(filepath.Join(cfg.StorageDir, "rounds"), filepath.Join(cfg.StorageDir, "models"))
		if err != nil {
			return nil, nil, err
		}
		copts = append(copts, WithStorage(storage))
	}

	c, err := New(nil, parties, cfg.Round, copts...)
	if err != nil {
		return nil, nil, err
	}

	return c, ids, nil
}

// Simulate runs cfg.Rounds rounds and summarizes them.
func Simulate(ctx context.Context, cfg SimulationConfig, logger *slog.Logger) (Summary, error) {
	c, ids, err := NewSimulation(cfg, logger)
	if err != nil {
		return Summary{}, err
	}

	rounds, err := c.Run(ctx, cfg.Rounds)

	return Summary{Parties: ids, Rounds: rounds, Model: c.Model()}, err
}
