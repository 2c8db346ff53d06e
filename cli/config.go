package cli

import (
	"fmt"
	"os"

	"github.com/absmach/fedprox/coordinator"
	"github.com/pelletier/go-toml"
)

// LoadSimulationConfig reads a TOML simulation file. Zero or missing keys
// fall back to the defaults.
func LoadSimulationConfig(path string) (coordinator.SimulationConfig, error) {
	if path == "" {
		return coordinator.DefaultSimulationConfig(), nil
	}

	var cfg coordinator.SimulationConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return cfg, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := tree.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return withDefaults(cfg), nil
}

func withDefaults(cfg coordinator.SimulationConfig) coordinator.SimulationConfig {
	def := coordinator.DefaultSimulationConfig()
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.Parties == 0 && len(cfg.PartyNames) == 0 {
		cfg.Parties = def.Parties
	}
	if cfg.Rounds == 0 {
		cfg.Rounds = def.Rounds
	}
	if cfg.Samples == 0 {
		cfg.Samples = def.Samples
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Round.LocalSteps == 0 {
		cfg.Round.LocalSteps = def.Round.LocalSteps
	}
	if cfg.Model.Kind == "" {
		cfg.Model.Kind = def.Model.Kind
	}
	if cfg.Model.Features == 0 {
		cfg.Model.Features = def.Model.Features
	}
	if cfg.Model.LearningRate == 0 {
		cfg.Model.LearningRate = def.Model.LearningRate
	}
	if cfg.Privacy.Mechanism == "" {
		cfg.Privacy.Mechanism = def.Privacy.Mechanism
	}

	return cfg
}
