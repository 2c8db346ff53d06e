package cli

import (
	"log/slog"
	"os"

	"github.com/absmach/fedprox/coordinator"
	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/fl"
	"github.com/spf13/cobra"
)

type roundSummary struct {
	RoundID    string             `json:"round_id"`
	Version    int                `json:"model_version"`
	Updates    int                `json:"updates"`
	NumSamples int                `json:"num_samples"`
	Excluded   map[string]string  `json:"excluded,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

type simulationResult struct {
	Parties []string       `json:"parties"`
	Rounds  []roundSummary `json:"rounds"`
	Model   *fl.Model      `json:"model,omitempty"`
}

func summarize(state fl.RoundState) roundSummary {
	rs := roundSummary{
		RoundID:  state.RoundID,
		Version:  state.ModelVersion,
		Updates:  len(state.Updates),
		Excluded: state.Excluded,
		Metrics:  make(map[string]float64),
	}
	for _, u := range state.Updates {
		rs.NumSamples += u.NumSamples
	}
	for _, u := range state.Updates {
		for k, v := range u.Metrics {
			if rs.NumSamples > 0 {
				rs.Metrics[k] += v * float64(u.NumSamples) / float64(rs.NumSamples)
			}
		}
	}

	return rs
}

func NewSimulateCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		showModel  bool
		override   coordinator.SimulationConfig
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a FedProx federation",
		Long: `Simulate a FedProx federation in-process on synthetic data.

Examples:
  # Run with defaults
  fedprox simulate

  # Run from a TOML file and override the proximal coefficient
  fedprox simulate --config simulation.toml --mu 0.1`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg, err := LoadSimulationConfig(configPath)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			flags := cmd.Flags()
			if flags.Changed("parties") {
				cfg.Parties = override.Parties
			}
			if flags.Changed("rounds") {
				cfg.Rounds = override.Rounds
			}
			if flags.Changed("local-steps") {
				cfg.Round.LocalSteps = override.Round.LocalSteps
			}
			if flags.Changed("mu") {
				cfg.Round.Mu = override.Round.Mu
			}
			if flags.Changed("strategy") {
				cfg.Strategy = override.Strategy
			}
			if flags.Changed("storage-dir") {
				cfg.StorageDir = override.StorageDir
			}

			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			summary, err := coordinator.Simulate(cmd.Context(), cfg, logger)
			res := simulationResult{Parties: summary.Parties}
			for _, state := range summary.Rounds {
				res.Rounds = append(res.Rounds, summarize(state))
			}
			if showModel {
				res.Model = &summary.Model
			}
			logJSONCmd(*cmd, res)
			if err != nil {
				logErrorCmd(*cmd, err)
			}
		},
	}

	def := coordinator.DefaultSimulationConfig()
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML simulation config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	cmd.Flags().BoolVar(&showModel, "show-model", false, "print the final global model")
	cmd.Flags().IntVarP(&override.Parties, "parties", "p", def.Parties, "number of parties")
	cmd.Flags().IntVarP(&override.Rounds, "rounds", "r", def.Rounds, "number of rounds")
	cmd.Flags().IntVar(&override.Round.LocalSteps, "local-steps", def.Round.LocalSteps, "local steps per round")
	cmd.Flags().Float64Var(&override.Round.Mu, "mu", def.Round.Mu, "proximal coefficient")
	cmd.Flags().StringVar(&override.Strategy, "strategy", def.Strategy, "local training strategy")
	cmd.Flags().StringVar(&override.StorageDir, "storage-dir", "", "directory for round states and model versions")

	return cmd
}

func NewStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List local training strategies",
		Long:  `List the registered local training strategies.`,
		Run: func(cmd *cobra.Command, _ []string) {
			logJSONCmd(*cmd, fedprox.Strategies())
		},
	}
}
