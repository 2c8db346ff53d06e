// Package fl holds the round contract exchanged between parties and the
// coordinator, together with aggregation and round persistence.
package fl

import (
	"time"

	"github.com/absmach/fedprox/pkg/tensor"
)

// Task asks a party to train locally for one round.
type Task struct {
	RoundID  string `json:"round_id"`
	ModelRef string `json:"model_ref,omitempty"`
	// Step is the coordinator's global step counter at round start.
	Step       int           `json:"step"`
	LocalSteps int           `json:"local_steps"`
	Params     tensor.Params `json:"params,omitempty"`
	// Hyperparams carries strategy options such as "mu".
	Hyperparams map[string]any `json:"hyperparams,omitempty"`
}

// Update is a party's answer to a Task. Params are post-privacy.
type Update struct {
	RoundID      string             `json:"round_id"`
	PartyID      string             `json:"party_id"`
	BaseModelURI string             `json:"base_model_uri,omitempty"`
	NumSamples   int                `json:"num_samples"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Params       tensor.Params      `json:"params"`
	ReceivedAt   time.Time          `json:"received_at"`
}

type Model struct {
	Version  int            `json:"version"`
	Params   tensor.Params  `json:"params"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type RoundState struct {
	RoundID      string            `json:"round_id"`
	ModelVersion int               `json:"model_version"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time,omitempty"`
	Updates      []Update          `json:"updates"`
	Excluded     map[string]string `json:"excluded,omitempty"`
	Completed    bool              `json:"completed"`
}

type Aggregator interface {
	Aggregate(updates []Update) (Model, error)
}
