// Package checkpoint stores a party's local training history. Checkpoints
// hold the live, un-noised parameters and never leave the party.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/absmach/fedprox/pkg/tensor"
	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("checkpoint not found")
	ErrConflict    = errors.New("checkpoint already exists")
	ErrUnsupported = errors.New("unsupported checkpoint storage type")
)

type Checkpoint struct {
	ID         string             `json:"id"`
	RoundID    string             `json:"round_id"`
	Step       int                `json:"step"`
	NumSamples int                `json:"num_samples"`
	Logs       map[string]float64 `json:"logs,omitempty"`
	Params     tensor.Params      `json:"params,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Page is one window of a List call.
type Page struct {
	Offset      uint64       `json:"offset"`
	Limit       uint64       `json:"limit"`
	Total       uint64       `json:"total"`
	Checkpoints []Checkpoint `json:"checkpoints"`
}

// Repository persists checkpoints ordered by ID. IDs assigned by Save are
// UUIDv7, so that order is creation order.
type Repository interface {
	Save(ctx context.Context, c Checkpoint) (Checkpoint, error)
	Get(ctx context.Context, id string) (Checkpoint, error)
	Latest(ctx context.Context) (Checkpoint, error)
	List(ctx context.Context, offset, limit uint64) (Page, error)
}

type Config struct {
	Type       string `env:"TYPE"        envDefault:"memory"`
	BadgerPath string `env:"BADGER_PATH" envDefault:"./data/checkpoints"`
	InMemory   bool   `env:"IN_MEMORY"   envDefault:"false"`
}

// NewRepository builds the repository selected by cfg.Type. The returned
// closer is nil for the memory backend.
func NewRepository(cfg Config) (Repository, io.Closer, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryRepository(), nil, nil
	case "badger":
		db, err := NewDatabase(cfg.BadgerPath, cfg.InMemory)
		if err != nil {
			return nil, nil, err
		}

		return NewBadgerRepository(db), db, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupported, cfg.Type)
	}
}

func (c Checkpoint) Clone() Checkpoint {
	c.Params = c.Params.Clone()
	c.Logs = maps.Clone(c.Logs)

	return c
}

// prepare fills in the ID and creation time on a deep copy of c.
func prepare(c Checkpoint) (Checkpoint, error) {
	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Checkpoint{}, fmt.Errorf("failed to generate checkpoint id: %w", err)
		}
		c.ID = id.String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	return c.Clone(), nil
}
