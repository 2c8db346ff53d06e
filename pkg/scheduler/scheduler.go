// Package scheduler picks the parties that take part in each round.
package scheduler

import (
	"errors"
	"fmt"
)

const (
	All        = "all"
	RoundRobin = "round_robin"
	Random     = "random"
)

var (
	ErrNoParty         = errors.New("no party was provided")
	ErrInvalidSchedule = errors.New("invalid schedule")
)

type Scheduler interface {
	// Select returns the parties training in the given round, in the order
	// they were provided.
	Select(round int, parties []string) ([]string, error)
}

// Config selects and parameterizes a Scheduler.
type Config struct {
	Kind     string  `toml:"kind"`
	PerRound int     `toml:"per_round"`
	Fraction float64 `toml:"fraction"`
	Seed     uint64  `toml:"seed"`
}

func New(cfg Config) (Scheduler, error) {
	switch cfg.Kind {
	case "", All:
		return NewAll(), nil
	case RoundRobin:
		return NewRoundRobin(cfg.PerRound)
	case Random:
		return NewRandom(cfg.Fraction, cfg.PerRound, cfg.Seed)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSchedule, cfg.Kind)
	}
}

type all struct{}

func NewAll() Scheduler {
	return all{}
}

func (all) Select(_ int, parties []string) ([]string, error) {
	if len(parties) == 0 {
		return nil, ErrNoParty
	}

	return append([]string(nil), parties...), nil
}
