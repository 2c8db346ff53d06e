package model

import "fmt"

const (
	OptimizerSGD      = "sgd"
	OptimizerMomentum = "momentum"
	OptimizerAdam     = "adam"
)

// Config describes a reference model and its optimizer.
type Config struct {
	Kind         string  `env:"KIND"          envDefault:"logistic" toml:"kind"`
	Features     int     `env:"FEATURES"      envDefault:"4"        toml:"features"`
	Optimizer    string  `env:"OPTIMIZER"     envDefault:"sgd"      toml:"optimizer"`
	LearningRate float64 `env:"LEARNING_RATE" envDefault:"0.05"     toml:"learning_rate"`
	Momentum     float64 `env:"MOMENTUM"      envDefault:"0.9"      toml:"momentum"`
	L2           float64 `env:"L2"            envDefault:"0"        toml:"l2"`
}

func NewOptimizer(name string, lr, beta float64) (Optimizer, error) {
	switch name {
	case "", OptimizerSGD:
		return NewSGD(lr), nil
	case OptimizerMomentum:
		return NewMomentum(lr, beta), nil
	case OptimizerAdam:
		return NewAdam(lr), nil
	default:
		return nil, fmt.Errorf("unsupported optimizer: %q", name)
	}
}

// FromConfig builds the model described by cfg.
func FromConfig(cfg Config) (*Linear, error) {
	if cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %v", cfg.LearningRate)
	}
	opt, err := NewOptimizer(cfg.Optimizer, cfg.LearningRate, cfg.Momentum)
	if err != nil {
		return nil, err
	}

	return New(Kind(cfg.Kind), cfg.Features, WithOptimizer(opt), WithL2(cfg.L2))
}
