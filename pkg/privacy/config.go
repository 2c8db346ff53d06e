package privacy

import (
	"fmt"
)

const (
	MechanismNone     = "none"
	MechanismGaussian = "gaussian"
	MechanismLaplace  = "laplace"
)

// Config selects and parameterizes the model-level mechanism.
type Config struct {
	Mechanism       string  `env:"MECHANISM"        envDefault:"none"  toml:"mechanism"`
	NoiseMultiplier float64 `env:"NOISE_MULTIPLIER" envDefault:"1.0"   toml:"noise_multiplier"`
	L2NormClip      float64 `env:"L2_NORM_CLIP"     envDefault:"1.0"   toml:"l2_norm_clip"`
	LaplaceScale    float64 `env:"LAPLACE_SCALE"    envDefault:"0.1"   toml:"laplace_scale"`
	Seed            uint64  `env:"SEED"             envDefault:"0"     toml:"seed"`
}

// NewStrategy builds the privacy strategy described by cfg.
func NewStrategy(cfg Config) (*Strategy, error) {
	switch cfg.Mechanism {
	case "", MechanismNone:
		return &Strategy{}, nil
	case MechanismGaussian:
		g, err := NewGaussianModelDP(cfg.NoiseMultiplier, cfg.L2NormClip, cfg.Seed)
		if err != nil {
			return nil, err
		}

		return &Strategy{ModelGDP: g}, nil
	case MechanismLaplace:
		l, err := NewLaplaceModelDP(cfg.LaplaceScale, cfg.Seed)
		if err != nil {
			return nil, err
		}

		return &Strategy{ModelGDP: l}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mechanism %q", ErrInvalidNoise, cfg.Mechanism)
	}
}
