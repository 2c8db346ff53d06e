package fedprox

import (
	"fmt"
	"math"
	"strconv"

	"github.com/absmach/fedprox/pkg/tensor"
)

const (
	DefaultMu = 0.0

	MuOption = "mu"
)

// PrivacyHook transforms the final local parameters before they leave the
// party. It may be stochastic but must preserve the shape signature.
type PrivacyHook interface {
	Apply(p tensor.Params) (tensor.Params, error)
}

// Config holds the per-invocation strategy settings.
type Config struct {
	// Mu is the proximal term coefficient.
	Mu float64
	// PrivacyHook is optional; nil means parameters are returned untouched.
	PrivacyHook PrivacyHook
}

func DefaultConfig() Config {
	return Config{Mu: DefaultMu}
}

func (c Config) Validate() error {
	if math.IsNaN(c.Mu) || math.IsInf(c.Mu, 0) || c.Mu < 0 {
		return fmt.Errorf("%w: mu must be a finite non-negative number, got %v", ErrInvalidConfig, c.Mu)
	}

	return nil
}

// ConfigFromOptions builds a Config from orchestrator strategy options.
// Unknown keys are ignored; the hook is supplied by the party.
func ConfigFromOptions(opts map[string]any, hook PrivacyHook) (Config, error) {
	cfg := DefaultConfig()
	cfg.PrivacyHook = hook

	if v, ok := opts[MuOption]; ok && v != nil {
		mu, err := toFloat(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, MuOption, err)
		}
		cfg.Mu = mu
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// HookFunc adapts a function to PrivacyHook.
type HookFunc func(p tensor.Params) (tensor.Params, error)

func (f HookFunc) Apply(p tensor.Params) (tensor.Params, error) {
	return f(p)
}
