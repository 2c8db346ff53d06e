package fedprox_test

import (
	"math"
	"testing"

	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityHook struct{}

func (identityHook) Apply(p tensor.Params) (tensor.Params, error) { return p, nil }

func TestConfigFromOptions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		opts   map[string]any
		mu     float64
		hasErr bool
	}{
		{name: "default", opts: nil, mu: fedprox.DefaultMu},
		{name: "float", opts: map[string]any{"mu": 0.1}, mu: 0.1},
		{name: "int", opts: map[string]any{"mu": 2}, mu: 2},
		{name: "string", opts: map[string]any{"mu": "0.25"}, mu: 0.25},
		{name: "unknown keys ignored", opts: map[string]any{"mu": 0.5, "lr": 0.01}, mu: 0.5},
		{name: "negative", opts: map[string]any{"mu": -1.0}, hasErr: true},
		{name: "nan", opts: map[string]any{"mu": math.NaN()}, hasErr: true},
		{name: "bad string", opts: map[string]any{"mu": "a lot"}, hasErr: true},
		{name: "bad type", opts: map[string]any{"mu": []int{1}}, hasErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := fedprox.ConfigFromOptions(tc.opts, identityHook{})
			if tc.hasErr {
				assert.ErrorIs(t, err, fedprox.ErrInvalidConfig)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.mu, cfg.Mu)
			assert.NotNil(t, cfg.PrivacyHook)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, fedprox.DefaultConfig().Validate())
	assert.ErrorIs(t, fedprox.Config{Mu: math.Inf(1)}.Validate(), fedprox.ErrInvalidConfig)
}
