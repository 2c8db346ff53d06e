package tensor_test

import (
	"errors"
	"math"
	"testing"

	"github.com/absmach/fedprox/pkg/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(t *testing.T) tensor.Params {
	t.Helper()
	w, err := tensor.New([]int{2, 2}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := tensor.New([]int{2}, []float64{0.5, -0.5})
	require.NoError(t, err)

	return tensor.Params{w, b}
}

func TestNewRejectsWrongLength(t *testing.T) {
	t.Parallel()

	_, err := tensor.New([]int{2, 3}, []float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tensor.ErrInvalidShape))

	_, err = tensor.New([]int{-1}, nil)
	assert.True(t, errors.Is(err, tensor.ErrInvalidShape))
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	p := params(t)
	c := p.Clone()
	c[0].Data[0] = 100
	c[1].Shape[0] = 7

	assert.Equal(t, 1.0, p[0].Data[0])
	assert.Equal(t, []int{2}, p[1].Shape)
	assert.Nil(t, tensor.Params(nil).Clone())
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	p := params(t)
	cases := []struct {
		name  string
		other tensor.Params
		ok    bool
	}{
		{name: "same", other: p.Clone(), ok: true},
		{name: "fewer tensors", other: p[:1], ok: false},
		{name: "different shape", other: tensor.Params{tensor.Zeros(4), tensor.Zeros(2)}, ok: false},
		{name: "transposed shape", other: tensor.Params{tensor.Zeros(2, 2), tensor.Zeros(1, 2)}, ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tensor.Compatible(p, tc.other)
			if tc.ok {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
		})
	}
}

func TestArithmetic(t *testing.T) {
	t.Parallel()

	a := params(t)
	b := a.ZerosLike()

	d, err := tensor.Sub(a, b)
	require.NoError(t, err)
	assert.True(t, tensor.Equal(d, a))

	require.NoError(t, tensor.AddScaled(b, 2, a))
	assert.Equal(t, []float64{2, 4, 6, 8}, b[0].Data)

	tensor.Scale(0.5, b)
	assert.True(t, tensor.Equal(a, b))

	assert.Equal(t, 6, a.NumElements())
	assert.InDelta(t, math.Sqrt(1+4+9+16+0.25+0.25), tensor.GlobalNorm(a), 1e-12)

	_, err = tensor.Sub(a, a[:1])
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestIsFinite(t *testing.T) {
	t.Parallel()

	p := params(t)
	assert.True(t, p.IsFinite())
	p[1].Data[0] = math.NaN()
	assert.False(t, p.IsFinite())
}
