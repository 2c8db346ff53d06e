// Package privacy provides model-level differential privacy mechanisms that
// run on a party's final local parameters before they are shared.
package privacy

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/tensor"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	_ fedprox.PrivacyHook = (*Strategy)(nil)
	_ fedprox.PrivacyHook = (*GaussianModelDP)(nil)
	_ fedprox.PrivacyHook = (*LaplaceModelDP)(nil)
)

var ErrInvalidNoise = errors.New("invalid noise parameters")

// Strategy groups the privacy mechanisms a party applies. Only model-level
// mechanisms act on shared parameters; a nil ModelGDP leaves them untouched.
type Strategy struct {
	ModelGDP fedprox.PrivacyHook
}

func (s *Strategy) Apply(p tensor.Params) (tensor.Params, error) {
	if s == nil || s.ModelGDP == nil {
		return p, nil
	}

	return s.ModelGDP.Apply(p)
}

// GaussianModelDP clips the parameters to a global L2 norm and adds
// N(0, (NoiseMultiplier*L2NormClip)^2) noise to every element.
type GaussianModelDP struct {
	NoiseMultiplier float64
	L2NormClip      float64
	Src             rand.Source
}

func NewGaussianModelDP(noiseMultiplier, l2NormClip float64, seed uint64) (*GaussianModelDP, error) {
	g := &GaussianModelDP{
		NoiseMultiplier: noiseMultiplier,
		L2NormClip:      l2NormClip,
		Src:             rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
	if err := g.validate(); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *GaussianModelDP) validate() error {
	if !finiteNonNegative(g.NoiseMultiplier) {
		return fmt.Errorf("%w: noise multiplier %v", ErrInvalidNoise, g.NoiseMultiplier)
	}
	if !finiteNonNegative(g.L2NormClip) || g.L2NormClip == 0 {
		return fmt.Errorf("%w: l2 norm clip %v", ErrInvalidNoise, g.L2NormClip)
	}

	return nil
}

func (g *GaussianModelDP) Apply(p tensor.Params) (tensor.Params, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if !p.IsFinite() {
		return nil, fmt.Errorf("%w: parameters are not finite", ErrInvalidNoise)
	}

	out := p.Clone()
	Clip(out, g.L2NormClip)

	sigma := g.NoiseMultiplier * g.L2NormClip
	if sigma == 0 {
		return out, nil
	}
	noise := distuv.Normal{Mu: 0, Sigma: sigma, Src: g.Src}
	for i := range out {
		for j := range out[i].Data {
			out[i].Data[j] += noise.Rand()
		}
	}

	return out, nil
}

// LaplaceModelDP adds Laplace(0, Scale) noise to every element.
type LaplaceModelDP struct {
	Scale float64
	Src   rand.Source
}

func NewLaplaceModelDP(scale float64, seed uint64) (*LaplaceModelDP, error) {
	if !finiteNonNegative(scale) || scale == 0 {
		return nil, fmt.Errorf("%w: laplace scale %v", ErrInvalidNoise, scale)
	}

	return &LaplaceModelDP{Scale: scale, Src: rand.NewPCG(seed, ^seed)}, nil
}

func (l *LaplaceModelDP) Apply(p tensor.Params) (tensor.Params, error) {
	if !finiteNonNegative(l.Scale) || l.Scale == 0 {
		return nil, fmt.Errorf("%w: laplace scale %v", ErrInvalidNoise, l.Scale)
	}

	out := p.Clone()
	noise := distuv.Laplace{Mu: 0, Scale: l.Scale, Src: l.Src}
	for i := range out {
		for j := range out[i].Data {
			out[i].Data[j] += noise.Rand()
		}
	}

	return out, nil
}

// Clip scales p in place so that its global L2 norm does not exceed maxNorm.
func Clip(p tensor.Params, maxNorm float64) {
	norm := tensor.GlobalNorm(p)
	if norm <= maxNorm || norm == 0 {
		return
	}
	tensor.Scale(maxNorm/norm, p)
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
