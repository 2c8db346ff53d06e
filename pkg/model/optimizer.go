package model

import (
	"math"

	"github.com/absmach/fedprox/pkg/tensor"
)

// Optimizer updates parameters in place from gradients. Stateful optimizers
// keep their state across calls, and therefore across training rounds.
type Optimizer interface {
	Apply(params, grads tensor.Params) error
}

type SGD struct {
	LearningRate float64
}

func NewSGD(lr float64) *SGD {
	return &SGD{LearningRate: lr}
}

func (o *SGD) Apply(params, grads tensor.Params) error {
	return tensor.AddScaled(params, -o.LearningRate, grads)
}

// Momentum is SGD with a velocity term: v = beta*v + g; p -= lr*v.
type Momentum struct {
	LearningRate float64
	Beta         float64

	velocity tensor.Params
}

func NewMomentum(lr, beta float64) *Momentum {
	return &Momentum{LearningRate: lr, Beta: beta}
}

func (o *Momentum) Apply(params, grads tensor.Params) error {
	if err := tensor.Compatible(params, grads); err != nil {
		return err
	}
	if o.velocity == nil {
		o.velocity = params.ZerosLike()
	}
	if err := tensor.Compatible(o.velocity, grads); err != nil {
		return err
	}

	tensor.Scale(o.Beta, o.velocity)
	if err := tensor.AddScaled(o.velocity, 1, grads); err != nil {
		return err
	}

	return tensor.AddScaled(params, -o.LearningRate, o.velocity)
}

type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	m, v tensor.Params
	t    int
}

func NewAdam(lr float64) *Adam {
	return &Adam{LearningRate: lr, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-7}
}

func (o *Adam) Apply(params, grads tensor.Params) error {
	if err := tensor.Compatible(params, grads); err != nil {
		return err
	}
	if o.m == nil {
		o.m = params.ZerosLike()
		o.v = params.ZerosLike()
	}
	if err := tensor.Compatible(o.m, grads); err != nil {
		return err
	}

	o.t++
	c1 := 1 - math.Pow(o.Beta1, float64(o.t))
	c2 := 1 - math.Pow(o.Beta2, float64(o.t))
	for i := range params {
		p, g, m, v := params[i].Data, grads[i].Data, o.m[i].Data, o.v[i].Data
		for j := range p {
			m[j] = o.Beta1*m[j] + (1-o.Beta1)*g[j]
			v[j] = o.Beta2*v[j] + (1-o.Beta2)*g[j]*g[j]
			p[j] -= o.LearningRate * (m[j] / c1) / (math.Sqrt(v[j]/c2) + o.Epsilon)
		}
	}

	return nil
}
