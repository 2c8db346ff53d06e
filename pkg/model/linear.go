// Package model provides small generalized linear models that satisfy the
// fedprox.Model contract. They are the reference models used by the party
// service and the simulator.
package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var _ fedprox.Model = (*Linear)(nil)

const (
	weightsIdx = 0
	biasIdx    = 1

	// probEpsilon keeps log terms of the cross-entropy finite.
	probEpsilon = 1e-7
)

var (
	ErrFeatureMismatch = errors.New("feature count does not match model")
	ErrInvalidFeatures = errors.New("feature count must be positive")
)

type Kind string

const (
	LinearRegression   Kind = "linear"
	LogisticRegression Kind = "logistic"
)

type Option func(*Linear)

func WithOptimizer(opt Optimizer) Option {
	return func(l *Linear) {
		if opt != nil {
			l.opt = opt
		}
	}
}

// WithL2 adds lambda * ||W||^2 to the loss. The bias is not regularized.
func WithL2(lambda float64) Option {
	return func(l *Linear) {
		l.l2 = lambda
	}
}

func WithMetrics(ms ...fedprox.Metric) Option {
	return func(l *Linear) {
		l.metrics = ms
	}
}

// Linear is a linear model with either an identity link and squared error
// loss, or a sigmoid link and binary cross-entropy loss. Parameters are
// [W (features x 1), b (1)].
type Linear struct {
	kind     Kind
	features int
	params   tensor.Params
	l2       float64
	opt      Optimizer
	metrics  []fedprox.Metric
}

// NewLinearRegression panics if features is not positive; use New to get an
// error instead.
func NewLinearRegression(features int, opts ...Option) *Linear {
	return newLinear(LinearRegression, features, []fedprox.Metric{&MeanSquaredError{}, &MeanAbsoluteError{}}, opts...)
}

// NewLogisticRegression panics if features is not positive.
func NewLogisticRegression(features int, opts ...Option) *Linear {
	return newLinear(LogisticRegression, features, []fedprox.Metric{&BinaryAccuracy{}}, opts...)
}

// New builds a model by kind name.
func New(kind Kind, features int, opts ...Option) (*Linear, error) {
	if features <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFeatures, features)
	}
	switch kind {
	case LinearRegression:
		return NewLinearRegression(features, opts...), nil
	case LogisticRegression:
		return NewLogisticRegression(features, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported model kind: %q", kind)
	}
}

func newLinear(kind Kind, features int, metrics []fedprox.Metric, opts ...Option) *Linear {
	if features <= 0 {
		panic(fmt.Errorf("%w: got %d", ErrInvalidFeatures, features))
	}
	l := &Linear{
		kind:     kind,
		features: features,
		params:   tensor.Params{tensor.Zeros(features, 1), tensor.Zeros(1)},
		opt:      NewSGD(0.01),
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Linear) Kind() Kind {
	return l.kind
}

func (l *Linear) Parameters() tensor.Params {
	return l.params.Clone()
}

func (l *Linear) SetParameters(p tensor.Params) error {
	if err := tensor.Compatible(l.params, p); err != nil {
		return err
	}
	l.params = p.Clone()

	return nil
}

func (l *Linear) Metrics() []fedprox.Metric {
	return l.metrics
}

func (l *Linear) ApplyGradients(grads tensor.Params) error {
	return l.opt.Apply(l.params, grads)
}

// Predict returns the model output for every row of x.
func (l *Linear) Predict(x mat.Matrix) ([]float64, error) {
	rows, cols := x.Dims()
	if cols != l.features {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, cols, l.features)
	}

	w := mat.NewVecDense(l.features, l.params[weightsIdx].Data)
	z := mat.NewVecDense(rows, nil)
	z.MulVec(x, w)

	out := z.RawVector().Data
	floats.AddConst(l.params[biasIdx].Data[0], out)
	if l.kind == LogisticRegression {
		for i, v := range out {
			out[i] = sigmoid(v)
		}
	}

	return out, nil
}

// Evaluate computes predictions, the sample-weighted mean loss over the batch
// plus the L2 penalty, and the gradient of that loss.
func (l *Linear) Evaluate(x *mat.Dense, y, sampleWeights []float64) (fedprox.Evaluation, error) {
	pred, err := l.Predict(x)
	if err != nil {
		return fedprox.Evaluation{}, err
	}
	if len(y) != len(pred) || (sampleWeights != nil && len(sampleWeights) != len(pred)) {
		return fedprox.Evaluation{}, fmt.Errorf("%w: labels or sample weights not aligned with %d rows", fedprox.ErrInvalidBatch, len(pred))
	}
	n := float64(len(pred))

	// dz holds dLoss/dz for every row.
	dz := make([]float64, len(pred))
	var loss float64
	for i, p := range pred {
		sw := 1.0
		if sampleWeights != nil {
			sw = sampleWeights[i]
		}
		switch l.kind {
		case LogisticRegression:
			pc := math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
			loss -= sw * (y[i]*math.Log(pc) + (1-y[i])*math.Log(1-pc))
			dz[i] = sw * (p - y[i]) / n
		default:
			d := p - y[i]
			loss += sw * d * d
			dz[i] = 2 * sw * d / n
		}
	}
	loss /= n

	gw := mat.NewVecDense(l.features, nil)
	gw.MulVec(x.T(), mat.NewVecDense(len(dz), dz))
	grads := tensor.Params{
		{Shape: []int{l.features, 1}, Data: gw.RawVector().Data},
		{Shape: []int{1}, Data: []float64{floats.Sum(dz)}},
	}

	if l.l2 > 0 {
		kernel := l.params[weightsIdx].Data
		loss += l.l2 * floats.Dot(kernel, kernel)
		floats.AddScaled(grads[weightsIdx].Data, 2*l.l2, kernel)
	}

	return fedprox.Evaluation{Predictions: pred, Loss: loss, Gradients: grads}, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
