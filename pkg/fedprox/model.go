package fedprox

import (
	"github.com/absmach/fedprox/pkg/tensor"
	"gonum.org/v1/gonum/mat"
)

// Evaluation is the result of one forward pass with its base loss gradient.
type Evaluation struct {
	Predictions []float64
	// Loss is the data loss plus the model's own regularization losses.
	Loss float64
	// Gradients belong to the caller, which may modify them in place.
	Gradients tensor.Params
}

// Model is a trainable model attached to a Trainer. Implementations own their
// optimizer state, which persists across ApplyGradients calls.
type Model interface {
	// Parameters returns a copy of the live trainable parameters.
	Parameters() tensor.Params
	SetParameters(p tensor.Params) error
	Evaluate(x *mat.Dense, y, sampleWeights []float64) (Evaluation, error)
	// ApplyGradients performs one optimizer update with the given gradients.
	ApplyGradients(grads tensor.Params) error
	Metrics() []Metric
}

// Metric is a running metric updated once per local step.
type Metric interface {
	Name() string
	Reset()
	Update(y, pred, sampleWeights []float64)
	Result() float64
}
