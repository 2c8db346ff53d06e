package fedprox

import (
	"math"

	"github.com/absmach/fedprox/pkg/tensor"
)

// Penalty is the global Euclidean norm of current - anchor.
func Penalty(anchor, current tensor.Params) (float64, error) {
	diff, err := tensor.Sub(current, anchor)
	if err != nil {
		return 0, err
	}

	return tensor.GlobalNorm(diff), nil
}

// proximal returns mu/2 * ||current - anchor||^2 and its gradient with
// respect to current, mu * (current - anchor).
func proximal(mu float64, anchor, current tensor.Params) (float64, tensor.Params, error) {
	diff, err := tensor.Sub(current, anchor)
	if err != nil {
		return 0, nil, err
	}
	norm := tensor.GlobalNorm(diff)
	tensor.Scale(mu, diff)

	return mu / 2 * math.Pow(norm, 2), diff, nil
}
