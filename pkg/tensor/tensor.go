// Package tensor holds the parameter representation exchanged between a
// party's local trainer and the round coordinator.
package tensor

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrShapeMismatch = errors.New("parameter shape mismatch")
	ErrInvalidShape  = errors.New("invalid tensor shape")
)

// Tensor is a dense, row-major array of float64 values.
type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func New(shape []int, data []float64) (Tensor, error) {
	n, err := size(shape)
	if err != nil {
		return Tensor{}, err
	}
	if len(data) != n {
		return Tensor{}, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrInvalidShape, shape, n, len(data))
	}

	return Tensor{Shape: slices.Clone(shape), Data: slices.Clone(data)}, nil
}

// Zeros panics on negative dimensions, like make.
func Zeros(shape ...int) Tensor {
	n, err := size(shape)
	if err != nil {
		panic(err)
	}

	return Tensor{Shape: slices.Clone(shape), Data: make([]float64, n)}
}

func (t Tensor) Len() int {
	return len(t.Data)
}

func (t Tensor) Clone() Tensor {
	return Tensor{Shape: slices.Clone(t.Shape), Data: slices.Clone(t.Data)}
}

func (t Tensor) SameShape(o Tensor) bool {
	return slices.Equal(t.Shape, o.Shape) && len(t.Data) == len(o.Data)
}

func size(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", ErrInvalidShape, shape)
		}
		n *= d
	}

	return n, nil
}

// Params is an ordered set of tensors making up a model's trainable state.
type Params []Tensor

func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for i, t := range p {
		out[i] = t.Clone()
	}

	return out
}

// Signature returns the shape of every tensor, in order.
func (p Params) Signature() [][]int {
	sig := make([][]int, len(p))
	for i, t := range p {
		sig[i] = slices.Clone(t.Shape)
	}

	return sig
}

func (p Params) NumElements() int {
	n := 0
	for _, t := range p {
		n += t.Len()
	}

	return n
}

func (p Params) ZerosLike() Params {
	out := make(Params, len(p))
	for i, t := range p {
		out[i] = Zeros(t.Shape...)
	}

	return out
}

// Compatible reports ErrShapeMismatch when a and b differ in tensor count
// or in the shape of any tensor at the same index.
func Compatible(a, b Params) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d tensors vs %d", ErrShapeMismatch, len(a), len(b))
	}
	for i := range a {
		if !a[i].SameShape(b[i]) {
			return fmt.Errorf("%w: tensor %d has shape %v vs %v", ErrShapeMismatch, i, a[i].Shape, b[i].Shape)
		}
	}

	return nil
}

// Sub returns a - b as a new Params.
func Sub(a, b Params) (Params, error) {
	if err := Compatible(a, b); err != nil {
		return nil, err
	}
	out := make(Params, len(a))
	for i := range a {
		d := Tensor{Shape: slices.Clone(a[i].Shape), Data: make([]float64, a[i].Len())}
		floats.SubTo(d.Data, a[i].Data, b[i].Data)
		out[i] = d
	}

	return out, nil
}

// AddScaled performs dst += alpha * s in place.
func AddScaled(dst Params, alpha float64, s Params) error {
	if err := Compatible(dst, s); err != nil {
		return err
	}
	for i := range dst {
		floats.AddScaled(dst[i].Data, alpha, s[i].Data)
	}

	return nil
}

// Scale multiplies every element of p by c in place.
func Scale(c float64, p Params) {
	for i := range p {
		floats.Scale(c, p[i].Data)
	}
}

// GlobalNorm is the Euclidean norm over the flattened concatenation of all tensors.
func GlobalNorm(p Params) float64 {
	var sum float64
	for _, t := range p {
		sum += floats.Dot(t.Data, t.Data)
	}

	return math.Sqrt(sum)
}

// Equal reports whether a and b are shape-compatible and element-wise identical.
func Equal(a, b Params) bool {
	if Compatible(a, b) != nil {
		return false
	}
	for i := range a {
		if !floats.Equal(a[i].Data, b[i].Data) {
			return false
		}
	}

	return true
}

// EqualApprox is Equal with an absolute tolerance per element.
func EqualApprox(a, b Params, tol float64) bool {
	if Compatible(a, b) != nil {
		return false
	}
	for i := range a {
		if !floats.EqualApprox(a[i].Data, b[i].Data, tol) {
			return false
		}
	}

	return true
}

// IsFinite reports whether no element is NaN or infinite.
func (p Params) IsFinite() bool {
	for _, t := range p {
		for _, v := range t.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}
