package model

import (
	"math"

	"github.com/absmach/fedprox/pkg/fedprox"
)

var (
	_ fedprox.Metric = (*MeanSquaredError)(nil)
	_ fedprox.Metric = (*MeanAbsoluteError)(nil)
	_ fedprox.Metric = (*BinaryAccuracy)(nil)
)

// weightedMean accumulates sample-weighted values; nil weights count as 1.
type weightedMean struct {
	total  float64
	weight float64
}

func (m *weightedMean) add(v float64, w []float64, i int) {
	sw := 1.0
	if w != nil {
		sw = w[i]
	}
	m.total += sw * v
	m.weight += sw
}

func (m *weightedMean) result() float64 {
	if m.weight == 0 {
		return 0
	}

	return m.total / m.weight
}

type MeanSquaredError struct {
	m weightedMean
}

func (e *MeanSquaredError) Name() string { return "mse" }

func (e *MeanSquaredError) Reset() { e.m = weightedMean{} }

func (e *MeanSquaredError) Update(y, pred, w []float64) {
	for i := range y {
		d := pred[i] - y[i]
		e.m.add(d*d, w, i)
	}
}

func (e *MeanSquaredError) Result() float64 { return e.m.result() }

type MeanAbsoluteError struct {
	m weightedMean
}

func (e *MeanAbsoluteError) Name() string { return "mae" }

func (e *MeanAbsoluteError) Reset() { e.m = weightedMean{} }

func (e *MeanAbsoluteError) Update(y, pred, w []float64) {
	for i := range y {
		e.m.add(math.Abs(pred[i]-y[i]), w, i)
	}
}

func (e *MeanAbsoluteError) Result() float64 { return e.m.result() }

// BinaryAccuracy counts a prediction as correct when it falls on the same
// side of Threshold (0.5 when zero) as the label.
type BinaryAccuracy struct {
	Threshold float64

	m weightedMean
}

func (a *BinaryAccuracy) Name() string { return "accuracy" }

func (a *BinaryAccuracy) Reset() { a.m = weightedMean{} }

func (a *BinaryAccuracy) Update(y, pred, w []float64) {
	th := a.Threshold
	if th == 0 {
		th = 0.5
	}
	for i := range y {
		hit := 0.0
		if (pred[i] > th) == (y[i] > th) {
			hit = 1
		}
		a.m.add(hit, w, i)
	}
}

func (a *BinaryAccuracy) Result() float64 { return a.m.result() }
