package fedprox

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Column is one named feature column of a tabular batch.
type Column struct {
	Name   string
	Values []float64
}

// Batch is one local training batch. Features arrive either already stacked
// in X or as ordered Columns, never both; Y and Weights are aligned by row.
type Batch struct {
	X       *mat.Dense
	Columns []Column
	Y       []float64
	Weights []float64
}

// BatchSource yields training batches. Next blocks until a batch is ready and
// returns io.EOF (possibly wrapped) once no more batches can be produced.
type BatchSource interface {
	Next(ctx context.Context) (Batch, error)
}

// BatchSourceFunc adapts a function to BatchSource.
type BatchSourceFunc func(ctx context.Context) (Batch, error)

func (f BatchSourceFunc) Next(ctx context.Context) (Batch, error) {
	return f(ctx)
}

// Features returns the batch features as a single rows x features matrix,
// stacking Columns side by side when X is not set.
func (b Batch) Features() (*mat.Dense, error) {
	if b.X != nil && len(b.Columns) > 0 {
		return nil, fmt.Errorf("%w: both stacked features and columns set", ErrInvalidBatch)
	}
	if b.X != nil {
		return b.X, nil
	}
	if len(b.Columns) == 0 {
		return nil, fmt.Errorf("%w: no features", ErrInvalidBatch)
	}

	rows := len(b.Columns[0].Values)
	if rows == 0 {
		return nil, fmt.Errorf("%w: column %q is empty", ErrInvalidBatch, b.Columns[0].Name)
	}
	x := mat.NewDense(rows, len(b.Columns), nil)
	for j, c := range b.Columns {
		if len(c.Values) != rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", ErrInvalidBatch, c.Name, len(c.Values), rows)
		}
		x.SetCol(j, c.Values)
	}

	return x, nil
}

// normalize stacks the features and checks label and weight alignment.
func (b Batch) normalize() (*mat.Dense, error) {
	x, err := b.Features()
	if err != nil {
		return nil, err
	}
	rows, _ := x.Dims()
	if len(b.Y) != rows {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrInvalidBatch, len(b.Y), rows)
	}
	if b.Weights != nil && len(b.Weights) != rows {
		return nil, fmt.Errorf("%w: %d sample weights for %d rows", ErrInvalidBatch, len(b.Weights), rows)
	}

	return x, nil
}
