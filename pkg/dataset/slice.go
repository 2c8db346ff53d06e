// Package dataset provides in-memory batch sources for local training and
// the JSON dataset documents served by a party's local data store.
package dataset

import (
	"context"
	"fmt"
	"sync"

	"github.com/absmach/fedprox/pkg/fedprox"
	"gonum.org/v1/gonum/mat"
)

var (
	_ fedprox.BatchSource = (*Slice)(nil)
	_ fedprox.BatchSource = (*Columns)(nil)
)

// Slice yields row batches of an in-memory feature matrix.
type Slice struct {
	mu      sync.Mutex
	x       *mat.Dense
	y       []float64
	weights []float64
	cur     *cursor
}

func NewSlice(x *mat.Dense, y []float64, opts ...Option) (*Slice, error) {
	if x == nil || x.IsEmpty() {
		return nil, ErrEmptyDataset
	}
	rows, _ := x.Dims()
	if len(y) != rows {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrInvalidRecord, len(y), rows)
	}
	o, err := newOptions(rows, opts)
	if err != nil {
		return nil, err
	}

	return &Slice{x: x, y: y, weights: o.weights, cur: newCursor(rows, o)}, nil
}

func (s *Slice) Len() int {
	rows, _ := s.x.Dims()

	return rows
}

// Next returns io.EOF once the configured number of epochs is consumed.
func (s *Slice) Next(ctx context.Context) (fedprox.Batch, error) {
	if err := ctx.Err(); err != nil {
		return fedprox.Batch{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.cur.next()
	if err != nil {
		return fedprox.Batch{}, err
	}

	_, cols := s.x.Dims()
	b := fedprox.Batch{
		X: mat.NewDense(len(idx), cols, nil),
		Y: make([]float64, len(idx)),
	}
	if s.weights != nil {
		b.Weights = make([]float64, len(idx))
	}
	for i, r := range idx {
		b.X.SetRow(i, s.x.RawRowView(r))
		b.Y[i] = s.y[r]
		if s.weights != nil {
			b.Weights[i] = s.weights[r]
		}
	}

	return b, nil
}

// Columns yields batches as named feature columns, in the order given.
type Columns struct {
	mu      sync.Mutex
	columns []fedprox.Column
	y       []float64
	weights []float64
	cur     *cursor
}

func NewColumns(columns []fedprox.Column, y []float64, opts ...Option) (*Columns, error) {
	if len(columns) == 0 || len(y) == 0 {
		return nil, ErrEmptyDataset
	}
	for _, c := range columns {
		if len(c.Values) != len(y) {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", ErrInvalidRecord, c.Name, len(c.Values), len(y))
		}
	}
	o, err := newOptions(len(y), opts)
	if err != nil {
		return nil, err
	}

	return &Columns{columns: columns, y: y, weights: o.weights, cur: newCursor(len(y), o)}, nil
}

func (c *Columns) Next(ctx context.Context) (fedprox.Batch, error) {
	if err := ctx.Err(); err != nil {
		return fedprox.Batch{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.cur.next()
	if err != nil {
		return fedprox.Batch{}, err
	}

	b := fedprox.Batch{
		Columns: make([]fedprox.Column, len(c.columns)),
		Y:       pick(c.y, idx),
	}
	for j, col := range c.columns {
		b.Columns[j] = fedprox.Column{Name: col.Name, Values: pick(col.Values, idx)}
	}
	if c.weights != nil {
		b.Weights = pick(c.weights, idx)
	}

	return b, nil
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = v[r]
	}

	return out
}
