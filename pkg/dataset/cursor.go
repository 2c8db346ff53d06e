package dataset

import (
	"fmt"
	"io"
	"math/rand/v2"
)

type options struct {
	batchSize int
	epochs    int
	shuffle   bool
	seed      uint64
	weights   []float64
}

// Option configures a source.
type Option func(*options)

// WithBatchSize sets the number of rows per batch. The last batch of an
// epoch may be shorter.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithEpochs bounds the number of passes over the data. Zero repeats forever.
func WithEpochs(n int) Option {
	return func(o *options) {
		o.epochs = n
	}
}

// WithShuffle permutes the rows at the start of every epoch using a PCG
// generator seeded with seed.
func WithShuffle(seed uint64) Option {
	return func(o *options) {
		o.shuffle = true
		o.seed = seed
	}
}

func WithSampleWeights(w []float64) Option {
	return func(o *options) {
		o.weights = w
	}
}

const DefaultBatchSize = 32

func newOptions(rows int, opts []Option) (options, error) {
	o := options{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.batchSize <= 0 {
		return options{}, fmt.Errorf("%w: batch size %d", ErrInvalidOption, o.batchSize)
	}
	if o.epochs < 0 {
		return options{}, fmt.Errorf("%w: epochs %d", ErrInvalidOption, o.epochs)
	}
	if o.weights != nil && len(o.weights) != rows {
		return options{}, fmt.Errorf("%w: %d sample weights for %d rows", ErrInvalidOption, len(o.weights), rows)
	}

	return o, nil
}

// cursor walks row indices batch by batch across epochs.
type cursor struct {
	order     []int
	pos       int
	epoch     int
	epochs    int
	batchSize int
	rng       *rand.Rand
}

func newCursor(rows int, o options) *cursor {
	c := &cursor{
		order:     make([]int, rows),
		epochs:    o.epochs,
		batchSize: o.batchSize,
	}
	for i := range c.order {
		c.order[i] = i
	}
	if o.shuffle {
		c.rng = rand.New(rand.NewPCG(o.seed, o.seed+1))
		c.permute()
	}

	return c
}

func (c *cursor) permute() {
	if c.rng == nil {
		return
	}
	c.rng.Shuffle(len(c.order), func(i, j int) {
		c.order[i], c.order[j] = c.order[j], c.order[i]
	})
}

func (c *cursor) next() ([]int, error) {
	if c.pos >= len(c.order) {
		c.epoch++
		c.pos = 0
		c.permute()
	}
	if c.epochs > 0 && c.epoch >= c.epochs {
		return nil, io.EOF
	}

	end := min(c.pos+c.batchSize, len(c.order))
	idx := c.order[c.pos:end]
	c.pos = end

	return idx, nil
}
