package scheduler

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// random samples ceil(fraction * n) parties without replacement, never fewer
// than minParties.
type random struct {
	mu         sync.Mutex
	fraction   float64
	minParties int
	src        rand.Source
}

func NewRandom(fraction float64, minParties int, seed uint64) (Scheduler, error) {
	if math.IsNaN(fraction) || fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("%w: fraction %v not in (0, 1]", ErrInvalidSchedule, fraction)
	}
	if minParties < 0 {
		return nil, fmt.Errorf("%w: negative minimum %d", ErrInvalidSchedule, minParties)
	}

	return &random{
		fraction:   fraction,
		minParties: minParties,
		src:        rand.NewPCG(seed, seed^0xda3e39cb94b95bdb),
	}, nil
}

func (r *random) Select(_ int, parties []string) ([]string, error) {
	if len(parties) == 0 {
		return nil, ErrNoParty
	}

	n := int(math.Ceil(r.fraction * float64(len(parties))))
	n = min(max(n, r.minParties, 1), len(parties))

	idx := make([]int, n)
	r.mu.Lock()
	sampleuv.WithoutReplacement(idx, len(parties), r.src)
	r.mu.Unlock()
	slices.Sort(idx)

	selected := make([]string, n)
	for i, j := range idx {
		selected[i] = parties[j]
	}

	return selected, nil
}
