package fl

import (
	"fmt"
	"math"

	"github.com/absmach/fedprox/pkg/tensor"
)

const FedAvgAlgorithm = "FedAvg"

var _ Aggregator = (*FedAvgAggregator)(nil)

// FedAvgAggregator averages update parameters weighted by NumSamples. When
// no update reports any samples the plain mean is used.
type FedAvgAggregator struct{}

func NewFedAvgAggregator() Aggregator {
	return &FedAvgAggregator{}
}

func (f *FedAvgAggregator) Aggregate(updates []Update) (Model, error) {
	if len(updates) == 0 {
		return Model{}, ErrNoUpdates
	}

	var totalSamples int64
	for _, u := range updates {
		if u.NumSamples < 0 {
			return Model{}, fmt.Errorf("%w: party %s reported %d", ErrNegativeSamples, u.PartyID, u.NumSamples)
		}
		if totalSamples > math.MaxInt64-int64(u.NumSamples) {
			return Model{}, ErrOverflow
		}
		totalSamples += int64(u.NumSamples)
		if err := tensor.Compatible(updates[0].Params, u.Params); err != nil {
			return Model{}, fmt.Errorf("update from party %s: %w", u.PartyID, err)
		}
	}

	weight := func(u Update) float64 {
		if totalSamples == 0 {
			return 1 / float64(len(updates))
		}

		return float64(u.NumSamples) / float64(totalSamples)
	}

	aggregated := updates[0].Params.ZerosLike()
	metrics := make(map[string]float64)
	for _, u := range updates {
		w := weight(u)
		if err := tensor.AddScaled(aggregated, w, u.Params); err != nil {
			return Model{}, err
		}
		for name, v := range u.Metrics {
			metrics[name] += w * v
		}
	}

	return Model{
		Params: aggregated,
		Metadata: map[string]any{
			"total_samples": totalSamples,
			"num_updates":   len(updates),
			"algorithm":     FedAvgAlgorithm,
			"metrics":       metrics,
		},
	}, nil
}
