package fedprox

import "maps"

const LossMetric = "loss"

// Logs is a finalized metric snapshot, metric name to value.
type Logs map[string]float64

func (l Logs) Clone() Logs {
	if l == nil {
		return nil
	}

	return maps.Clone(l)
}

type mean struct {
	total float64
	count float64
}

func (m *mean) add(v, weight float64) {
	m.total += v * weight
	m.count += weight
}

func (m *mean) result() float64 {
	if m.count == 0 {
		return 0
	}

	return m.total / m.count
}

// stepMetrics accumulates running metric state for a single Run. The loss is
// the model's own loss, averaged per sample, and excludes the proximal term.
type stepMetrics struct {
	loss    mean
	metrics []Metric
}

func newStepMetrics(ms []Metric) *stepMetrics {
	for _, m := range ms {
		m.Reset()
	}

	return &stepMetrics{metrics: ms}
}

func (s *stepMetrics) update(loss float64, rows int, y, pred, w []float64) {
	s.loss.add(loss, float64(rows))
	for _, m := range s.metrics {
		m.Update(y, pred, w)
	}
}

func (s *stepMetrics) finalize() Logs {
	logs := Logs{LossMetric: s.loss.result()}
	for _, m := range s.metrics {
		logs[m.Name()] = m.Result()
	}

	return logs
}
