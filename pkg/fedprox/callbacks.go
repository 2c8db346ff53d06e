package fedprox

// Callback observes the boundaries of a local training run. The begin step is
// the orchestrator's current round step, the end step is that plus the
// number of local steps performed.
type Callback interface {
	OnTrainBatchBegin(step int)
	OnTrainBatchEnd(step int, logs Logs)
}

// CallbackFuncs adapts optional functions to Callback.
type CallbackFuncs struct {
	Begin func(step int)
	End   func(step int, logs Logs)
}

func (c CallbackFuncs) OnTrainBatchBegin(step int) {
	if c.Begin != nil {
		c.Begin(step)
	}
}

func (c CallbackFuncs) OnTrainBatchEnd(step int, logs Logs) {
	if c.End != nil {
		c.End(step, logs)
	}
}
