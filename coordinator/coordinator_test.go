package coordinator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/absmach/fedprox/coordinator"
	"github.com/absmach/fedprox/party/mocks"
	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/fl"
	"github.com/absmach/fedprox/pkg/scheduler"
	"github.com/absmach/fedprox/pkg/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func params(w, b float64) tensor.Params {
	return tensor.Params{
		{Shape: []int{2, 1}, Data: []float64{w, w}},
		{Shape: []int{1}, Data: []float64{b}},
	}
}

func participant(id string, svc *mocks.Service) coordinator.Participant {
	return coordinator.Participant{ID: id, Service: svc}
}

func TestRunAggregatesWeightedUpdates(t *testing.T) {
	t.Parallel()

	a, b := new(mocks.Service), new(mocks.Service)
	var tasks []fl.Task
	a.On("Train", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { tasks = append(tasks, args.Get(1).(fl.Task)) }).
		Return(fl.Update{NumSamples: 30, Params: params(1, 1), Metrics: map[string]float64{fedprox.LossMetric: 0.4}}, nil)
	b.On("Train", mock.Anything, mock.Anything).
		Return(fl.Update{PartyID: "b", NumSamples: 10, Params: params(3, 3), Metrics: map[string]float64{fedprox.LossMetric: 0.8}}, nil)

	c, err := coordinator.New(params(0, 0), []coordinator.Participant{participant("a", a), participant("b", b)},
		coordinator.Config{LocalSteps: 5, Mu: 0.1, Options: map[string]any{"extra": "kept"}})
	require.NoError(t, err)

	states, err := c.Run(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, states, 2)

	first := states[0]
	assert.Equal(t, "round-1", first.RoundID)
	assert.True(t, first.Completed)
	assert.Empty(t, first.Excluded)
	require.Len(t, first.Updates, 2)
	assert.Equal(t, "a", first.Updates[0].PartyID)
	assert.False(t, first.Updates[0].ReceivedAt.IsZero())

	model := c.Model()
	assert.Equal(t, 2, model.Version)
	assert.True(t, tensor.EqualApprox(params(1.5, 1.5), model.Params, 1e-12))
	assert.Equal(t, fl.FedAvgAlgorithm, model.Metadata["algorithm"])
	assert.Equal(t, "round-2", model.Metadata["round_id"])

	require.Len(t, tasks, 2)
	assert.True(t, tensor.Equal(params(0, 0), tasks[0].Params))
	assert.True(t, tensor.Equal(params(1.5, 1.5), tasks[1].Params))
	assert.Equal(t, 0, tasks[0].Step)
	assert.Equal(t, 5, tasks[1].Step)
	assert.Equal(t, 5, tasks[1].LocalSteps)
	assert.Equal(t, 0.1, tasks[0].Hyperparams[fedprox.MuOption])
	assert.Equal(t, "kept", tasks[0].Hyperparams["extra"])

	cfg, err := fedprox.ConfigFromOptions(tasks[1].Hyperparams, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Mu)
}

func TestRunExcludesStarvedParties(t *testing.T) {
	t.Parallel()

	ok, starved := new(mocks.Service), new(mocks.Service)
	ok.On("Train", mock.Anything, mock.Anything).Return(fl.Update{NumSamples: 4, Params: params(2, 2)}, nil)
	starved.On("Train", mock.Anything, mock.Anything).Return(fl.Update{}, fedprox.ErrStarvedSource)

	c, err := coordinator.New(nil, []coordinator.Participant{participant("ok", ok), participant("dry", starved)}, coordinator.Config{LocalSteps: 1})
	require.NoError(t, err)

	states, err := c.Run(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Len(t, states[0].Updates, 1)
	assert.Contains(t, states[0].Excluded, "dry")
	assert.True(t, tensor.Equal(params(2, 2), c.Model().Params))
}

func TestRunUsesScheduler(t *testing.T) {
	t.Parallel()

	var parties []coordinator.Participant
	services := make(map[string]*mocks.Service)
	for _, id := range []string{"a", "b", "c"} {
		svc := new(mocks.Service)
		svc.On("Train", mock.Anything, mock.Anything).Return(fl.Update{NumSamples: 1, Params: params(1, 1)}, nil)
		services[id] = svc
		parties = append(parties, participant(id, svc))
	}

	rr, err := scheduler.NewRoundRobin(1)
	require.NoError(t, err)
	c, err := coordinator.New(nil, parties, coordinator.Config{LocalSteps: 1}, coordinator.WithScheduler(rr))
	require.NoError(t, err)

	states, err := c.Run(context.Background(), 4)
	require.NoError(t, err)

	var order []string
	for _, s := range states {
		require.Len(t, s.Updates, 1)
		order = append(order, s.Updates[0].PartyID)
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, order)
	services["a"].AssertNumberOfCalls(t, "Train", 2)
	services["c"].AssertNumberOfCalls(t, "Train", 1)
}

func TestRunFailures(t *testing.T) {
	t.Parallel()

	starved := new(mocks.Service)
	starved.On("Train", mock.Anything, mock.Anything).Return(fl.Update{}, fedprox.ErrStarvedSource)
	broken := new(mocks.Service)
	broken.On("Train", mock.Anything, mock.Anything).Return(fl.Update{}, fedprox.ErrShapeMismatch)
	mismatched := new(mocks.Service)
	mismatched.On("Train", mock.Anything, mock.Anything).Return(fl.Update{NumSamples: 1, Params: params(1, 1)[:1]}, nil)
	fine := new(mocks.Service)
	fine.On("Train", mock.Anything, mock.Anything).Return(fl.Update{NumSamples: 1, Params: params(1, 1)}, nil)

	cases := []struct {
		name    string
		parties []coordinator.Participant
		err     error
	}{
		{name: "all starved", parties: []coordinator.Participant{participant("a", starved), participant("b", starved)}, err: coordinator.ErrAllExcluded},
		{name: "party error", parties: []coordinator.Participant{participant("a", fine), participant("b", broken)}, err: fedprox.ErrShapeMismatch},
		{name: "incompatible updates", parties: []coordinator.Participant{participant("a", fine), participant("b", mismatched)}, err: fl.ErrShapeMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := coordinator.New(nil, tc.parties, coordinator.Config{LocalSteps: 1})
			require.NoError(t, err)

			states, err := c.Run(context.Background(), 3)
			assert.ErrorIs(t, err, tc.err)
			assert.Empty(t, states)
			assert.Zero(t, c.Model().Version)
		})
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	svc := new(mocks.Service)
	cases := []struct {
		name    string
		parties []coordinator.Participant
		cfg     coordinator.Config
		err     error
	}{
		{name: "no parties", cfg: coordinator.Config{LocalSteps: 1}, err: coordinator.ErrNoParties},
		{name: "negative steps", parties: []coordinator.Participant{participant("a", svc)}, cfg: coordinator.Config{LocalSteps: -1}, err: coordinator.ErrInvalidRound},
		{name: "duplicate party", parties: []coordinator.Participant{participant("a", svc), participant("a", svc)}, err: coordinator.ErrInvalidParty},
		{name: "unnamed party", parties: []coordinator.Participant{participant("", svc)}, err: coordinator.ErrInvalidParty},
		{name: "negative mu", parties: []coordinator.Participant{participant("a", svc)}, cfg: coordinator.Config{Mu: -0.5}, err: fedprox.ErrInvalidConfig},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := coordinator.New(nil, tc.parties, tc.cfg)
			assert.True(t, errors.Is(err, tc.err))
		})
	}

	c, err := coordinator.New(nil, []coordinator.Participant{participant("a", svc)}, coordinator.Config{})
	require.NoError(t, err)
	_, err = c.Run(context.Background(), -1)
	assert.ErrorIs(t, err, coordinator.ErrInvalidRound)
}

func TestSimulateReducesLoss(t *testing.T) {
	t.Parallel()

	cfg := coordinator.DefaultSimulationConfig()
	cfg.PartyNames = []string{"alpha", "beta"}
	cfg.Parties = 3
	cfg.StorageDir = t.TempDir()

	summary, err := coordinator.Simulate(context.Background(), cfg, nil)
	require.NoError(t, err)

	require.Len(t, summary.Parties, 3)
	assert.Equal(t, []string{"alpha", "beta"}, summary.Parties[:2])
	require.Len(t, summary.Rounds, cfg.Rounds)
	assert.Equal(t, cfg.Rounds, summary.Model.Version)

	meanLoss := func(state fl.RoundState) float64 {
		var sum float64
		for _, u := range state.Updates {
			sum += u.Metrics[fedprox.LossMetric]
		}

		return sum / float64(len(state.Updates))
	}
	assert.Less(t, meanLoss(summary.Rounds[cfg.Rounds-1]), meanLoss(summary.Rounds[0]))

	storage, err := fl.NewPersistentStorage(cfg.StorageDir+"/rounds", cfg.StorageDir+"/models")
	require.NoError(t, err)
	versions, err := storage.ListModels()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, versions)

	stored, err := storage.LoadModel(cfg.Rounds)
	require.NoError(t, err)
	assert.True(t, tensor.EqualApprox(summary.Model.Params, stored.Params, 1e-12))
}

func TestSimulateRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	cfg := coordinator.DefaultSimulationConfig()
	cfg.Strategy = "scaffold"
	_, err := coordinator.Simulate(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, fedprox.ErrUnknownStrategy)
}
