package party_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/dataset"
	pkgerrors "github.com/absmach/fedprox/pkg/errors"
	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/fl"
	"github.com/absmach/fedprox/pkg/model"
	"github.com/absmach/fedprox/pkg/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const features = 3

type fixture struct {
	svc         party.Service
	trainer     *fedprox.Trainer
	checkpoints checkpoint.Repository
	opened      int
}

func newFixture(t *testing.T, epochs int, hook fedprox.PrivacyHook) *fixture {
	t.Helper()

	f := &fixture{
		trainer:     fedprox.NewTrainer(model.NewLogisticRegression(features)),
		checkpoints: checkpoint.NewMemoryRepository(),
	}
	sources := func(ctx context.Context) (fedprox.BatchSource, error) {
		f.opened++

		return party.SyntheticSource("party-1", 64, features, dataset.WithBatchSize(16), dataset.WithEpochs(epochs))(ctx)
	}
	f.svc = party.NewService("party-1", f.trainer, hook, sources, f.checkpoints, slog.New(slog.DiscardHandler))

	return f
}

func globalModel() tensor.Params {
	return tensor.Params{tensor.Zeros(features, 1), tensor.Zeros(1)}
}

func TestTrainProducesUpdate(t *testing.T) {
	f := newFixture(t, 0, nil)

	task := fl.Task{RoundID: "r-1", ModelRef: "global_v0", Step: 0, LocalSteps: 5, Params: globalModel(), Hyperparams: map[string]any{"mu": 0.1}}
	update, err := f.svc.Train(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, "r-1", update.RoundID)
	assert.Equal(t, "party-1", update.PartyID)
	assert.Equal(t, "global_v0", update.BaseModelURI)
	assert.Equal(t, 80, update.NumSamples)
	assert.Contains(t, update.Metrics, fedprox.LossMetric)
	assert.Contains(t, update.Metrics, "accuracy")
	assert.Equal(t, globalModel().Signature(), update.Params.Signature())
	assert.False(t, tensor.Equal(globalModel(), update.Params))

	latest, err := f.checkpoints.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r-1", latest.RoundID)
	assert.Equal(t, 5, latest.Step)
	assert.True(t, tensor.Equal(update.Params, latest.Params))

	logs, err := f.svc.Logs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, update.Metrics, map[string]float64(logs.Current))
	assert.Nil(t, logs.Previous)
}

func TestTrainCheckpointsLiveParams(t *testing.T) {
	zero := fedprox.HookFunc(func(p tensor.Params) (tensor.Params, error) { return p.ZerosLike(), nil })
	f := newFixture(t, 0, zero)

	update, err := f.svc.Train(context.Background(), fl.Task{RoundID: "r-1", LocalSteps: 3, Params: globalModel()})
	require.NoError(t, err)
	assert.True(t, tensor.Equal(globalModel(), update.Params))

	latest, err := f.checkpoints.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, tensor.Equal(globalModel(), latest.Params))
}

func TestTrainValidation(t *testing.T) {
	f := newFixture(t, 0, nil)

	_, err := f.svc.Train(context.Background(), fl.Task{LocalSteps: 1})
	assert.ErrorIs(t, err, pkgerrors.ErrValidation)

	_, err = f.svc.Train(context.Background(), fl.Task{RoundID: "r", LocalSteps: 1, Hyperparams: map[string]any{"mu": -1}})
	assert.ErrorIs(t, err, fedprox.ErrInvalidConfig)

	_, err = f.svc.Train(context.Background(), fl.Task{RoundID: "r", LocalSteps: 1, Params: tensor.Params{tensor.Zeros(2)}})
	assert.ErrorIs(t, err, fedprox.ErrShapeMismatch)

	unconfigured := party.NewService("p", nil, nil, nil, nil, slog.New(slog.DiscardHandler))
	_, err = unconfigured.Train(context.Background(), fl.Task{RoundID: "r", LocalSteps: 1})
	assert.ErrorIs(t, err, fedprox.ErrNotConfigured)
	_, err = unconfigured.Logs(context.Background())
	assert.ErrorIs(t, err, fedprox.ErrNotConfigured)
}

func TestTrainRebuildsStarvedSource(t *testing.T) {
	// 64 samples in batches of 16 give four batches per epoch.
	f := newFixture(t, 1, nil)

	_, err := f.svc.Train(context.Background(), fl.Task{RoundID: "r-1", LocalSteps: 3})
	require.NoError(t, err)

	_, err = f.svc.Train(context.Background(), fl.Task{RoundID: "r-2", Step: 3, LocalSteps: 3})
	assert.ErrorIs(t, err, fedprox.ErrStarvedSource)
	assert.Equal(t, 1, f.opened)

	update, err := f.svc.Train(context.Background(), fl.Task{RoundID: "r-3", Step: 6, LocalSteps: 3})
	require.NoError(t, err)
	assert.Equal(t, 48, update.NumSamples)
	assert.Equal(t, 2, f.opened)

	page, err := f.svc.Checkpoints(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), page.Total)
}

func TestTrainHookFailureFailsClosed(t *testing.T) {
	errNoise := errors.New("noise source unavailable")
	f := newFixture(t, 0, fedprox.HookFunc(func(tensor.Params) (tensor.Params, error) { return nil, errNoise }))

	update, err := f.svc.Train(context.Background(), fl.Task{RoundID: "r-1", LocalSteps: 2, Params: globalModel()})
	assert.ErrorIs(t, err, errNoise)
	assert.Nil(t, update.Params)

	page, err := f.svc.Checkpoints(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestTrainZeroStepsNeedsNoSource(t *testing.T) {
	svc := party.NewService("p", fedprox.NewTrainer(model.NewLinearRegression(features)), nil, nil, nil, slog.New(slog.DiscardHandler))

	update, err := svc.Train(context.Background(), fl.Task{RoundID: "r", Params: globalModel()})
	require.NoError(t, err)
	assert.Zero(t, update.NumSamples)
	assert.True(t, tensor.Equal(globalModel(), update.Params))

	_, err = svc.Train(context.Background(), fl.Task{RoundID: "r", LocalSteps: 1})
	assert.ErrorIs(t, err, fedprox.ErrStarvedSource)
}
