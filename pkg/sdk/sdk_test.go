package sdk_test

import (
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/party/api"
	"github.com/absmach/fedprox/party/mocks"
	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/fedprox"
	"github.com/absmach/fedprox/pkg/fl"
	"github.com/absmach/fedprox/pkg/sdk"
	"github.com/absmach/fedprox/pkg/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (sdk.SDK, *mocks.Service) {
	t.Helper()

	svc := new(mocks.Service)
	ts := httptest.NewServer(api.MakeHandler(svc, slog.New(slog.DiscardHandler), "party", "instance-1"))
	t.Cleanup(ts.Close)

	return sdk.NewSDK(sdk.Config{PartyURL: ts.URL, Timeout: 5 * time.Second}), svc
}

func TestTrain(t *testing.T) {
	t.Parallel()

	psdk, svc := setup(t)
	p := tensor.Params{{Shape: []int{2}, Data: []float64{0.25, -1}}}
	task := fl.Task{RoundID: "r-1", LocalSteps: 3, Params: p, Hyperparams: map[string]any{"mu": 0.5}}
	update := fl.Update{RoundID: "r-1", PartyID: "p-1", NumSamples: 96, Params: p, Metrics: map[string]float64{"loss": 0.3}}

	svc.On("Train", mock.Anything, mock.MatchedBy(func(got fl.Task) bool {
		return got.RoundID == "r-1" && tensor.Equal(p, got.Params)
	})).Return(update, nil)
	svc.On("Train", mock.Anything, mock.MatchedBy(func(got fl.Task) bool { return got.RoundID == "r-dry" })).
		Return(fl.Update{}, fedprox.ErrStarvedSource)

	got, err := psdk.Train(task)
	require.NoError(t, err)
	assert.Equal(t, 96, got.NumSamples)
	assert.True(t, tensor.Equal(p, got.Params))

	got, err = psdk.TrainCBOR(task)
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.PartyID)
	assert.Equal(t, 0.3, got.Metrics["loss"])

	_, err = psdk.Train(fl.Task{RoundID: "r-dry", LocalSteps: 1})
	assert.ErrorIs(t, err, sdk.ErrUnexpectedCode)
	assert.ErrorContains(t, err, "409")
	assert.ErrorContains(t, err, fedprox.ErrStarvedSource.Error())
}

func TestLogsAndCheckpoints(t *testing.T) {
	t.Parallel()

	psdk, svc := setup(t)
	svc.On("Logs", mock.Anything).Return(party.TrainingLogs{
		Current:  fedprox.Logs{"loss": 0.2},
		Previous: fedprox.Logs{"loss": 0.4},
	}, nil)
	svc.On("Checkpoints", mock.Anything, uint64(5), uint64(2)).Return(checkpoint.Page{
		Offset: 5, Limit: 2, Total: 7,
		Checkpoints: []checkpoint.Checkpoint{{ID: "c-6", RoundID: "r-6"}, {ID: "c-7", RoundID: "r-7"}},
	}, nil)

	logs, err := psdk.Logs()
	require.NoError(t, err)
	assert.Equal(t, 0.2, logs.Current["loss"])
	assert.Equal(t, 0.4, logs.Previous["loss"])

	page, err := psdk.Checkpoints(5, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), page.Total)
	require.Len(t, page.Checkpoints, 2)
	assert.Equal(t, "c-7", page.Checkpoints[1].ID)

	_, err = psdk.Checkpoints(0, 1000)
	assert.ErrorIs(t, err, sdk.ErrUnexpectedCode)
}
