package checkpoint_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]checkpoint.Repository {
	t.Helper()

	mem, closer, err := checkpoint.NewRepository(checkpoint.Config{Type: "memory"})
	require.NoError(t, err)
	assert.Nil(t, closer)

	bdg, closer, err := checkpoint.NewRepository(checkpoint.Config{Type: "badger", InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() })

	return map[string]checkpoint.Repository{"memory": mem, "badger": bdg}
}

func sample(step int) checkpoint.Checkpoint {
	return checkpoint.Checkpoint{
		RoundID:    fmt.Sprintf("round-%d", step),
		Step:       step,
		NumSamples: 32 * step,
		Logs:       map[string]float64{"loss": 1 / float64(step+1)},
		Params: tensor.Params{
			{Shape: []int{2, 1}, Data: []float64{float64(step), -1}},
			{Shape: []int{1}, Data: []float64{0.5}},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := sample(3)
			saved, err := repo.Save(ctx, in)
			require.NoError(t, err)
			assert.NotEmpty(t, saved.ID)
			assert.False(t, saved.CreatedAt.IsZero())

			in.Params[0].Data[0] = 99
			in.Logs["loss"] = 99

			got, err := repo.Get(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, saved.RoundID, got.RoundID)
			assert.Equal(t, 96, got.NumSamples)
			assert.True(t, tensor.Equal(saved.Params, got.Params))
			assert.Equal(t, 3.0, got.Params[0].Data[0])
			assert.Equal(t, 0.25, got.Logs["loss"])
			assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))

			_, err = repo.Save(ctx, saved)
			assert.ErrorIs(t, err, checkpoint.ErrConflict)

			_, err = repo.Get(ctx, "missing")
			assert.ErrorIs(t, err, checkpoint.ErrNotFound)
		})
	}
}

func TestLatestAndList(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := repo.Latest(ctx)
			assert.ErrorIs(t, err, checkpoint.ErrNotFound)

			var ids []string
			for step := range 5 {
				c, err := repo.Save(ctx, sample(step))
				require.NoError(t, err)
				ids = append(ids, c.ID)
				time.Sleep(time.Millisecond)
			}

			latest, err := repo.Latest(ctx)
			require.NoError(t, err)
			assert.Equal(t, ids[4], latest.ID)
			assert.Equal(t, 4, latest.Step)

			cases := []struct {
				desc   string
				offset uint64
				limit  uint64
				steps  []int
			}{
				{desc: "first page", offset: 0, limit: 2, steps: []int{0, 1}},
				{desc: "middle page", offset: 2, limit: 2, steps: []int{2, 3}},
				{desc: "short last page", offset: 4, limit: 2, steps: []int{4}},
				{desc: "past the end", offset: 9, limit: 2, steps: []int{}},
			}
			for _, tc := range cases {
				page, err := repo.List(ctx, tc.offset, tc.limit)
				require.NoError(t, err, tc.desc)
				assert.Equal(t, uint64(5), page.Total, tc.desc)
				steps := []int{}
				for _, c := range page.Checkpoints {
					steps = append(steps, c.Step)
				}
				assert.Equal(t, tc.steps, steps, tc.desc)
			}
		})
	}
}

func TestNewRepositoryRejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, _, err := checkpoint.NewRepository(checkpoint.Config{Type: "postgres"})
	assert.ErrorIs(t, err, checkpoint.ErrUnsupported)
}
