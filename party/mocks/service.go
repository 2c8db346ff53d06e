package mocks

import (
	"context"

	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/fl"
	"github.com/stretchr/testify/mock"
)

var _ party.Service = (*Service)(nil)

type Service struct {
	mock.Mock
}

func (m *Service) Train(ctx context.Context, task fl.Task) (fl.Update, error) {
	args := m.Called(ctx, task)

	return args.Get(0).(fl.Update), args.Error(1)
}

func (m *Service) Logs(ctx context.Context) (party.TrainingLogs, error) {
	args := m.Called(ctx)

	return args.Get(0).(party.TrainingLogs), args.Error(1)
}

func (m *Service) Checkpoints(ctx context.Context, offset, limit uint64) (checkpoint.Page, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(checkpoint.Page), args.Error(1)
}
