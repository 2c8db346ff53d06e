package api

import (
	"context"
	"errors"

	"github.com/absmach/fedprox/party"
	pkgerrors "github.com/absmach/fedprox/pkg/errors"
	"github.com/go-kit/kit/endpoint"
)

func trainEndpoint(svc party.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(trainReq)
		if !ok {
			return updateRes{}, errors.Join(pkgerrors.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return updateRes{}, errors.Join(pkgerrors.ErrValidation, err)
		}

		update, err := svc.Train(ctx, req.Task)
		if err != nil {
			return updateRes{}, err
		}

		return updateRes{Update: update, cbor: req.cbor}, nil
	}
}

func logsEndpoint(svc party.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		logs, err := svc.Logs(ctx)
		if err != nil {
			return logsRes{}, err
		}

		return logsRes{TrainingLogs: logs}, nil
	}
}

func checkpointsEndpoint(svc party.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listReq)
		if !ok {
			return checkpointsRes{}, errors.Join(pkgerrors.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return checkpointsRes{}, errors.Join(pkgerrors.ErrValidation, err)
		}

		page, err := svc.Checkpoints(ctx, req.offset, req.limit)
		if err != nil {
			return checkpointsRes{}, err
		}

		return checkpointsRes{Page: page}, nil
	}
}
