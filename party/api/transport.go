// Package api exposes a party service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/pkg/api"
	pkgerrors "github.com/absmach/fedprox/pkg/errors"
	"github.com/absmach/fedprox/pkg/fl"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxTaskSize = 1024 * 1024 * 64

func MakeHandler(svc party.Service, logger *slog.Logger, svcName, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(api.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Post("/train", otelhttp.NewHandler(kithttp.NewServer(
		trainEndpoint(svc),
		decodeTrainReq,
		encodeTrainRes,
		opts...,
	), "train").ServeHTTP)

	mux.Get("/logs", otelhttp.NewHandler(kithttp.NewServer(
		logsEndpoint(svc),
		kithttp.NopRequestDecoder,
		api.EncodeResponse,
		opts...,
	), "logs").ServeHTTP)

	mux.Get("/checkpoints", otelhttp.NewHandler(kithttp.NewServer(
		checkpointsEndpoint(svc),
		decodeListReq,
		api.EncodeResponse,
		opts...,
	), "list-checkpoints").ServeHTTP)

	mux.Get("/health", api.Health(svcName, instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeTrainReq(_ context.Context, r *http.Request) (any, error) {
	ct := r.Header.Get("Content-Type")
	body := io.LimitReader(r.Body, maxTaskSize)

	switch {
	case strings.Contains(ct, fl.ContentTypeCBOR):
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, errors.Join(pkgerrors.ErrMalformedEntity, err)
		}
		task, err := fl.DecodeTask(data)
		if err != nil {
			return nil, errors.Join(pkgerrors.ErrValidation, pkgerrors.ErrMalformedEntity, err)
		}

		return trainReq{Task: task, cbor: true}, nil
	case strings.Contains(ct, api.ContentType):
		var req trainReq
		if err := json.NewDecoder(body).Decode(&req.Task); err != nil {
			return nil, errors.Join(pkgerrors.ErrValidation, pkgerrors.ErrMalformedEntity, err)
		}
		req.cbor = strings.Contains(r.Header.Get("Accept"), fl.ContentTypeCBOR)

		return req, nil
	default:
		return nil, errors.Join(pkgerrors.ErrValidation, pkgerrors.ErrUnsupportedContentType)
	}
}

func encodeTrainRes(ctx context.Context, w http.ResponseWriter, response any) error {
	res, ok := response.(updateRes)
	if !ok || !res.cbor {
		return api.EncodeResponse(ctx, w, response)
	}

	data, err := fl.EncodeUpdate(res.Update)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", fl.ContentTypeCBOR)
	w.WriteHeader(res.Code())
	_, err = w.Write(data)

	return err
}

func decodeListReq(_ context.Context, r *http.Request) (any, error) {
	o, err := api.ReadUintQuery(r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(pkgerrors.ErrValidation, err)
	}

	l, err := api.ReadUintQuery(r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(pkgerrors.ErrValidation, err)
	}

	return listReq{offset: o, limit: l}, nil
}
