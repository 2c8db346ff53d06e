// Package api holds HTTP helpers shared by the service APIs.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/absmach/fedprox/pkg/checkpoint"
	pkgerrors "github.com/absmach/fedprox/pkg/errors"
	"github.com/absmach/fedprox/pkg/fedprox"
	kithttp "github.com/go-kit/kit/transport/http"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 10

	ContentType = "application/json"

	MaxLimitSize = 100
)

// Response is implemented by endpoint responses that control the status
// code and headers written by EncodeResponse.
type Response interface {
	Code() int
	Headers() map[string]string
	Empty() bool
}

type errorRes struct {
	Err string `json:"error"`
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	w.Header().Set("Content-Type", ContentType)
	if ar, ok := response.(Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

// EncodeError maps domain and transport errors to HTTP status codes.
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Is(err, pkgerrors.ErrUnsupportedContentType):
		w.WriteHeader(http.StatusUnsupportedMediaType)
	case errors.Is(err, pkgerrors.ErrValidation),
		errors.Is(err, pkgerrors.ErrMalformedEntity),
		errors.Is(err, pkgerrors.ErrInvalidQueryParams),
		errors.Is(err, pkgerrors.ErrLimitSize),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, fedprox.ErrInvalidConfig),
		errors.Is(err, fedprox.ErrInvalidStepCount),
		errors.Is(err, fedprox.ErrShapeMismatch),
		errors.Is(err, fedprox.ErrInvalidBatch):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, pkgerrors.ErrNotFound),
		errors.Is(err, checkpoint.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, fedprox.ErrStarvedSource):
		w.WriteHeader(http.StatusConflict)
	case errors.Is(err, fedprox.ErrNotConfigured):
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if err := json.NewEncoder(w).Encode(errorRes{Err: err.Error()}); err != nil {
		slog.Error("failed to encode error response", slog.Any("error", err))
	}
}

// LoggingErrorEncoder logs every error before delegating to enc.
func LoggingErrorEncoder(logger *slog.Logger, enc kithttp.ErrorEncoder) kithttp.ErrorEncoder {
	return func(ctx context.Context, err error, w http.ResponseWriter) {
		logger.Warn("HTTP request failed", slog.Any("error", err))
		enc(ctx, err, w)
	}
}

// ReadUintQuery reads a non-negative integer query parameter, returning def
// when it is absent.
func ReadUintQuery(r *http.Request, key string, def uint64) (uint64, error) {
	vals := r.URL.Query()[key]
	if len(vals) > 1 {
		return 0, pkgerrors.ErrInvalidQueryParams
	}
	if len(vals) == 0 || vals[0] == "" {
		return def, nil
	}

	v, err := strconv.ParseUint(vals[0], 10, 64)
	if err != nil {
		return 0, errors.Join(pkgerrors.ErrInvalidQueryParams, err)
	}

	return v, nil
}

type healthRes struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	Service     string `json:"service"`
	InstanceID  string `json:"instance_id"`
}

// Health returns a liveness handler for the named service.
func Health(service, instanceID string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/health+json")
		w.WriteHeader(http.StatusOK)

		_ = json.NewEncoder(w).Encode(healthRes{
			Status:      "pass",
			Description: service + " service",
			Service:     service,
			InstanceID:  instanceID,
		})
	}
}
