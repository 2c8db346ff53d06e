package api

import (
	"net/http"

	"github.com/absmach/fedprox/party"
	"github.com/absmach/fedprox/pkg/api"
	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/fl"
)

var (
	_ api.Response = (*updateRes)(nil)
	_ api.Response = (*logsRes)(nil)
	_ api.Response = (*checkpointsRes)(nil)
)

type updateRes struct {
	fl.Update
	cbor bool
}

func (r updateRes) Code() int {
	return http.StatusOK
}

func (r updateRes) Headers() map[string]string {
	return map[string]string{}
}

func (r updateRes) Empty() bool {
	return false
}

type logsRes struct {
	party.TrainingLogs
}

func (r logsRes) Code() int {
	return http.StatusOK
}

func (r logsRes) Headers() map[string]string {
	return map[string]string{}
}

func (r logsRes) Empty() bool {
	return false
}

type checkpointsRes struct {
	checkpoint.Page
}

func (r checkpointsRes) Code() int {
	return http.StatusOK
}

func (r checkpointsRes) Headers() map[string]string {
	return map[string]string{}
}

func (r checkpointsRes) Empty() bool {
	return false
}
