package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/fl"
)

const (
	trainEndpoint       = "/train"
	logsEndpoint        = "/logs"
	checkpointsEndpoint = "/checkpoints"
)

func (sdk *partySDK) Train(task fl.Task) (fl.Update, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return fl.Update{}, err
	}

	body, err := sdk.processRequest(http.MethodPost, sdk.partyURL+trainEndpoint, CTJSON, data, http.StatusOK)
	if err != nil {
		return fl.Update{}, err
	}

	var u fl.Update
	if err := json.Unmarshal(body, &u); err != nil {
		return fl.Update{}, err
	}

	return u, nil
}

func (sdk *partySDK) TrainCBOR(task fl.Task) (fl.Update, error) {
	data, err := fl.EncodeTask(task)
	if err != nil {
		return fl.Update{}, err
	}

	body, err := sdk.processRequest(http.MethodPost, sdk.partyURL+trainEndpoint, fl.ContentTypeCBOR, data, http.StatusOK)
	if err != nil {
		return fl.Update{}, err
	}

	return fl.DecodeUpdate(body)
}

func (sdk *partySDK) Logs() (TrainingLogs, error) {
	body, err := sdk.processRequest(http.MethodGet, sdk.partyURL+logsEndpoint, CTJSON, nil, http.StatusOK)
	if err != nil {
		return TrainingLogs{}, err
	}

	var l TrainingLogs
	if err := json.Unmarshal(body, &l); err != nil {
		return TrainingLogs{}, err
	}

	return l, nil
}

func (sdk *partySDK) Checkpoints(offset, limit uint64) (checkpoint.Page, error) {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	query := ""
	if len(queries) > 0 {
		query = "?" + strings.Join(queries, "&")
	}

	body, err := sdk.processRequest(http.MethodGet, sdk.partyURL+checkpointsEndpoint+query, CTJSON, nil, http.StatusOK)
	if err != nil {
		return checkpoint.Page{}, err
	}

	var p checkpoint.Page
	if err := json.Unmarshal(body, &p); err != nil {
		return checkpoint.Page{}, err
	}

	return p, nil
}
