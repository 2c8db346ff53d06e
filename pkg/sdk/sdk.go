// Package sdk is a client for the party HTTP API.
package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/absmach/fedprox/pkg/checkpoint"
	"github.com/absmach/fedprox/pkg/fl"
)

const CTJSON string = "application/json"

var ErrUnexpectedCode = errors.New("unexpected response code")

// TrainingLogs mirrors the two metric generations a party keeps.
type TrainingLogs struct {
	Current  map[string]float64 `json:"current"`
	Previous map[string]float64 `json:"previous"`
}

type SDK interface {
	// Train asks the party to run local training for one round.
	//
	// example:
	//  update, _ := sdk.Train(fl.Task{RoundID: "round-1", LocalSteps: 10})
	//  fmt.Println(update.NumSamples)
	Train(task fl.Task) (fl.Update, error)

	// TrainCBOR is Train with the task and the update encoded as CBOR.
	TrainCBOR(task fl.Task) (fl.Update, error)

	// Logs returns the party's two most recent metric snapshots.
	//
	// example:
	//  logs, _ := sdk.Logs()
	//  fmt.Println(logs.Current["loss"])
	Logs() (TrainingLogs, error)

	// Checkpoints lists the party's local training history.
	//
	// example:
	//  page, _ := sdk.Checkpoints(0, 10)
	//  fmt.Println(page.Total)
	Checkpoints(offset, limit uint64) (checkpoint.Page, error)
}

type partySDK struct {
	partyURL string
	client   *http.Client
}

type Config struct {
	PartyURL        string
	TLSVerification bool
	Timeout         time.Duration
}

func NewSDK(cfg Config) SDK {
	return &partySDK{
		partyURL: cfg.PartyURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *partySDK) processRequest(method, reqURL, contentType string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", contentType)
	req.Header.Add("Accept", contentType)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return []byte{}, fmt.Errorf("%w: %d: %s", ErrUnexpectedCode, resp.StatusCode, e.Error)
		}

		return []byte{}, fmt.Errorf("%w: %d", ErrUnexpectedCode, resp.StatusCode)
	}

	return body, nil
}
