package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

const Schema = "fl-demo-dataset-v1"

// Record is one labelled sample.
type Record struct {
	X []float64 `json:"x"`
	Y float64   `json:"y"`
}

// Document is the dataset layout served by the local data store.
type Document struct {
	Schema    string   `json:"schema"`
	PropletID string   `json:"proplet_id,omitempty"`
	Data      []Record `json:"data"`
	Size      int      `json:"size"`
}

// Matrix stacks the records into a rows x features matrix and a label vector.
func (d Document) Matrix() (*mat.Dense, []float64, error) {
	if len(d.Data) == 0 {
		return nil, nil, ErrEmptyDataset
	}
	cols := len(d.Data[0].X)
	if cols == 0 {
		return nil, nil, fmt.Errorf("%w: record 0 has no features", ErrInvalidRecord)
	}

	x := mat.NewDense(len(d.Data), cols, nil)
	y := make([]float64, len(d.Data))
	for i, r := range d.Data {
		if len(r.X) != cols {
			return nil, nil, fmt.Errorf("%w: record %d has %d features, expected %d", ErrInvalidRecord, i, len(r.X), cols)
		}
		x.SetRow(i, r.X)
		y[i] = r.Y
	}

	return x, y, nil
}

// Source builds a Slice over the document records.
func (d Document) Source(opts ...Option) (*Slice, error) {
	x, y, err := d.Matrix()
	if err != nil {
		return nil, err
	}

	return NewSlice(x, y, opts...)
}

func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}

	return d, nil
}

// Save writes d to path atomically, filling in the schema and size.
func Save(path string, d Document) error {
	if d.Schema == "" {
		d.Schema = Schema
	}
	d.Size = len(d.Data)

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)

		return fmt.Errorf("failed to rename dataset file: %w", err)
	}

	return nil
}

// Fetch downloads a party's dataset from the local data store at url.
func Fetch(ctx context.Context, client *http.Client, url string) (Document, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Document{}, fmt.Errorf("failed to create dataset request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, url)
	default:
		return Document{}, fmt.Errorf("%w: %d", ErrUnexpectedCode, resp.StatusCode)
	}

	var d Document
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return Document{}, fmt.Errorf("failed to decode dataset: %w", err)
	}

	return d, nil
}

// Synthetic generates n deterministic samples with dim features for a party.
// Features are drawn around a party-specific offset and labels follow a
// fixed linear rule, so parties share a concept but differ in distribution.
func Synthetic(partyID string, n, dim int) Document {
	h := fnv.New64a()
	h.Write([]byte(partyID))
	seed := h.Sum64()
	r := rand.New(rand.NewPCG(seed, seed>>1))

	offset := make([]float64, dim)
	for j := range offset {
		offset[j] = r.NormFloat64() * 0.5
	}

	data := make([]Record, n)
	for i := range data {
		x := make([]float64, dim)
		var z float64
		for j := range x {
			x[j] = offset[j] + r.NormFloat64()
			z += x[j] * trueWeight(j)
		}
		var y float64
		if z+0.1*r.NormFloat64() > 0 {
			y = 1
		}
		data[i] = Record{X: x, Y: y}
	}

	return Document{Schema: Schema, PropletID: partyID, Data: data, Size: n}
}

// trueWeight alternates sign and decays with the feature index.
func trueWeight(j int) float64 {
	w := 1 / float64(j+1)
	if j%2 == 1 {
		w = -w
	}

	return w
}
