package fl

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const ContentTypeCBOR = "application/cbor"

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}

	return em
}

func EncodeTask(t Task) ([]byte, error) {
	data, err := encMode.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR task: %w", err)
	}

	return data, nil
}

func DecodeTask(data []byte) (Task, error) {
	var t Task
	if err := cbor.Unmarshal(data, &t); err != nil {
		return Task{}, fmt.Errorf("failed to decode CBOR task: %w", err)
	}

	return t, nil
}

func EncodeUpdate(u Update) ([]byte, error) {
	data, err := encMode.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR update: %w", err)
	}

	return data, nil
}

func DecodeUpdate(data []byte) (Update, error) {
	var u Update
	if err := cbor.Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("failed to decode CBOR update: %w", err)
	}

	return u, nil
}
