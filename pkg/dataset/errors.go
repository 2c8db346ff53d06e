package dataset

import "errors"

var (
	ErrEmptyDataset   = errors.New("dataset is empty")
	ErrInvalidRecord  = errors.New("invalid dataset record")
	ErrInvalidOption  = errors.New("invalid dataset option")
	ErrNotFound       = errors.New("dataset not found")
	ErrUnexpectedCode = errors.New("unexpected status code from data store")
)
