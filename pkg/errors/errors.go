// Package errors holds the transport-level sentinel errors shared by the
// HTTP APIs.
package errors

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrEmptyKey               = errors.New("empty key")
	ErrInvalidData            = errors.New("invalid data type")
	ErrValidation             = errors.New("entity validation failed")
	ErrMalformedEntity        = errors.New("malformed entity specification")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrInvalidQueryParams     = errors.New("invalid query parameters")
	ErrLimitSize              = errors.New("invalid limit size")
	ErrMissingRoundID         = errors.New("missing round id")
)
