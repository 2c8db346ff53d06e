package fedprox

import (
	"errors"

	"github.com/absmach/fedprox/pkg/tensor"
)

var (
	// ErrNotConfigured is returned when Run is called without an attached model.
	ErrNotConfigured = errors.New("no model attached to trainer")
	// ErrShapeMismatch means received weights do not match the local model architecture.
	ErrShapeMismatch = tensor.ErrShapeMismatch
	// ErrStarvedSource is returned when the batch source runs dry before all local steps completed.
	ErrStarvedSource    = errors.New("batch source exhausted")
	ErrInvalidStepCount = errors.New("step count must not be negative")
	ErrInvalidConfig    = errors.New("invalid training config")
	ErrInvalidBatch     = errors.New("invalid training batch")
	ErrUnknownStrategy  = errors.New("unknown local training strategy")
)
