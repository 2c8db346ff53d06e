package fl

import (
	"errors"

	"github.com/absmach/fedprox/pkg/tensor"
)

var (
	ErrNoUpdates       = errors.New("no updates provided for aggregation")
	ErrOverflow        = errors.New("sample count overflow during aggregation")
	ErrNegativeSamples = errors.New("negative sample count in update")
	ErrShapeMismatch   = tensor.ErrShapeMismatch
	ErrInvalidRoundID  = errors.New("invalid round id")
)
