package api

import (
	"github.com/absmach/fedprox/pkg/api"
	pkgerrors "github.com/absmach/fedprox/pkg/errors"
	"github.com/absmach/fedprox/pkg/fl"
)

type trainReq struct {
	fl.Task
	// cbor asks for the update to be encoded as CBOR.
	cbor bool
}

func (r *trainReq) validate() error {
	if r.RoundID == "" {
		return pkgerrors.ErrMissingRoundID
	}
	if r.LocalSteps < 0 {
		return pkgerrors.ErrMalformedEntity
	}

	return nil
}

type listReq struct {
	offset, limit uint64
}

func (r *listReq) validate() error {
	if r.limit == 0 || r.limit > api.MaxLimitSize {
		return pkgerrors.ErrLimitSize
	}

	return nil
}
