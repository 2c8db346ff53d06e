package party

import (
	"context"
	"net/http"

	"github.com/absmach/fedprox/pkg/dataset"
	"github.com/absmach/fedprox/pkg/fedprox"
)

// FileSource reads the party's dataset document from path.
func FileSource(path string, opts ...dataset.Option) SourceFactory {
	return func(context.Context) (fedprox.BatchSource, error) {
		doc, err := dataset.Load(path)
		if err != nil {
			return nil, err
		}

		return doc.Source(opts...)
	}
}

// StoreSource fetches the party's dataset from the local data store.
func StoreSource(client *http.Client, url string, opts ...dataset.Option) SourceFactory {
	return func(ctx context.Context) (fedprox.BatchSource, error) {
		doc, err := dataset.Fetch(ctx, client, url)
		if err != nil {
			return nil, err
		}

		return doc.Source(opts...)
	}
}

// SyntheticSource generates a deterministic dataset for the party.
func SyntheticSource(partyID string, samples, features int, opts ...dataset.Option) SourceFactory {
	return func(context.Context) (fedprox.BatchSource, error) {
		return dataset.Synthetic(partyID, samples, features).Source(opts...)
	}
}
