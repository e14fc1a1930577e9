package predictors

import (
	"context"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
	"github.com/samvad-hq/samvad-name-profiler/pkg/httpclient"
)

// Fetcher resolves one profile field for a name.
// Concrete implementations live in field-specific files (e.g., age.go).
type Fetcher interface {
	Field() domain.Field
	Fetch(ctx context.Context, name string) (domain.FieldOutcome, error)
}

// FetcherRegistry resolves the fetcher implementation for a given field.
type FetcherRegistry interface {
	FetcherFor(field domain.Field) (Fetcher, error)
}

// Requester is the request client contract the fetchers depend on.
type Requester interface {
	Get(ctx context.Context, baseURL, query string, headers map[string]string) (httpclient.Result, error)
}
