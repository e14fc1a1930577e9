package predictors

import (
	"fmt"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
	"github.com/samvad-hq/samvad-name-profiler/pkg/httpclient"
)

// fetcherRegistry implements FetcherRegistry.
type fetcherRegistry struct {
	fetchers map[domain.Field]Fetcher
	mu       sync.RWMutex
}

// NewFetcherRegistry builds a registry keyed by each fetcher's field. Later fetchers for the
// same field replace earlier ones.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{fetchers: make(map[domain.Field]Fetcher, len(fetchers))}
	for _, f := range fetchers {
		reg.register(f)
	}
	return reg
}

func (r *fetcherRegistry) register(f Fetcher) {
	if f == nil || !f.Field().Valid() {
		return
	}
	r.mu.Lock()
	r.fetchers[f.Field()] = f
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for the given field.
func (r *fetcherRegistry) FetcherFor(field domain.Field) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchers[field]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for field %q", field)
}

// DefaultRequester returns a request client over a tuned resty transport.
func DefaultRequester() Requester {
	return httpclient.NewRequester(httpclient.NewRestyClient(15*time.Second), nil, nil)
}

// DefaultFetcherRegistry wires the age, gender and country fetchers for reg.
func DefaultFetcherRegistry(reg *Registry, requester Requester) (FetcherRegistry, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if requester == nil {
		requester = DefaultRequester()
	}

	builders := map[domain.Field]func(Predictor, Requester) Fetcher{
		domain.FieldAge:     NewAgeFetcher,
		domain.FieldGender:  NewGenderFetcher,
		domain.FieldCountry: NewCountryFetcher,
	}

	fetchers := make([]Fetcher, 0, len(domain.Fields))
	for _, field := range domain.Fields {
		p, ok := reg.ForField(field)
		if !ok {
			return nil, fmt.Errorf("no predictor configured for field %q", field)
		}
		fetchers = append(fetchers, builders[field](p, requester))
	}
	return NewFetcherRegistry(fetchers...), nil
}
