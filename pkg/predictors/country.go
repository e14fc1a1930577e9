package predictors

import (
	"context"
	"strings"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
)

type countryPayload struct {
	Country []struct {
		CountryID   string  `json:"country_id"`
		Probability float64 `json:"probability"`
	} `json:"country"`
}

type countryFetcher struct {
	fieldFetcher
}

// NewCountryFetcher builds the fetcher reading {"country": [{"country_id": ...}, ...]}.
// Only the first (most probable) entry is used.
func NewCountryFetcher(cfg Predictor, requester Requester) Fetcher {
	return &countryFetcher{fieldFetcher: newFieldFetcher(domain.FieldCountry, cfg, requester)}
}

func (f *countryFetcher) Fetch(ctx context.Context, name string) (domain.FieldOutcome, error) {
	var payload countryPayload
	res, err := f.fetchInto(ctx, name, &payload)
	if err != nil {
		return domain.FieldOutcome{}, err
	}

	out := domain.FieldOutcome{Field: domain.FieldCountry, Status: res.Status}
	if len(payload.Country) > 0 {
		if id := strings.TrimSpace(payload.Country[0].CountryID); id != "" {
			out.Found = true
			out.Text = id
		}
	}
	return out, nil
}
