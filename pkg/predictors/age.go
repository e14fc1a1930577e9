package predictors

import (
	"context"
	"fmt"
	"math"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
)

// maxAge bounds a plausible predicted age; larger values are treated as a broken payload.
const maxAge = 150

type agePayload struct {
	Age *float64 `json:"age"`
}

type ageFetcher struct {
	fieldFetcher
}

// NewAgeFetcher builds the fetcher reading {"age": number|null}.
func NewAgeFetcher(cfg Predictor, requester Requester) Fetcher {
	return &ageFetcher{fieldFetcher: newFieldFetcher(domain.FieldAge, cfg, requester)}
}

func (f *ageFetcher) Fetch(ctx context.Context, name string) (domain.FieldOutcome, error) {
	var payload agePayload
	res, err := f.fetchInto(ctx, name, &payload)
	if err != nil {
		return domain.FieldOutcome{}, err
	}

	out := domain.FieldOutcome{Field: domain.FieldAge, Status: res.Status}
	if payload.Age == nil {
		return out, nil
	}
	age := math.Round(*payload.Age)
	if math.IsNaN(age) || age < 0 || age > maxAge {
		return domain.FieldOutcome{}, &FetchError{
			Field:  domain.FieldAge,
			Status: res.Status,
			Err:    ErrMalformedPayload,
			Cause:  fmt.Errorf("age %v out of range [0, %d]", *payload.Age, maxAge),
		}
	}
	out.Found = true
	out.Age = int(age)
	return out, nil
}
