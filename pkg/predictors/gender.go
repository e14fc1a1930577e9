package predictors

import (
	"context"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
)

type genderPayload struct {
	Gender *string `json:"gender"`
}

type genderFetcher struct {
	fieldFetcher
}

// NewGenderFetcher builds the fetcher reading {"gender": string|null}.
func NewGenderFetcher(cfg Predictor, requester Requester) Fetcher {
	return &genderFetcher{fieldFetcher: newFieldFetcher(domain.FieldGender, cfg, requester)}
}

func (f *genderFetcher) Fetch(ctx context.Context, name string) (domain.FieldOutcome, error) {
	var payload genderPayload
	res, err := f.fetchInto(ctx, name, &payload)
	if err != nil {
		return domain.FieldOutcome{}, err
	}

	out := domain.FieldOutcome{Field: domain.FieldGender, Status: res.Status}
	if payload.Gender != nil {
		out.Found = true
		out.Text = *payload.Gender
	}
	return out, nil
}
