package predictors

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
	"github.com/samvad-hq/samvad-name-profiler/pkg/httpclient"
)

// ErrMalformedPayload reports a prediction response that is not the expected JSON object.
var ErrMalformedPayload = errors.New("Received an unreadable response from the server.") //nolint:staticcheck // user-facing text

// FetchError wraps any failure of a single field fetch. Its message is the underlying
// message so it can be shown to users as-is.
type FetchError struct {
	Field  domain.Field
	Status int
	Err    error
	Cause  error
}

func (e *FetchError) Error() string { return e.Err.Error() }

func (e *FetchError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// fieldFetcher holds what every field-specific fetcher shares.
type fieldFetcher struct {
	field     domain.Field
	cfg       Predictor
	requester Requester
}

func newFieldFetcher(field domain.Field, cfg Predictor, requester Requester) fieldFetcher {
	if requester == nil {
		requester = DefaultRequester()
	}
	return fieldFetcher{field: field, cfg: cfg, requester: requester}
}

func (f fieldFetcher) Field() domain.Field { return f.field }

// fetchInto requests the prediction for name and decodes the JSON body into dst.
// An empty body leaves dst untouched.
func (f fieldFetcher) fetchInto(ctx context.Context, name string, dst any) (httpclient.Result, error) {
	res, err := f.requester.Get(ctx, f.cfg.BaseURL, url.QueryEscape(name), Headers(f.cfg))
	if err != nil {
		return res, &FetchError{Field: f.field, Err: err}
	}

	if len(bytes.TrimSpace(res.Data)) == 0 {
		return res, nil
	}
	if err := res.DecodeJSON(dst); err != nil {
		return res, &FetchError{
			Field:  f.field,
			Status: res.Status,
			Err:    ErrMalformedPayload,
			Cause:  errors.New(responseSnippet(res.Data) + ": " + err.Error()),
		}
	}
	return res, nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
