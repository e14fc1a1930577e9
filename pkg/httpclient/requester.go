package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Request failure kinds. The texts are shown to users verbatim.
var (
	ErrNoResponse = errors.New("No response received from the server.") //nolint:staticcheck // user-facing text
	ErrSend       = errors.New("Request failed to be sent.")            //nolint:staticcheck // user-facing text
	ErrUnexpected = errors.New("An unexpected error occurred.")         //nolint:staticcheck // user-facing text
)

// RequestError reports a GET that produced no usable response.
// errors.Is matches both the Kind sentinel and the underlying cause.
type RequestError struct {
	Kind error
	URL  string
	Err  error
}

func (e *RequestError) Error() string { return e.Kind.Error() }

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Result is the normalized outcome of a GET: the body and status, whatever the status is.
type Result struct {
	Data   []byte
	Status int
	Cached bool
}

// DecodeJSON unmarshals the body into v.
func (r Result) DecodeJSON(v any) error {
	return json.Unmarshal(r.Data, v)
}

// Requester performs GETs against a base URL plus a query suffix and normalizes the outcome.
type Requester struct {
	client Client
	cache  Cache
	log    Logger
}

// NewRequester wraps client. cache and log may be nil.
func NewRequester(client Client, cache Cache, log Logger) *Requester {
	if log == nil {
		log = noopLogger{}
	}
	return &Requester{client: client, cache: cache, log: log}
}

// Get requests baseURL+query. Any response the server produced is returned as a Result,
// including 4xx/5xx; only exchanges without a response fail with a *RequestError.
func (r *Requester) Get(ctx context.Context, baseURL, query string, headers map[string]string) (res Result, err error) {
	target := baseURL + query

	defer func() {
		if rec := recover(); rec != nil {
			res = Result{}
			err = r.fail(ErrUnexpected, target, fmt.Errorf("panic: %v", rec))
		}
	}()

	if err := validateURL(target); err != nil {
		return Result{}, r.fail(ErrSend, target, err)
	}

	if body, ok := r.lookup(target); ok {
		return Result{Data: body, Status: 200, Cached: true}, nil
	}

	resp, err := r.client.Get(ctx, target, headers)
	if resp != nil {
		if err != nil {
			r.log.WarnObj("http request failed after response", "request_error", map[string]any{
				"url":    target,
				"status": resp.StatusCode(),
				"error":  err.Error(),
			})
		}
		res := Result{Data: resp.Body(), Status: resp.StatusCode()}
		if err == nil && res.Status >= 200 && res.Status < 300 {
			r.save(target, res.Data)
		}
		return res, nil
	}
	if err == nil {
		return Result{}, r.fail(ErrUnexpected, target, errors.New("client returned neither response nor error"))
	}
	return Result{}, r.fail(classify(err), target, err)
}

func (r *Requester) fail(kind error, target string, cause error) error {
	r.log.WarnObj("http request failed", "request_error", map[string]any{
		"url":   target,
		"kind":  kind.Error(),
		"error": cause.Error(),
	})
	return &RequestError{Kind: kind, URL: target, Err: cause}
}

func (r *Requester) lookup(key string) ([]byte, bool) {
	if r.cache == nil {
		return nil, false
	}
	body, ok, err := r.cache.Lookup(key)
	if err != nil {
		r.log.WarnObj("response cache lookup failed", "cache_error", map[string]any{
			"url":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	if ok {
		r.log.DebugObj("response served from cache", "url", key)
	}
	return body, ok
}

func (r *Requester) save(key string, body []byte) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Save(key, body); err != nil {
		r.log.WarnObj("response cache save failed", "cache_error", map[string]any{
			"url":   key,
			"error": err.Error(),
		})
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// classify maps a transport error onto a failure kind. Anything that reached the
// network layer counts as "no response"; the rest never left the client.
func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrNoResponse
	case errors.As(err, &netErr):
		return ErrNoResponse
	default:
		return ErrSend
	}
}
