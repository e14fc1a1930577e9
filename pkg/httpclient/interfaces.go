package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// Implementations return a non-nil Response alongside an error when the server answered
// but the exchange still failed (for example a truncated body).
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Cache stores successful response bodies keyed by request URL.
type Cache interface {
	Lookup(key string) ([]byte, bool, error)
	Save(key string, body []byte) error
}

// Logger defines the logging surface the request client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
