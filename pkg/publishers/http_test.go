package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
)

func newTestHTTPPublisher(t *testing.T, url string, headers map[string]string) Publisher {
	t.Helper()
	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "lookup-hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{
			URL:            url,
			Method:         http.MethodPost,
			Headers:        headers,
			TimeoutSeconds: 2,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}
	return pub
}

func TestHTTPPublisherPostsLookupEvent(t *testing.T) {
	received := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("X-Lookup-Source"); got != "profiler" {
			t.Errorf("missing configured header, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
			t.Errorf("content type = %q", got)
		}
		var evt Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		received <- evt
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub := newTestHTTPPublisher(t, srv.URL, map[string]string{"X-Lookup-Source": "profiler"})
	if pub.ID() != "lookup-hook" || pub.Type() != TypeHTTP {
		t.Fatalf("unexpected identity %s/%s", pub.ID(), pub.Type())
	}

	started := time.Now().Add(-250 * time.Millisecond)
	evt := NewEvent("Alice", "partial", domain.Profile{Age: 30, Gender: "female", Country: ""}, "No data found for the given username!", started)
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got := <-received
	if got.Name != "Alice" || got.Outcome != "partial" {
		t.Fatalf("unexpected event identity %+v", got)
	}
	if got.Profile.Age != 30 || got.Profile.Gender != "female" || got.Profile.Country != "" {
		t.Fatalf("unexpected profile %+v", got.Profile)
	}
	if got.Message != "No data found for the given username!" {
		t.Fatalf("message = %q", got.Message)
	}
	if !got.StartedAt.Equal(evt.StartedAt) || got.CompletedAt.Before(got.StartedAt) {
		t.Fatalf("unexpected timestamps started=%v completed=%v", got.StartedAt, got.CompletedAt)
	}
}

func TestHTTPPublisherErrorIncludesResponseSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "sink rejected lookup", http.StatusBadRequest)
	}))
	defer srv.Close()

	pub := newTestHTTPPublisher(t, srv.URL, nil)
	err := pub.Publish(context.Background(), NewEvent("Bob", "failed", domain.NewProfile(), "Request failed to be sent.", time.Now()))
	if err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "sink rejected lookup") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestHTTPPublisherRequiresConfig(t *testing.T) {
	if _, err := newHTTPPublisher(context.Background(), PublisherConfig{ID: "hook", Type: TypeHTTP}, nil); err == nil {
		t.Fatalf("expected error for missing http configuration")
	}
}
