package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samvad-hq/samvad-name-profiler/internal/domain"
)

func TestObserveFetchAndSubmission(t *testing.T) {
	m := New()
	m.ObserveFetch(domain.FieldAge, FetchFound, 20*time.Millisecond)
	m.ObserveFetch(domain.FieldAge, FetchFound, 30*time.Millisecond)
	m.ObserveFetch(domain.FieldCountry, FetchNoData, 10*time.Millisecond)
	m.ObserveSubmission(SubmissionPartial)

	if got := testutil.ToFloat64(m.fetches.WithLabelValues("age", FetchFound)); got != 2 {
		t.Fatalf("age found count = %v", got)
	}
	if got := testutil.ToFloat64(m.submissions.WithLabelValues(SubmissionPartial)); got != 1 {
		t.Fatalf("partial submissions = %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveSubmission(SubmissionComplete)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `profiler_submissions_total{outcome="complete"} 1`) {
		t.Fatalf("metrics output missing submission counter:\n%s", body)
	}
}
