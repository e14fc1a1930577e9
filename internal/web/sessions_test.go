package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samvad-hq/samvad-name-profiler/internal/profiler"
	"github.com/samvad-hq/samvad-name-profiler/pkg/predictors"
	"github.com/stretchr/testify/require"
)

func newContext(cookie *http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		c.Request.AddCookie(cookie)
	}
	return c, rec
}

func TestSessionStoreReplacesUnknownOrMalformedIDs(t *testing.T) {
	created := 0
	store := NewSessionStore(time.Minute, func() *profiler.Orchestrator {
		created++
		return profiler.New(predictors.NewFetcherRegistry())
	})
	defer store.Close()

	c, rec := newContext(nil)
	first := store.For(c)
	cookie := sessionCookie(t, rec)

	c, _ = newContext(cookie)
	require.Same(t, first, store.For(c))

	c, rec = newContext(&http.Cookie{Name: SessionCookie, Value: "not-a-uuid"})
	other := store.For(c)
	require.NotSame(t, first, other)
	require.NotEqual(t, "not-a-uuid", sessionCookie(t, rec).Value)

	c, _ = newContext(&http.Cookie{Name: SessionCookie, Value: "9b2f3c1e-8a7d-4e5f-9a0b-1c2d3e4f5a6b"})
	store.For(c)

	require.Equal(t, 3, created)
	require.Equal(t, 3, store.Len())

	store.Close()
	require.Zero(t, store.Len())
}

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	store := NewSessionStore(50*time.Millisecond, func() *profiler.Orchestrator {
		return profiler.New(predictors.NewFetcherRegistry())
	})
	defer store.Close()

	c, rec := newContext(nil)
	first := store.For(c)
	cookie := sessionCookie(t, rec)

	time.Sleep(120 * time.Millisecond)

	c, _ = newContext(cookie)
	require.NotSame(t, first, store.For(c))
}
