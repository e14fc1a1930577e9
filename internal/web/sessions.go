package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/samvad-hq/samvad-name-profiler/internal/profiler"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "profiler_session"

// Factory builds the orchestrator for a new session.
type Factory func() *profiler.Orchestrator

// SessionStore maps session ids to orchestrators. Idle sessions expire after the TTL.
type SessionStore struct {
	mu      sync.Mutex
	items   *cache.Cache
	ttl     time.Duration
	factory Factory
}

// NewSessionStore returns a store whose sessions live for ttl after their last use.
func NewSessionStore(ttl time.Duration, factory Factory) *SessionStore {
	items := cache.New(ttl, ttl)
	items.OnEvicted(func(_ string, v interface{}) {
		if o, ok := v.(*profiler.Orchestrator); ok {
			// Close waits for in-flight lookups; keep the janitor free.
			go o.Close()
		}
	})
	return &SessionStore{items: items, ttl: ttl, factory: factory}
}

// For returns the orchestrator bound to the request's session, starting a new session
// (and setting the cookie) when there is none.
func (s *SessionStore) For(c *gin.Context) *profiler.Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := c.Cookie(SessionCookie)
	if err == nil {
		if _, perr := uuid.Parse(id); perr != nil {
			id = ""
		}
	}

	var orch *profiler.Orchestrator
	if id != "" {
		if v, ok := s.items.Get(id); ok {
			orch = v.(*profiler.Orchestrator)
		}
	}
	if orch == nil {
		id = uuid.NewString()
		orch = s.factory()
	}

	// Re-set to slide the expiry.
	s.items.Set(id, orch, cache.DefaultExpiration)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(s.ttl.Seconds()), "/", "", false, true)
	return orch
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	return s.items.ItemCount()
}

// Close waits for every session's background lookups and drops all sessions.
func (s *SessionStore) Close() {
	s.mu.Lock()
	items := s.items.Items()
	s.items.Flush()
	s.mu.Unlock()

	for _, item := range items {
		if o, ok := item.Object.(*profiler.Orchestrator); ok {
			o.Close()
		}
	}
}
