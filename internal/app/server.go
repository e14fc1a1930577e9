package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samvad-hq/samvad-name-profiler/internal/config"
	"github.com/samvad-hq/samvad-name-profiler/internal/logger"
	"github.com/samvad-hq/samvad-name-profiler/internal/metrics"
	"github.com/samvad-hq/samvad-name-profiler/internal/profiler"
	"github.com/samvad-hq/samvad-name-profiler/internal/storage"
	"github.com/samvad-hq/samvad-name-profiler/internal/web"
	"github.com/samvad-hq/samvad-name-profiler/pkg/httpclient"
	"github.com/samvad-hq/samvad-name-profiler/pkg/predictors"
	"github.com/samvad-hq/samvad-name-profiler/pkg/publishers"
)

// Server is the profiler runtime. It owns the HTTP listener plus everything the per-session
// orchestrators share: predictor fetchers, the response store, metrics and publishers.
type Server struct {
	cfg        *config.Config
	log        logger.Logger
	store      storage.Store
	fanout     *publishers.Fanout
	sessions   *web.SessionStore
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// NewServer builds a server runtime from config files.
func NewServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	predictorReg, err := predictors.LoadRegistry(cfg.PredictorsFile)
	if err != nil {
		return nil, fmt.Errorf("load predictors registry: %w", err)
	}
	predictorSummaries := make([]map[string]string, 0, len(predictorReg.All()))
	for _, p := range predictorReg.All() {
		predictorSummaries = append(predictorSummaries, map[string]string{
			"id":       p.ID,
			"field":    string(p.Field),
			"base_url": p.BaseURL,
		})
	}
	log.InfoObj("predictors registry loaded", "predictors_meta", map[string]any{
		"count":      len(predictorSummaries),
		"predictors": predictorSummaries,
	})

	storeOpts := storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	requester := httpclient.NewRequester(httpclient.NewRestyClient(cfg.RequestTimeout), store, log)
	fetchers, err := predictors.DefaultFetcherRegistry(predictorReg, requester)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build fetchers: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	m := metrics.New()
	orchestratorOpts := []profiler.Option{
		profiler.WithLogger(log),
		profiler.WithRecorder(m),
		profiler.WithMessageTTL(cfg.MessageTTL),
	}
	if fanout.Size() > 0 {
		orchestratorOpts = append(orchestratorOpts, profiler.WithEvents(fanout))
	}
	sessions := web.NewSessionStore(cfg.SessionTTL, func() *profiler.Orchestrator {
		return profiler.New(fetchers, orchestratorOpts...)
	})

	if strings.EqualFold(cfg.Env, "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := web.NewRouter(web.Options{
		Sessions:       sessions,
		Limiter:        web.NewRateLimiter(cfg.SubmitRatePerSecond, cfg.SubmitBurst),
		Metrics:        m.Handler(),
		Log:            log,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		sessions.Close()
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("build router: %w", err)
	}

	return &Server{
		cfg:      cfg,
		log:      log,
		store:    store,
		fanout:   fanout,
		sessions: sessions,
		metrics:  m,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: cfg.RequestTimeout,
		},
	}, nil
}

// buildFanout loads the optional publishers file. No file means no publishers.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		log.InfoObj("no publishers file configured; lookup events are not published", "publishers_file", "")
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return fmt.Errorf("server is not initialized")
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.close()
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.close()

	s.log.InfoObj("http server starting", "server_state", map[string]any{
		"addr":             ln.Addr().String(),
		"publishers_count": s.fanout.Size(),
		"message_ttl_ms":   s.cfg.MessageTTL.Milliseconds(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		s.log.InfoObj("http server shutting down", "reason", ctx.Err().Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// close waits for in-flight lookups, then releases publishers and storage.
func (s *Server) close() {
	if s.sessions != nil {
		s.sessions.Close()
	}
	if err := s.fanout.Close(); err != nil {
		s.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}
