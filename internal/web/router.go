package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samvad-hq/samvad-name-profiler/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options wires the router's collaborators. Limiter and Metrics are optional.
// TrustedProxies lists the proxies allowed to set X-Forwarded-For; nil trusts none,
// so the rate limiter keys on the connection's remote address.
type Options struct {
	Sessions       *SessionStore
	Limiter        *RateLimiter
	Metrics        http.Handler
	Log            logger.Logger
	TrustedProxies []string
}

// NewRouter builds the gin engine for the page, the JSON API and the ops endpoints.
func NewRouter(opts Options) (*gin.Engine, error) {
	log := opts.Log
	if log == nil {
		log = logger.NopLogger{}
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), requestLogger(log))
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	h := NewHandler(opts.Sessions, log)

	limited := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if opts.Limiter == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{opts.Limiter.Middleware(), handler}
	}

	r.GET("/", h.ShowPage)
	r.POST("/", limited(h.SubmitPage)...)

	api := r.Group("/api/profile")
	{
		api.GET("", h.GetProfile)
		api.PUT("/name", h.EditName)
		api.POST("/submit", limited(h.Submit)...)
	}

	r.GET("/healthz", h.Health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	return r, nil
}
