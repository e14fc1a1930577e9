package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samvad-hq/samvad-name-profiler/internal/logger"
	"github.com/samvad-hq/samvad-name-profiler/internal/profiler"
)

// Handler serves the profile page and its JSON API.
type Handler struct {
	sessions *SessionStore
	log      logger.Logger
}

// NewHandler binds handlers to a session store.
func NewHandler(sessions *SessionStore, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{sessions: sessions, log: log}
}

type pageData struct {
	State profiler.State
	View  profiler.View
}

type profileResponse struct {
	State profiler.State `json:"state"`
	View  profiler.View  `json:"view"`
}

type nameRequest struct {
	Name string `json:"name"`
}

func errorBody(msg string) gin.H {
	return gin.H{"error": msg}
}

func newProfileResponse(s profiler.State) profileResponse {
	return profileResponse{State: s, View: s.View()}
}

// ShowPage renders the form with the session's current view.
func (h *Handler) ShowPage(c *gin.Context) {
	state := h.sessions.For(c).Snapshot()
	c.HTML(http.StatusOK, "index.html", pageData{State: state, View: state.View()})
}

// SubmitPage edits the name from the form and waits for the lookup before rendering.
func (h *Handler) SubmitPage(c *gin.Context) {
	orch := h.sessions.For(c)
	orch.EditName(c.PostForm("name"))

	state, err := orch.Submit(c.Request.Context())
	status := http.StatusOK
	if errors.Is(err, profiler.ErrSubmissionInFlight) {
		status = http.StatusConflict
	}
	c.HTML(status, "index.html", pageData{State: state, View: state.View()})
}

// GetProfile returns the session's state and view.
func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, newProfileResponse(h.sessions.For(c).Snapshot()))
}

// EditName stores a new name for the session.
func (h *Handler) EditName(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(h.sessions.For(c).EditName(req.Name)))
}

// Submit starts a lookup in the background and answers with the loading state.
func (h *Handler) Submit(c *gin.Context) {
	state, err := h.sessions.For(c).SubmitAsync(c.Request.Context())
	switch {
	case errors.Is(err, profiler.ErrEmptyName):
		c.JSON(http.StatusUnprocessableEntity, newProfileResponse(state))
	case errors.Is(err, profiler.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, newProfileResponse(state))
	case err != nil:
		h.log.ErrorObj("submit failed", "submit_error", err.Error())
		c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	default:
		c.JSON(http.StatusAccepted, newProfileResponse(state))
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.sessions.Len()})
}
