package assistant

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is one dialogue with the assistant.
type Session interface {
	Greet(ctx context.Context) (string, error)
	Reply(ctx context.Context, text string) (string, error)
}

// SessionFactory starts a new dialogue with the given id.
type SessionFactory func(id string) Session

// Handler keeps text dialogues with the assistant in memory. A nil factory
// means no language model is configured.
type Handler struct {
	newSession SessionFactory
	logger     zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]Session
}

func NewHandler(factory SessionFactory, logger zerolog.Logger) *Handler {
	return &Handler{
		newSession: factory,
		logger:     logger,
		sessions:   make(map[string]Session),
	}
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

// Start answers POST /api/assistant/sessions with a new session and greeting.
func (h *Handler) Start(c *gin.Context) {
	if h.newSession == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "language model is not configured"})
		return
	}

	id := uuid.NewString()
	s := h.newSession(id)

	greeting, err := s.Greet(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", id).Msg("greeting failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()

	h.logger.Info().Str("session_id", id).Msg("assistant session started")
	c.JSON(http.StatusCreated, gin.H{"session_id": id, "reply": greeting})
}

// Message answers POST /api/assistant/sessions/:id/messages.
func (h *Handler) Message(c *gin.Context) {
	id := c.Param("id")

	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	reply, err := s.Reply(c.Request.Context(), req.Text)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", id).Msg("reply failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": id, "reply": reply})
}

// End answers DELETE /api/assistant/sessions/:id.
func (h *Handler) End(c *gin.Context) {
	id := c.Param("id")

	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
