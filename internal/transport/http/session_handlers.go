package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/sessionchat/internal/core"
	"github.com/vovakirdan/sessionchat/internal/store"
)

// SessionHandlers serves read-only REST views of sessions.
type SessionHandlers struct {
	store     store.Store
	directory *core.Directory
	log       *zerolog.Logger
}

// NewSessionHandlers creates a new session handlers instance.
func NewSessionHandlers(st store.Store, logger *zerolog.Logger) *SessionHandlers {
	return &SessionHandlers{
		store:     st,
		directory: core.NewDirectory(st),
		log:       logger,
	}
}

// ListSessions returns the sessions owned by the caller, including their messages.
// GET /api/sessions?userId=...
func (h *SessionHandlers) ListSessions(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)
	if userID == "" {
		userID = strings.TrimSpace(c.Query("userId"))
	}
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userId is required"})
		return
	}

	sessions, err := h.store.ListSessionsByOwner(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to list sessions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Debug().Str("user_id", userID).Int("session_count", len(sessions)).Msg("sessions listed")
	c.JSON(http.StatusOK, toSessions(sessions))
}

// GetSession returns one session with its ordered messages.
// GET /api/sessions/:id
func (h *SessionHandlers) GetSession(c *gin.Context) {
	raw := c.Param("id")

	session, err := h.directory.History(c.Request.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidSessionID):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
		case errors.Is(err, core.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
		default:
			h.log.Error().Err(err).Str("session_id", raw).Msg("failed to get session")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, toSession(session))
}
