// README: Session and chat handlers (create, fetch, append turn).
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wayfarer/internal/http/middleware"
	"wayfarer/internal/modules/session"
	"wayfarer/internal/types"
)

const maxMessageLen = 1000

type ChatHandler struct {
	sessions *session.Manager
}

func NewChatHandler(sessions *session.Manager) *ChatHandler {
	return &ChatHandler{sessions: sessions}
}

type startSessionReq struct {
	SessionID string            `json:"session_id"`
	Message   string            `json:"message"`
	Source    string            `json:"source"`
	Metadata  map[string]string `json:"metadata"`
}

// Start handles POST /api/sessions. The initial message is optional; when
// present it seeds the conversation.
func (h *ChatHandler) Start(c *gin.Context) {
	var req startSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if len(strings.TrimSpace(req.Message)) > maxMessageLen {
		respondError(c, http.StatusBadRequest, "message too long")
		return
	}

	sess, created, err := h.sessions.GetOrCreate(c.Request.Context(), session.StartCommand{
		SessionID:      types.ID(strings.TrimSpace(req.SessionID)),
		UserID:         middleware.CallerUID(c),
		InitialMessage: req.Message,
		Source:         req.Source,
		Metadata:       req.Metadata,
	})
	if err != nil {
		writeSessionError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond(c, status, session.BuildSessionView(sess))
}

// Get handles GET /api/sessions/:id.
func (h *ChatHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, "missing session id")
		return
	}
	sess, ok, err := h.sessions.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	if !ok {
		respondError(c, http.StatusNotFound, "session not found")
		return
	}
	respond(c, http.StatusOK, session.BuildSessionView(sess))
}

type chatMessageReq struct {
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata"`
}

// Message handles POST /api/sessions/:id/messages. Unknown session ids are
// not an error: the manager recreates the session and answers normally.
func (h *ChatHandler) Message(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, "missing session id")
		return
	}
	var req chatMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		respondError(c, http.StatusBadRequest, "message required")
		return
	}
	if len(msg) > maxMessageLen {
		respondError(c, http.StatusBadRequest, "message too long")
		return
	}

	res, err := h.sessions.AddChatMessage(c.Request.Context(), session.ChatCommand{
		SessionID: types.ID(id),
		UserID:    middleware.CallerUID(c),
		Message:   req.Message,
		Metadata:  req.Metadata,
	})
	if err != nil {
		writeSessionError(c, err)
		return
	}
	respond(c, http.StatusOK, session.BuildChatResponse(res))
}
