// Package handler exposes the chat pipeline over HTTP.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/relaydesk/relaydesk/internal/logger"
	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// ChatHandler serves the web chat endpoints
type ChatHandler struct {
	pipeline  interfaces.Pipeline
	maxLength int
}

// NewChatHandler creates a chat handler
func NewChatHandler(pipeline interfaces.Pipeline, maxLength int) *ChatHandler {
	if maxLength <= 0 {
		maxLength = 10000
	}
	return &ChatHandler{pipeline: pipeline, maxLength: maxLength}
}

// Chat handles POST /api/v1/chat. Validation happens here at the
// boundary; empty input never reaches the classifier.
func (h *ChatHandler) Chat(c *gin.Context) {
	var msg types.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrInvalidRequest.Error()})
		return
	}

	if strings.TrimSpace(msg.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrEmptyMessage.Error()})
		return
	}
	if len(msg.Text) > h.maxLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": types.ErrMessageTooLong.Error()})
		return
	}
	if msg.Channel == "" {
		msg.Channel = types.ChannelWeb
	}

	resp := h.pipeline.Process(c.Request.Context(), &msg)
	c.JSON(http.StatusOK, resp)
}

// History handles GET /api/v1/chat/history/:user_id
func (h *ChatHandler) History(c *gin.Context) {
	userID := c.Param("user_id")
	sessionID := c.Query("session_id")

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	entries, err := h.pipeline.History(c.Request.Context(), userID, sessionID, limit)
	if err != nil {
		logger.Errorf(c.Request.Context(), "failed to fetch history for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve chat history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    userID,
		"session_id": sessionID,
		"history":    entries,
		"count":      len(entries),
	})
}
