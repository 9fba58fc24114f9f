package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/types"
)

type stubPipeline struct {
	lastMessage *types.Message
	response    *types.Response
	history     []*types.HistoryEntry
	historyErr  error
}

func (p *stubPipeline) Process(ctx context.Context, msg *types.Message) *types.Response {
	p.lastMessage = msg
	if p.response != nil {
		return p.response
	}
	return &types.Response{
		Text:      "ok",
		Intent:    types.IntentGeneral,
		SessionID: msg.SessionID,
	}
}

func (p *stubPipeline) History(ctx context.Context, userID, sessionID string, limit int) ([]*types.HistoryEntry, error) {
	if p.historyErr != nil {
		return nil, p.historyErr
	}
	if p.history == nil {
		return []*types.HistoryEntry{}, nil
	}
	return p.history, nil
}

func newChatRouter(p *stubPipeline, maxLength int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChatHandler(p, maxLength)
	r := gin.New()
	r.POST("/chat", h.Chat)
	r.GET("/chat/history/:user_id", h.History)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatSuccess(t *testing.T) {
	p := &stubPipeline{}
	r := newChatRouter(p, 0)

	w := postJSON(t, r, "/chat", `{"message": "where is my order", "user_id": "u1", "session_id": "s1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, "s1", resp.SessionID)

	// Channel defaults to web at the boundary
	require.NotNil(t, p.lastMessage)
	assert.Equal(t, types.ChannelWeb, p.lastMessage.Channel)
}

func TestChatRejectsBadInput(t *testing.T) {
	p := &stubPipeline{}
	r := newChatRouter(p, 0)

	tests := []struct {
		body    string
		wantErr string
	}{
		// Binding failures report the request shape problem, not a
		// missing message
		{`not json`, types.ErrInvalidRequest.Error()},
		{`{"user_id": "u1"}`, types.ErrInvalidRequest.Error()},
		{`{"message": "", "user_id": "u1"}`, types.ErrInvalidRequest.Error()},
		{`{"message": "   ", "user_id": "u1"}`, types.ErrEmptyMessage.Error()},
	}

	for _, tt := range tests {
		w := postJSON(t, r, "/chat", tt.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.body)
		assert.Contains(t, w.Body.String(), tt.wantErr, tt.body)
		assert.Nil(t, p.lastMessage)
	}
}

func TestChatRejectsOversizedMessage(t *testing.T) {
	p := &stubPipeline{}
	r := newChatRouter(p, 10)

	w := postJSON(t, r, "/chat", `{"message": "this is far too long for the limit", "user_id": "u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, p.lastMessage)
}

func TestChatKeepsExplicitChannel(t *testing.T) {
	p := &stubPipeline{}
	r := newChatRouter(p, 0)

	w := postJSON(t, r, "/chat", `{"message": "hi", "user_id": "u1", "channel": "slack"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.ChannelSlack, p.lastMessage.Channel)
}

func TestHistory(t *testing.T) {
	p := &stubPipeline{
		history: []*types.HistoryEntry{
			{ID: "1", UserID: "u1", SessionID: "s1", MessageType: types.MessageTypeUser},
			{ID: "2", UserID: "u1", SessionID: "s1", MessageType: types.MessageTypeBot},
		},
	}
	r := newChatRouter(p, 0)

	req := httptest.NewRequest(http.MethodGet, "/chat/history/u1?session_id=s1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		UserID    string                `json:"user_id"`
		SessionID string                `json:"session_id"`
		History   []*types.HistoryEntry `json:"history"`
		Count     int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u1", body.UserID)
	assert.Equal(t, "s1", body.SessionID)
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.History, 2)
}

func TestHistoryEmpty(t *testing.T) {
	p := &stubPipeline{}
	r := newChatRouter(p, 0)

	req := httptest.NewRequest(http.MethodGet, "/chat/history/nobody", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
}
