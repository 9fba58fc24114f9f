package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/relaydesk/relaydesk/internal/application/service/channel"
	"github.com/relaydesk/relaydesk/internal/logger"
	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

// WebhookHandler translates chat-platform webhook payloads into messages
// and delivers pipeline responses back to the originating channel
type WebhookHandler struct {
	pipeline      interfaces.Pipeline
	slackSender   *channel.SlackSender
	whatsapp      *channel.WhatsAppSender
	signingSecret string
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(
	pipeline interfaces.Pipeline,
	slackSender *channel.SlackSender,
	whatsapp *channel.WhatsAppSender,
	signingSecret string,
) *WebhookHandler {
	return &WebhookHandler{
		pipeline:      pipeline,
		slackSender:   slackSender,
		whatsapp:      whatsapp,
		signingSecret: signingSecret,
	}
}

// Slack handles POST /webhooks/slack
func (h *WebhookHandler) Slack(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if h.signingSecret != "" {
		if !h.verifySlackSignature(c, body) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		logger.Errorf(c.Request.Context(), "failed to parse slack event: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge payload"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"challenge": challenge.Challenge})
		return

	case slackevents.CallbackEvent:
		// Ignore bot echoes so the bot never talks to itself
		if ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok &&
			ev.BotID == "" && ev.Text != "" && ev.User != "" {
			h.handleSlackMessage(c, ev)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WebhookHandler) verifySlackSignature(c *gin.Context, body []byte) bool {
	verifier, err := slack.NewSecretsVerifier(c.Request.Header, h.signingSecret)
	if err != nil {
		return false
	}
	if _, err := verifier.Write(body); err != nil {
		return false
	}
	return verifier.Ensure() == nil
}

func (h *WebhookHandler) handleSlackMessage(c *gin.Context, ev *slackevents.MessageEvent) {
	ctx := c.Request.Context()

	sessionTS := ev.ThreadTimeStamp
	if sessionTS == "" {
		sessionTS = ev.TimeStamp
	}

	msg := &types.Message{
		Text:      ev.Text,
		UserID:    "slack_" + ev.User,
		SessionID: fmt.Sprintf("slack_%s_%s", ev.Channel, sessionTS),
		Channel:   types.ChannelSlack,
		Metadata: types.JSONMap{
			"slack_channel": ev.Channel,
			"slack_user":    ev.User,
			"thread_ts":     ev.ThreadTimeStamp,
			"ts":            ev.TimeStamp,
		},
	}

	resp := h.pipeline.Process(ctx, msg)

	if err := h.slackSender.Send(ctx, ev.Channel, resp.Text, ev.ThreadTimeStamp); err != nil {
		logger.Errorf(ctx, "failed to reply on slack channel %s: %v", ev.Channel, err)
	}
	if resp.RequiresEscalation {
		h.slackSender.NotifyEscalation(ctx,
			fmt.Sprintf("<#%s>", ev.Channel), fmt.Sprintf("<@%s>", ev.User), ev.Text, resp)
	}
}

// WhatsApp handles POST /webhooks/whatsapp (Twilio form posts)
func (h *WebhookHandler) WhatsApp(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")

	if from == "" || body == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx := c.Request.Context()
	userPhone := strings.NewReplacer("whatsapp:", "", "+", "").Replace(from)

	msg := &types.Message{
		Text:      body,
		UserID:    "whatsapp_" + userPhone,
		SessionID: "whatsapp_" + userPhone,
		Channel:   types.ChannelWhatsApp,
		Metadata: types.JSONMap{
			"from_number": from,
			"to_number":   c.PostForm("To"),
			"message_sid": c.PostForm("MessageSid"),
			"account_sid": c.PostForm("AccountSid"),
		},
	}

	resp := h.pipeline.Process(ctx, msg)

	if err := h.whatsapp.Send(ctx, from, resp.Text); err != nil {
		logger.Errorf(ctx, "failed to reply on whatsapp to %s: %v", from, err)
	}
	if resp.RequiresEscalation {
		h.whatsapp.SendEscalationAck(ctx, from)
		h.slackSender.NotifyEscalation(ctx, "WhatsApp", userPhone, body, resp)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
