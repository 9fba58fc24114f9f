package channel

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/relaydesk/relaydesk/internal/logger"
	"github.com/relaydesk/relaydesk/internal/types"
)

// slackMaxMessageLength is Slack's per-message text limit
const slackMaxMessageLength = 4000

// SlackSender delivers responses to Slack channels and threads
type SlackSender struct {
	api          *slack.Client
	adminChannel string
}

// NewSlackSender creates a sender. An empty token yields a disabled
// sender whose sends are logged and dropped.
func NewSlackSender(botToken, adminChannel string) *SlackSender {
	var api *slack.Client
	if botToken != "" {
		api = slack.New(botToken)
	}
	return &SlackSender{api: api, adminChannel: adminChannel}
}

// Enabled reports whether the sender has a configured client
func (s *SlackSender) Enabled() bool {
	return s.api != nil
}

// Send posts text to a channel, threading under threadTS when set and
// chunking past the message-size limit
func (s *SlackSender) Send(ctx context.Context, channelID, text, threadTS string) error {
	if s.api == nil {
		logger.Warnf(ctx, "slack bot token not configured, dropping message to %s", channelID)
		return nil
	}

	for _, chunk := range Chunk(text, slackMaxMessageLength) {
		opts := []slack.MsgOption{slack.MsgOptionText(chunk, false)}
		if threadTS != "" {
			opts = append(opts, slack.MsgOptionTS(threadTS))
		}
		if _, _, err := s.api.PostMessageContext(ctx, channelID, opts...); err != nil {
			return fmt.Errorf("failed to post slack message: %w", err)
		}
	}
	return nil
}

// NotifyEscalation mirrors an escalated exchange to the admin channel so
// a human agent can pick it up. origin and userRef arrive preformatted
// for display: Slack link syntax for Slack sources, plain labels for
// other channels.
func (s *SlackSender) NotifyEscalation(ctx context.Context, origin, userRef, originalText string, resp *types.Response) {
	if s.api == nil || s.adminChannel == "" {
		return
	}

	if err := s.Send(ctx, s.adminChannel, escalationNotice(origin, userRef, originalText, resp), ""); err != nil {
		logger.Errorf(ctx, "failed to notify escalation to %s: %v", s.adminChannel, err)
	}
}

func escalationNotice(origin, userRef, originalText string, resp *types.Response) string {
	return fmt.Sprintf(":rotating_light: *Escalation Required*\n\n"+
		"*User:* %s\n"+
		"*Channel:* %s\n"+
		"*Original Message:* %s\n"+
		"*Intent:* %s\n"+
		"*Confidence:* %.2f",
		userRef, origin, originalText, resp.Intent, resp.Confidence)
}
