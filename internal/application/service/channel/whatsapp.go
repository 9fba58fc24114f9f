package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/relaydesk/relaydesk/internal/logger"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

const (
	// whatsAppMaxMessageLength is Twilio's WhatsApp body limit
	whatsAppMaxMessageLength = 1600

	rateLimitPerMinute = 5
	rateLimitWindow    = time.Minute
)

const escalationAck = "A support agent will contact you shortly. Thank you for your patience!"

// WhatsAppSender delivers responses over Twilio's WhatsApp API
type WhatsAppSender struct {
	client     *twilio.RestClient
	fromNumber string
	cache      interfaces.Cache
}

// NewWhatsAppSender creates a sender. Missing credentials yield a disabled
// sender whose sends are logged and dropped. The cache carries the
// per-number rate-limit counters.
func NewWhatsAppSender(accountSID, authToken, fromNumber string, cache interfaces.Cache) *WhatsAppSender {
	var client *twilio.RestClient
	if accountSID != "" && authToken != "" && fromNumber != "" {
		client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
	}
	return &WhatsAppSender{client: client, fromNumber: fromNumber, cache: cache}
}

// Enabled reports whether the sender has a configured client
func (s *WhatsAppSender) Enabled() bool {
	return s.client != nil
}

// Send delivers text to a WhatsApp number, chunked to the body limit
func (s *WhatsAppSender) Send(ctx context.Context, toNumber, text string) error {
	if s.client == nil {
		logger.Warnf(ctx, "twilio credentials not configured, dropping message to %s", toNumber)
		return nil
	}

	if !s.allow(ctx, toNumber) {
		logger.Warnf(ctx, "rate limit exceeded for %s, dropping message", toNumber)
		return nil
	}

	if !strings.HasPrefix(toNumber, "whatsapp:") {
		toNumber = "whatsapp:" + toNumber
	}
	from := "whatsapp:" + s.fromNumber

	for _, chunk := range Chunk(text, whatsAppMaxMessageLength) {
		params := &twilioapi.CreateMessageParams{}
		params.SetFrom(from)
		params.SetTo(toNumber)
		params.SetBody(chunk)

		msg, err := s.client.Api.CreateMessage(params)
		if err != nil {
			return fmt.Errorf("failed to send whatsapp message: %w", err)
		}
		if msg.Sid != nil {
			logger.Debugf(ctx, "sent whatsapp message %s", *msg.Sid)
		}
	}
	return nil
}

// SendEscalationAck tells the user a human agent will follow up
func (s *WhatsAppSender) SendEscalationAck(ctx context.Context, toNumber string) {
	if err := s.Send(ctx, toNumber, escalationAck); err != nil {
		logger.Errorf(ctx, "failed to send escalation ack to %s: %v", toNumber, err)
	}
}

// allow enforces a small per-number send budget per window. Cache failures
// fail open; rate limiting is best effort.
func (s *WhatsAppSender) allow(ctx context.Context, toNumber string) bool {
	key := "ratelimit:whatsapp:" + toNumber
	count, err := s.cache.Increment(ctx, key)
	if err != nil {
		return true
	}
	if count == 1 {
		_ = s.cache.Expire(ctx, key, rateLimitWindow)
	}
	return count <= rateLimitPerMinute
}
