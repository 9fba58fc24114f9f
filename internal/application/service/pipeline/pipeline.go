// Package pipeline orchestrates message processing: session resolution,
// context load, frequent-query short-circuit, classification, escalation,
// response generation, persistence and cache promotion. Failures in any
// stage degrade to a fixed apology response; no error or panic ever
// reaches the channel adapter.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk/internal/logger"
	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

const (
	userContextKeyPrefix   = "user_context:"
	frequentQueryKeyPrefix = "frequent_query:"
	queryCountKeyPrefix    = "query_count:"
)

const degradedText = "I apologize, but I'm experiencing technical difficulties. Please try again in a moment."

// personalIndicators mark a message as carrying user-specific data,
// making it ineligible for the frequent-query short-circuit
var personalIndicators = []string{
	"my order", "my account", "my profile", "my payment",
	"order number", "tracking number", "@", "email",
}

// Options tune the caching behavior of the pipeline
type Options struct {
	// FrequentThreshold is the occurrence count at which a response is
	// promoted to the frequent-query cache
	FrequentThreshold int64

	// FrequentTTL bounds how long a promoted response is served
	FrequentTTL time.Duration

	// CounterTTL bounds the lifetime of occurrence counters
	CounterTTL time.Duration

	// ContextTTL bounds the user-context cache entries
	ContextTTL time.Duration
}

// DefaultOptions match the documented cache behavior
func DefaultOptions() Options {
	return Options{
		FrequentThreshold: 3,
		FrequentTTL:       time.Hour,
		CounterTTL:        24 * time.Hour,
		ContextTTL:        30 * time.Minute,
	}
}

// Service is the message pipeline
type Service struct {
	classifier interfaces.IntentClassifier
	policy     interfaces.EscalationPolicy
	generator  interfaces.ResponseGenerator
	contexts   interfaces.ContextStore
	history    interfaces.HistoryStore
	cache      interfaces.Cache
	crm        interfaces.CRMGateway
	opts       Options
}

// New creates a pipeline with explicitly injected collaborators
func New(
	classifier interfaces.IntentClassifier,
	policy interfaces.EscalationPolicy,
	generator interfaces.ResponseGenerator,
	contexts interfaces.ContextStore,
	history interfaces.HistoryStore,
	cache interfaces.Cache,
	crm interfaces.CRMGateway,
	opts Options,
) interfaces.Pipeline {
	def := DefaultOptions()
	if opts.FrequentThreshold <= 0 {
		opts.FrequentThreshold = def.FrequentThreshold
	}
	if opts.FrequentTTL <= 0 {
		opts.FrequentTTL = def.FrequentTTL
	}
	if opts.CounterTTL <= 0 {
		opts.CounterTTL = def.CounterTTL
	}
	if opts.ContextTTL <= 0 {
		opts.ContextTTL = def.ContextTTL
	}
	return &Service{
		classifier: classifier,
		policy:     policy,
		generator:  generator,
		contexts:   contexts,
		history:    history,
		cache:      cache,
		crm:        crm,
		opts:       opts,
	}
}

// Process handles one message end to end and always returns a response
func (s *Service) Process(ctx context.Context, msg *types.Message) (resp *types.Response) {
	start := time.Now()

	// Session ID is resolved first so every later stage, including the
	// degraded path, shares it
	sessionID := msg.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "panic while processing message for user %s: %v", msg.UserID, r)
			resp = s.degraded(sessionID, start)
		}
	}()

	uc := s.loadContext(ctx, msg.UserID)
	uc.CurrentSession = sessionID
	uc.LastInteraction = time.Now().UTC()

	// Frequent-query short-circuit: a deliberate optimization that skips
	// classification entirely for repeated non-personalized messages
	hash := s.classifier.MessageHash(msg.Text)
	if !isPersonalized(msg.Text) {
		if cachedText, err := s.cache.Get(ctx, frequentQueryKeyPrefix+hash); err == nil {
			if _, err := s.cache.Increment(ctx, queryCountKeyPrefix+hash); err != nil {
				logger.Warnf(ctx, "failed to increment query counter: %v", err)
			}
			resp = &types.Response{
				Text:               cachedText,
				Intent:             types.IntentCached,
				Confidence:         1.0,
				RequiresEscalation: false,
				SessionID:          sessionID,
				LatencyMs:          time.Since(start).Milliseconds(),
			}
			s.storeHistory(ctx, msg, resp)
			return resp
		}
	}

	prediction := s.classifier.Classify(msg.Text)

	// The policy sees the raw text; it can escalate independently of the
	// classified intent
	escalate := s.policy.NeedsEscalation(msg.Text, prediction.Confidence)

	var text string
	if escalate {
		text = s.generator.EscalationPhrase()
		s.openEscalationCase(ctx, msg, prediction)
	} else {
		summary := s.resolveSummary(ctx, prediction.Entities)
		text = s.generator.Generate(prediction.Intent, msg.Text, prediction.Entities, summary)
	}

	resp = &types.Response{
		Text:               text,
		Intent:             prediction.Intent,
		Confidence:         prediction.Confidence,
		RequiresEscalation: escalate,
		SessionID:          sessionID,
		LatencyMs:          time.Since(start).Milliseconds(),
	}

	s.storeHistory(ctx, msg, resp)
	s.saveContext(ctx, uc)
	s.promoteIfFrequent(ctx, hash, text)

	return resp
}

// History returns a user's past exchanges in chronological order
func (s *Service) History(ctx context.Context, userID, sessionID string, limit int) ([]*types.HistoryEntry, error) {
	entries, err := s.history.Query(ctx, userID, sessionID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*types.HistoryEntry{}
	}
	return entries, nil
}

// loadContext reads the user context cache-first, then the store, and
// finally constructs a fresh context. Store failures degrade to an
// in-memory context for this message.
func (s *Service) loadContext(ctx context.Context, userID string) *types.UserContext {
	if raw, err := s.cache.Get(ctx, userContextKeyPrefix+userID); err == nil {
		var uc types.UserContext
		if err := json.Unmarshal([]byte(raw), &uc); err == nil {
			return &uc
		}
	}

	uc, err := s.contexts.Get(ctx, userID)
	if err == nil {
		return uc
	}
	if !errors.Is(err, types.ErrNotFound) {
		logger.Errorf(ctx, "failed to load context for user %s, continuing in-memory: %v", userID, err)
	}
	return types.NewUserContext(userID)
}

// saveContext persists the updated context to the store and the cache
func (s *Service) saveContext(ctx context.Context, uc *types.UserContext) {
	uc.UpdatedAt = time.Now().UTC()

	if err := s.contexts.Put(ctx, uc); err != nil {
		logger.Errorf(ctx, "failed to save context for user %s: %v", uc.UserID, err)
	}

	raw, err := json.Marshal(uc)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, userContextKeyPrefix+uc.UserID, string(raw), s.opts.ContextTTL); err != nil {
		logger.Warnf(ctx, "failed to cache context for user %s: %v", uc.UserID, err)
	}
}

// resolveSummary fetches CRM data when the message carries an email
// entity. A gateway failure leaves the summary absent.
func (s *Service) resolveSummary(ctx context.Context, entities map[string]string) *types.CustomerSummary {
	email, ok := entities["email"]
	if !ok || s.crm == nil {
		return nil
	}

	summary, err := s.crm.SummaryFor(ctx, email)
	if err != nil {
		logger.Warnf(ctx, "crm summary unavailable for %s: %v", email, err)
		return nil
	}
	return summary
}

// openEscalationCase records an escalated exchange as a CRM case when the
// message identifies the customer by email. Best effort; the user already
// has the handoff phrase either way.
func (s *Service) openEscalationCase(ctx context.Context, msg *types.Message, prediction *types.IntentPrediction) {
	summary := s.resolveSummary(ctx, prediction.Entities)
	if !summary.Resolved() {
		return
	}

	subject := "Escalated chat conversation (" + string(prediction.Intent) + ")"
	caseID, err := s.crm.CreateCase(ctx, summary.Contact.ID, subject, msg.Text, "High")
	if err != nil {
		logger.Warnf(ctx, "failed to open escalation case for user %s: %v", msg.UserID, err)
		return
	}
	logger.Info(ctx, "opened escalation case %s for user %s", caseID, msg.UserID)
}

// storeHistory writes the user-side and bot-side entries of one exchange
func (s *Service) storeHistory(ctx context.Context, msg *types.Message, resp *types.Response) {
	now := time.Now().UTC()
	metadata := msg.Metadata
	if metadata == nil {
		metadata = types.JSONMap{}
	}

	entries := []*types.HistoryEntry{
		{
			ID:          uuid.New().String(),
			UserID:      msg.UserID,
			SessionID:   resp.SessionID,
			Message:     msg.Text,
			MessageType: types.MessageTypeUser,
			Intent:      resp.Intent,
			Confidence:  resp.Confidence,
			Channel:     msg.Channel,
			Timestamp:   now,
			Metadata:    metadata,
		},
		{
			ID:          uuid.New().String(),
			UserID:      msg.UserID,
			SessionID:   resp.SessionID,
			Response:    resp.Text,
			MessageType: types.MessageTypeBot,
			Intent:      resp.Intent,
			Confidence:  resp.Confidence,
			Channel:     msg.Channel,
			Timestamp:   now.Add(time.Millisecond),
			Metadata:    types.JSONMap{"response_time_ms": resp.LatencyMs},
		},
	}

	if err := s.history.Append(ctx, entries); err != nil {
		logger.Errorf(ctx, "failed to store history for user %s: %v", msg.UserID, err)
	}
}

// promoteIfFrequent counts this message hash and, at the threshold,
// promotes the response text so future identical normalized messages hit
// the fast path
func (s *Service) promoteIfFrequent(ctx context.Context, hash, text string) {
	counterKey := queryCountKeyPrefix + hash
	count, err := s.cache.Increment(ctx, counterKey)
	if err != nil {
		logger.Warnf(ctx, "failed to increment query counter: %v", err)
		return
	}
	if count == 1 {
		if err := s.cache.Expire(ctx, counterKey, s.opts.CounterTTL); err != nil {
			logger.Warnf(ctx, "failed to expire query counter: %v", err)
		}
	}
	if count >= s.opts.FrequentThreshold {
		if err := s.cache.Set(ctx, frequentQueryKeyPrefix+hash, text, s.opts.FrequentTTL); err != nil {
			logger.Warnf(ctx, "failed to promote frequent query: %v", err)
			return
		}
		logger.Info(ctx, "promoted frequent query %s to cache", hash)
	}
}

func (s *Service) degraded(sessionID string, start time.Time) *types.Response {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	return &types.Response{
		Text:               degradedText,
		Intent:             types.IntentError,
		Confidence:         0.0,
		RequiresEscalation: true,
		SessionID:          sessionID,
		LatencyMs:          time.Since(start).Milliseconds(),
	}
}

func isPersonalized(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range personalIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
