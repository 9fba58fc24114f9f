package interfaces

import (
	"context"
	"time"

	"github.com/relaydesk/relaydesk/internal/types"
)

// ContextStore persists per-user conversation state
type ContextStore interface {
	// Get returns the stored context for a user, or types.ErrNotFound
	Get(ctx context.Context, userID string) (*types.UserContext, error)

	// Put upserts the context for its user
	Put(ctx context.Context, uc *types.UserContext) error
}

// HistoryStore is the append-only log of message/response pairs
type HistoryStore interface {
	// Append writes entries in one batch
	Append(ctx context.Context, entries []*types.HistoryEntry) error

	// Query returns up to limit entries for a user, optionally narrowed to
	// one session, in chronological order
	Query(ctx context.Context, userID, sessionID string, limit int) ([]*types.HistoryEntry, error)
}

// Cache is a TTL key-value store with counters. Implementations must
// tolerate an unreachable backend; callers treat any error as a miss.
type Cache interface {
	// Get returns the value for key, or types.ErrCacheMiss
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key for ttl (0 means no expiry)
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Increment adds 1 to the counter at key and returns the new value
	Increment(ctx context.Context, key string) (int64, error)

	// Expire sets the TTL of an existing key
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Delete removes key
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present
	Exists(ctx context.Context, key string) (bool, error)
}

// CRMGateway resolves customer data from the CRM system. An unresolved
// contact yields an empty summary, never an error that fails the pipeline.
type CRMGateway interface {
	// SummaryFor resolves a contact by email and aggregates their recent
	// cases and orders
	SummaryFor(ctx context.Context, email string) (*types.CustomerSummary, error)

	// CreateCase opens a support case for a contact and returns its ID
	CreateCase(ctx context.Context, contactID, subject, description, priority string) (string, error)
}

// IntentClassifier maps a message to an intent prediction. Classification
// never fails: unmatchable input falls back to the general intent.
type IntentClassifier interface {
	// Classify predicts the intent, confidence and entities for a message
	Classify(text string) *types.IntentPrediction

	// MessageHash returns a stable hash of the normalized message, used as
	// the frequent-query cache key
	MessageHash(text string) string
}

// EscalationPolicy decides whether a message needs a human handoff
type EscalationPolicy interface {
	// NeedsEscalation evaluates the raw message text and the classifier's
	// confidence
	NeedsEscalation(text string, confidence float64) bool
}

// ResponseGenerator composes reply text. Pure given its inputs except for
// the random escalation-phrase choice.
type ResponseGenerator interface {
	// Generate dispatches on intent to build the reply text
	Generate(intent types.Intent, message string, entities map[string]string, summary *types.CustomerSummary) string

	// EscalationPhrase picks one of the fixed human-handoff phrases
	EscalationPhrase() string
}

// Pipeline orchestrates message processing end to end
type Pipeline interface {
	// Process handles one message and always returns a response; failures
	// degrade to an apology response rather than an error
	Process(ctx context.Context, msg *types.Message) *types.Response

	// History returns a user's past exchanges in chronological order
	History(ctx context.Context, userID, sessionID string, limit int) ([]*types.HistoryEntry, error)
}
