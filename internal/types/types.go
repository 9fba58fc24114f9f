package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Channel identifies the communication channel a message arrived on
type Channel string

const (
	ChannelWeb      Channel = "web"
	ChannelSlack    Channel = "slack"
	ChannelWhatsApp Channel = "whatsapp"
)

// MessageType distinguishes the two sides of a stored exchange
type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeBot  MessageType = "bot"
)

// Intent is the enumerated purpose category assigned to a message
type Intent string

const (
	IntentOrderInquiry     Intent = "order_inquiry"
	IntentAccountInfo      Intent = "account_info"
	IntentProductInfo      Intent = "product_info"
	IntentBilling          Intent = "billing"
	IntentTechnicalSupport Intent = "technical_support"
	IntentGeneral          Intent = "general"
	IntentEscalate         Intent = "escalate"

	// IntentCached marks responses served from the frequent-query cache,
	// IntentError marks the degraded fallback response. Neither is a
	// classifier output.
	IntentCached Intent = "cached"
	IntentError  Intent = "error"
)

// JSONMap is a string-keyed map stored as a JSON column
type JSONMap map[string]interface{}

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Message is an incoming message, immutable once received
type Message struct {
	Text      string  `json:"message" binding:"required"`
	UserID    string  `json:"user_id" binding:"required"`
	SessionID string  `json:"session_id,omitempty"`
	Channel   Channel `json:"channel,omitempty"`
	Metadata  JSONMap `json:"metadata,omitempty"`
}

// Response is the pipeline's reply to a single message
type Response struct {
	Text               string  `json:"response"`
	Intent             Intent  `json:"intent"`
	Confidence         float64 `json:"confidence"`
	RequiresEscalation bool    `json:"requires_escalation"`
	SessionID          string  `json:"session_id"`
	LatencyMs          int64   `json:"response_time_ms"`
}

// AlternativeIntent is a secondary intent candidate with its confidence
type AlternativeIntent struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// IntentPrediction is the classifier output for one message.
// It is produced fresh per message and never persisted on its own.
type IntentPrediction struct {
	Intent       Intent              `json:"intent"`
	Confidence   float64             `json:"confidence"`
	Entities     map[string]string   `json:"entities"`
	Alternatives []AlternativeIntent `json:"alternative_intents"`
}

// HistoryEntry is one side of a stored exchange. Two entries are written
// per processed message, sharing a session ID and differing in MessageType.
type HistoryEntry struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string      `json:"user_id" gorm:"index:idx_history_user_time;type:varchar(128)"`
	SessionID   string      `json:"session_id" gorm:"index;type:varchar(128)"`
	Message     string      `json:"message"`
	Response    string      `json:"response"`
	MessageType MessageType `json:"message_type" gorm:"type:varchar(16)"`
	Intent      Intent      `json:"intent" gorm:"type:varchar(32)"`
	Confidence  float64     `json:"confidence"`
	Channel     Channel     `json:"channel" gorm:"type:varchar(16)"`
	Timestamp   time.Time   `json:"timestamp" gorm:"index:idx_history_user_time"`
	Metadata    JSONMap     `json:"metadata" gorm:"type:text"`
}

// TableName implements the gorm Tabler interface
func (HistoryEntry) TableName() string {
	return "history_entries"
}

// UserContext is per-user state carried across messages. It is lazily
// created on a user's first message and updated after every exchange;
// this service never deletes it.
type UserContext struct {
	UserID            string    `json:"user_id" gorm:"primaryKey;type:varchar(128)"`
	CustomerID        string    `json:"customer_id,omitempty"`
	CurrentSession    string    `json:"current_session,omitempty"`
	ConversationState JSONMap   `json:"conversation_state" gorm:"type:text"`
	Preferences       JSONMap   `json:"preferences" gorm:"type:text"`
	LastInteraction   time.Time `json:"last_interaction"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName implements the gorm Tabler interface
func (UserContext) TableName() string {
	return "user_contexts"
}

// NewUserContext creates a fresh context for a user's first message
func NewUserContext(userID string) *UserContext {
	now := time.Now().UTC()
	return &UserContext{
		UserID:            userID,
		ConversationState: JSONMap{},
		Preferences:       JSONMap{},
		LastInteraction:   now,
		UpdatedAt:         now,
	}
}
