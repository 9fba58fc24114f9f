package nlp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/types"
)

func newTestClassifier() *Classifier {
	return NewClassifier(rand.New(rand.NewSource(1))).(*Classifier)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world", Normalize("  Hello   World  "))
	assert.Equal(t, "hello world", Normalize("hello\tworld"))
	assert.Equal(t, "", Normalize("   "))

	// Idempotence: a normalized string stays fixed
	once := Normalize("WHERE is My   ORDER?")
	assert.Equal(t, once, Normalize(once))
}

func TestMessageHashStableAcrossFormatting(t *testing.T) {
	c := newTestClassifier()

	assert.Equal(t, c.MessageHash("Hello   World"), c.MessageHash("hello world"))
	assert.Equal(t, c.MessageHash("  TRACK my ORDER  "), c.MessageHash("track my order"))
	assert.NotEqual(t, c.MessageHash("track my order"), c.MessageHash("cancel my order"))

	// 32 hex characters
	assert.Len(t, c.MessageHash("anything"), 32)
}

func TestClassifyIntents(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name string
		text string
		want types.Intent
	}{
		{"order inquiry", "Where is my order #12345?", types.IntentOrderInquiry},
		{"order tracking", "I want to track my package delivery status", types.IntentOrderInquiry},
		{"account info", "I need to update my account profile and password", types.IntentAccountInfo},
		{"billing", "I was charged twice, I need a refund on my credit card", types.IntentBilling},
		{"technical support", "The app is not working, I keep getting an error", types.IntentTechnicalSupport},
		{"escalate", "I want to speak to a manager or supervisor right now", types.IntentEscalate},
		{"general fallback", "what a lovely day", types.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prediction := c.Classify(tt.text)
			require.NotNil(t, prediction)
			assert.Equal(t, tt.want, prediction.Intent)
			assert.GreaterOrEqual(t, prediction.Confidence, 0.0)
			assert.LessOrEqual(t, prediction.Confidence, 1.0)
		})
	}
}

func TestClassifyFallbackConfidence(t *testing.T) {
	c := newTestClassifier()

	prediction := c.Classify("xyzzy")
	assert.Equal(t, types.IntentGeneral, prediction.Intent)
	assert.Equal(t, 0.6, prediction.Confidence)
}

func TestClassifyAlternatives(t *testing.T) {
	c := newTestClassifier()

	prediction := c.Classify("I have a payment problem with my order for a product")
	assert.LessOrEqual(t, len(prediction.Alternatives), 3)

	for _, alt := range prediction.Alternatives {
		assert.NotEqual(t, prediction.Intent, alt.Intent)
		assert.GreaterOrEqual(t, alt.Confidence, 0.3)
		assert.Less(t, alt.Confidence, 0.7)
	}
}

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{
			"order number with hash",
			"where is my order #12345?",
			map[string]string{"order_number": "12345"},
		},
		{
			"order number spelled out",
			"my order number 98765 is late",
			map[string]string{"order_number": "98765"},
		},
		{
			"email",
			"my email is john.doe@example.com",
			map[string]string{"email": "john.doe@example.com"},
		},
		{
			"phone",
			"call me at 555-123-4567",
			map[string]string{"phone": "555-123-4567"},
		},
		{
			"product",
			"my laptop will not boot",
			map[string]string{"product": "laptop"},
		},
		{
			"combined",
			"order #42 issue, reach me at jane@shop.io",
			map[string]string{"order_number": "42", "email": "jane@shop.io"},
		},
		{
			"nothing",
			"hello there",
			map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEntities(Normalize(tt.text)))
		})
	}
}
