// Package responder composes reply text from intent, entities and CRM
// data. Generation is a pure dispatch on intent; the only nondeterminism
// is the escalation-phrase choice, fed by an injected rand source. All
// store and CRM lookups happen in the pipeline, never here.
package responder

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

var escalationPhrases = []string{
	"I understand your frustration. Let me connect you with one of our human agents who can provide more personalized assistance.",
	"This seems like a complex issue. I'm transferring you to a human agent who can help you better.",
	"I want to make sure you get the best possible help. Let me escalate this to our support team.",
}

var greetingWords = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}

var thanksWords = []string{"thank", "thanks", "appreciate"}

// Generator dispatches on intent to build replies
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a generator. Pass a seeded rand source for
// deterministic escalation phrases in tests.
func NewGenerator(rnd *rand.Rand) interfaces.ResponseGenerator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Generator{rnd: rnd}
}

// EscalationPhrase picks one of the fixed human-handoff phrases
func (g *Generator) EscalationPhrase() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return escalationPhrases[g.rnd.Intn(len(escalationPhrases))]
}

// Generate builds the reply text for an intent. summary may be nil when no
// CRM contact was resolved.
func (g *Generator) Generate(intent types.Intent, message string, entities map[string]string, summary *types.CustomerSummary) string {
	switch intent {
	case types.IntentOrderInquiry:
		return g.orderInquiry(entities, summary)
	case types.IntentAccountInfo:
		return g.accountInfo(summary)
	case types.IntentProductInfo:
		return g.productInfo(entities)
	case types.IntentBilling:
		return g.billing(summary)
	case types.IntentTechnicalSupport:
		return g.technicalSupport(entities)
	case types.IntentEscalate:
		return g.EscalationPhrase()
	default:
		return g.general(message)
	}
}

func (g *Generator) orderInquiry(entities map[string]string, summary *types.CustomerSummary) string {
	orderNumber, hasOrder := entities["order_number"]

	if hasOrder {
		if summary.Resolved() {
			for _, order := range summary.Orders {
				if !strings.Contains(order.OrderNumber, orderNumber) {
					continue
				}
				return fmt.Sprintf(
					"I found your order #%s. The current status is '%s'. Order date: %s. "+
						"Is there anything specific you'd like to know about this order?",
					order.OrderNumber, order.Status, formatDate(order.OrderDate))
			}
			return fmt.Sprintf(
				"I couldn't find order #%s in our system. Please double-check the order number "+
					"or provide your email address so I can help you better.", orderNumber)
		}
		return fmt.Sprintf(
			"To help you track order #%s, I'll need your email address. "+
				"Could you please provide the email address associated with your account?", orderNumber)
	}

	if summary.Resolved() && summary.RecentOrders > 0 {
		return fmt.Sprintf(
			"I can help you with order information. You have %d recent orders. "+
				"Could you provide the specific order number you're asking about?", summary.RecentOrders)
	}
	return "I can help you track your orders. Could you please provide your order number and " +
		"the email address associated with your account?"
}

func (g *Generator) accountInfo(summary *types.CustomerSummary) string {
	if !summary.Resolved() {
		return "To access your account information, I'll need to verify your identity. " +
			"Could you please provide the email address associated with your account?"
	}

	contact := summary.Contact
	return fmt.Sprintf("Here's your account information:\n"+
		"Name: %s\n"+
		"Email: %s\n"+
		"Phone: %s\n"+
		"Customer Tier: %s\n"+
		"Total Orders: %d\n\n"+
		"Is there something specific you'd like to update?",
		contact.Name, orDefault(contact.Email, "N/A"), orDefault(contact.Phone, "N/A"),
		orDefault(summary.CustomerTier, "Standard"), summary.TotalOrders)
}

func (g *Generator) productInfo(entities map[string]string) string {
	product, ok := entities["product"]
	if !ok {
		return "I can help you find product information. What product are you interested in learning about?"
	}

	name := title(product)
	return fmt.Sprintf("I can help you with information about %s. Here are some common questions:\n\n"+
		"• Product specifications and features\n"+
		"• Pricing and availability\n"+
		"• Compatibility and requirements\n"+
		"• Warranty information\n\n"+
		"What specific information would you like to know about %s?", name, name)
}

func (g *Generator) billing(summary *types.CustomerSummary) string {
	if !summary.Resolved() {
		return "I can help you with billing questions. To access your billing information, " +
			"I'll need to verify your account. Could you provide your email address?"
	}

	return fmt.Sprintf("I can help you with billing questions. Based on your account, I can see you have "+
		"%d orders on record.\n\n"+
		"For detailed billing information and payment history, I can:\n"+
		"• Help you understand charges on your recent orders\n"+
		"• Provide information about payment methods\n"+
		"• Assist with refund requests\n\n"+
		"What specific billing question can I help you with?", summary.TotalOrders)
}

func (g *Generator) technicalSupport(entities map[string]string) string {
	if product, ok := entities["product"]; ok {
		name := title(product)
		return fmt.Sprintf("I can help troubleshoot issues with your %s. Here are some quick solutions:\n\n"+
			"• Try restarting the device\n"+
			"• Check for software updates\n"+
			"• Verify all connections are secure\n\n"+
			"Could you describe the specific issue you're experiencing with your %s?", name, name)
	}

	return "I'm here to help with technical issues. Could you please describe:\n\n" +
		"• What product or service you're having trouble with\n" +
		"• What specific problem you're experiencing\n" +
		"• Any error messages you're seeing\n\n" +
		"This will help me provide the best assistance."
}

func (g *Generator) general(message string) string {
	lower := strings.ToLower(message)

	if containsAny(lower, greetingWords) {
		return "Hello! I'm your AI customer support assistant. I can help you with:\n\n" +
			"• Order tracking and delivery information\n" +
			"• Account information and updates\n" +
			"• Product information and specifications\n" +
			"• Billing and payment questions\n" +
			"• Technical support\n\n" +
			"How can I assist you today?"
	}

	if containsAny(lower, thanksWords) {
		return "You're welcome! Is there anything else I can help you with today?"
	}

	return "I'm here to help! I can assist you with orders, account information, products, " +
		"billing, and technical support. Could you please let me know what you need help with?"
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format("January 2, 2006")
}
