package nlp

import (
	"strings"

	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

// escalationKeywords trigger a human handoff regardless of the classified
// intent or confidence
var escalationKeywords = []string{
	"angry", "frustrated", "complaint", "manager", "supervisor",
	"legal", "lawsuit", "terrible", "awful", "worst",
}

// EscalationPolicy escalates on low confidence or hot-button keywords.
// It runs independently of the classifier's own escalate intent; both
// feed the same boolean on the response.
type EscalationPolicy struct {
	threshold float64
}

// NewEscalationPolicy creates a policy with the given confidence threshold
func NewEscalationPolicy(threshold float64) interfaces.EscalationPolicy {
	return &EscalationPolicy{threshold: threshold}
}

// NeedsEscalation evaluates the raw message text and classifier confidence
func (p *EscalationPolicy) NeedsEscalation(text string, confidence float64) bool {
	if confidence < p.threshold {
		return true
	}

	lower := strings.ToLower(text)
	for _, kw := range escalationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
