// Package nlp implements the rule-based intent classifier and the
// escalation policy. Intent detection is deliberately keyword scoring, not
// a trained model; it hides behind interfaces.IntentClassifier so a model
// can replace it without touching the pipeline.
package nlp

import (
	"crypto/md5"
	"encoding/hex"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

// fallbackConfidence keeps unmatched messages above the escalation
// threshold so that general inquiries are not auto-escalated
const fallbackConfidence = 0.6

const maxAlternatives = 3

var intentKeywords = map[types.Intent][]string{
	types.IntentOrderInquiry: {
		"order", "delivery", "shipping", "track", "status", "when will",
		"where is my", "shipped", "delivered", "package",
	},
	types.IntentAccountInfo: {
		"account", "profile", "login", "password", "username", "email",
		"update", "change", "personal information",
	},
	types.IntentProductInfo: {
		"product", "item", "specification", "feature", "price", "cost",
		"available", "in stock", "details", "description",
	},
	types.IntentBilling: {
		"bill", "payment", "charge", "invoice", "refund", "money",
		"credit card", "subscription", "plan", "cost",
	},
	types.IntentTechnicalSupport: {
		"not working", "error", "bug", "issue", "problem", "broken",
		"help", "support", "technical", "fix", "troubleshoot",
	},
	types.IntentEscalate: {
		"manager", "supervisor", "human", "agent", "speak to", "talk to",
		"escalate", "complaint", "unsatisfied", "disappointed",
	},
}

// alternativeProbes map a single keyword to a secondary intent candidate
var alternativeProbes = []struct {
	keyword string
	intent  types.Intent
}{
	{"order", types.IntentOrderInquiry},
	{"account", types.IntentAccountInfo},
	{"product", types.IntentProductInfo},
	{"payment", types.IntentBilling},
	{"technical", types.IntentTechnicalSupport},
}

var productVocabulary = []string{"iphone", "laptop", "tablet", "headphones", "watch"}

var (
	whitespaceRE  = regexp.MustCompile(`\s+`)
	orderNumberRE = regexp.MustCompile(`(?i)(?:order\s*#?|order\s+number\s*)(\d+)`)
	emailRE       = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRE       = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
)

// Classifier scores messages against fixed keyword lists
type Classifier struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewClassifier creates a classifier. The rand source feeds only the
// synthetic confidence of alternative intents; pass a seeded source for
// deterministic tests.
func NewClassifier(rnd *rand.Rand) interfaces.IntentClassifier {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Classifier{rnd: rnd}
}

// Normalize lowercases, trims and collapses internal whitespace. The
// normalized form also feeds the cache-key hash, so inputs differing only
// in casing or whitespace share a cache entry.
func Normalize(text string) string {
	return whitespaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// MessageHash returns the hex md5 of the normalized message. The hash is a
// cache key only, never a security boundary.
func (c *Classifier) MessageHash(text string) string {
	sum := md5.Sum([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// Classify predicts intent, confidence, entities and alternatives for a
// message. It never fails: unmatched input falls back to the general
// intent with a fixed confidence.
func (c *Classifier) Classify(text string) *types.IntentPrediction {
	normalized := Normalize(text)

	intent, confidence := c.scoreIntents(normalized)

	return &types.IntentPrediction{
		Intent:       intent,
		Confidence:   confidence,
		Entities:     ExtractEntities(normalized),
		Alternatives: c.alternativeIntents(normalized, intent),
	}
}

// scoreIntents scores each intent as matched-keywords / list-size. The
// winner's score is scaled by 2 and clamped to 1.0; the scaling constant
// is a fixed heuristic, kept as-is.
func (c *Classifier) scoreIntents(normalized string) (types.Intent, float64) {
	var best types.Intent
	bestScore := 0.0

	// Sorted iteration keeps tie-breaking stable across runs
	intents := make([]types.Intent, 0, len(intentKeywords))
	for intent := range intentKeywords {
		intents = append(intents, intent)
	}
	sort.Slice(intents, func(i, j int) bool { return intents[i] < intents[j] })

	for _, intent := range intents {
		keywords := intentKeywords[intent]
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(normalized, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score := float64(hits) / float64(len(keywords))
		if score > bestScore {
			best = intent
			bestScore = score
		}
	}

	if bestScore == 0 {
		return types.IntentGeneral, fallbackConfidence
	}

	confidence := bestScore * 2
	if confidence > 1.0 {
		confidence = 1.0
	}
	return best, confidence
}

// alternativeIntents probes single keywords for secondary candidates,
// excluding the winner, capped at three. The synthetic confidence stays in
// [0.3, 0.7) because it is never the primary signal.
func (c *Classifier) alternativeIntents(normalized string, winner types.Intent) []types.AlternativeIntent {
	var alternatives []types.AlternativeIntent
	for _, probe := range alternativeProbes {
		if probe.intent == winner {
			continue
		}
		if !strings.Contains(normalized, probe.keyword) {
			continue
		}
		c.mu.Lock()
		confidence := 0.3 + c.rnd.Float64()*0.4
		c.mu.Unlock()
		alternatives = append(alternatives, types.AlternativeIntent{
			Intent:     probe.intent,
			Confidence: confidence,
		})
		if len(alternatives) == maxAlternatives {
			break
		}
	}
	return alternatives
}

// ExtractEntities pulls structured values out of a normalized message.
// Each extraction is independent; missing fields are simply absent.
func ExtractEntities(normalized string) map[string]string {
	entities := make(map[string]string)

	if m := orderNumberRE.FindStringSubmatch(normalized); m != nil {
		entities["order_number"] = m[1]
	}
	if m := emailRE.FindString(normalized); m != "" {
		entities["email"] = m
	}
	if m := phoneRE.FindString(normalized); m != "" {
		entities["phone"] = m
	}
	for _, product := range productVocabulary {
		if strings.Contains(normalized, product) {
			entities["product"] = product
			break
		}
	}

	return entities
}
