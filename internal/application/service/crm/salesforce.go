// Package crm resolves customer data from Salesforce. The gateway is
// read-mostly and cached with short TTLs; an unresolved contact or an
// unreachable CRM yields an empty summary so the pipeline can prompt for
// an email instead of failing the message.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/simpleforce/simpleforce"
	"golang.org/x/sync/errgroup"

	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/logger"
	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

const (
	contactTTL = 10 * time.Minute
	recordTTL  = 5 * time.Minute
)

// SalesforceGateway implements CRMGateway over the Salesforce REST API
type SalesforceGateway struct {
	cfg   config.SalesforceConfig
	cache interfaces.Cache

	mu        sync.Mutex
	client    *simpleforce.Client
	connected bool
}

// NewSalesforce creates a gateway. The connection is established lazily on
// first use; missing credentials leave the gateway permanently
// disconnected and every summary empty.
func NewSalesforce(cfg config.SalesforceConfig, cache interfaces.Cache) interfaces.CRMGateway {
	return &SalesforceGateway{cfg: cfg, cache: cache}
}

func (g *SalesforceGateway) connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.connected {
		return nil
	}
	if !g.cfg.Configured() {
		return fmt.Errorf("%w: salesforce credentials not configured", types.ErrGatewayUnavailable)
	}

	client := simpleforce.NewClient(g.cfg.URL, simpleforce.DefaultClientID, simpleforce.DefaultAPIVersion)
	if client == nil {
		return fmt.Errorf("%w: failed to create salesforce client", types.ErrGatewayUnavailable)
	}
	if err := client.LoginPassword(g.cfg.Username, g.cfg.Password, g.cfg.SecurityToken); err != nil {
		return fmt.Errorf("%w: login failed: %v", types.ErrGatewayUnavailable, err)
	}

	g.client = client
	g.connected = true
	logger.Info(ctx, "connected to salesforce at %s", g.cfg.URL)
	return nil
}

// SummaryFor resolves a contact by email and aggregates their recent
// cases and orders. Cases and orders are fetched concurrently; there is no
// ordering dependency between them.
func (g *SalesforceGateway) SummaryFor(ctx context.Context, email string) (*types.CustomerSummary, error) {
	contact, err := g.contactByEmail(ctx, email)
	if err != nil {
		logger.Warnf(ctx, "crm contact lookup failed for %s: %v", email, err)
		return &types.CustomerSummary{}, nil
	}
	if contact == nil {
		return &types.CustomerSummary{}, nil
	}

	var (
		cases  []types.Case
		orders []types.Order
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		cases, err = g.contactCases(egCtx, contact.ID)
		return err
	})
	eg.Go(func() error {
		var err error
		orders, err = g.contactOrders(egCtx, contact.ID)
		return err
	})
	if err := eg.Wait(); err != nil {
		logger.Warnf(ctx, "crm record fetch failed for contact %s: %v", contact.ID, err)
		return &types.CustomerSummary{Contact: contact}, nil
	}

	return buildSummary(contact, cases, orders, time.Now()), nil
}

func (g *SalesforceGateway) contactByEmail(ctx context.Context, email string) (*types.Contact, error) {
	cacheKey := "crm:contact_email:" + email
	var cached types.Contact
	if ok := g.cachedJSON(ctx, cacheKey, &cached); ok {
		return &cached, nil
	}

	if err := g.connect(ctx); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT Id, Name, Email, Phone, AccountId, LastActivityDate
		FROM Contact WHERE Email = '%s' LIMIT 1`, escapeSOQL(email))
	result, err := g.client.Query(q)
	if err != nil {
		return nil, fmt.Errorf("contact query failed: %w", err)
	}
	if result.TotalSize == 0 || len(result.Records) == 0 {
		return nil, nil
	}

	rec := result.Records[0]
	contact := &types.Contact{
		ID:               rec.ID(),
		Name:             rec.StringField("Name"),
		Email:            rec.StringField("Email"),
		Phone:            rec.StringField("Phone"),
		AccountID:        rec.StringField("AccountId"),
		LastActivityDate: parseDate(rec.StringField("LastActivityDate")),
	}

	g.storeJSON(ctx, cacheKey, contact, contactTTL)
	return contact, nil
}

func (g *SalesforceGateway) contactCases(ctx context.Context, contactID string) ([]types.Case, error) {
	cacheKey := "crm:contact_cases:" + contactID
	var cached []types.Case
	if ok := g.cachedJSON(ctx, cacheKey, &cached); ok {
		return cached, nil
	}

	if err := g.connect(ctx); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT Id, CaseNumber, Subject, Description, Status, Priority,
		ContactId, AccountId, CreatedDate, LastModifiedDate
		FROM Case WHERE ContactId = '%s' ORDER BY CreatedDate DESC LIMIT 10`, escapeSOQL(contactID))
	result, err := g.client.Query(q)
	if err != nil {
		return nil, fmt.Errorf("case query failed: %w", err)
	}

	cases := make([]types.Case, 0, len(result.Records))
	for _, rec := range result.Records {
		cases = append(cases, types.Case{
			ID:               rec.ID(),
			CaseNumber:       rec.StringField("CaseNumber"),
			Subject:          rec.StringField("Subject"),
			Description:      rec.StringField("Description"),
			Status:           rec.StringField("Status"),
			Priority:         rec.StringField("Priority"),
			ContactID:        rec.StringField("ContactId"),
			AccountID:        rec.StringField("AccountId"),
			CreatedDate:      parseDate(rec.StringField("CreatedDate")),
			LastModifiedDate: parseDate(rec.StringField("LastModifiedDate")),
		})
	}

	g.storeJSON(ctx, cacheKey, cases, recordTTL)
	return cases, nil
}

func (g *SalesforceGateway) contactOrders(ctx context.Context, contactID string) ([]types.Order, error) {
	cacheKey := "crm:contact_orders:" + contactID
	var cached []types.Order
	if ok := g.cachedJSON(ctx, cacheKey, &cached); ok {
		return cached, nil
	}

	if err := g.connect(ctx); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT Id, OrderNumber, AccountId, BillToContactId, Status,
		TotalAmount, EffectiveDate
		FROM Order WHERE BillToContactId = '%s' ORDER BY EffectiveDate DESC LIMIT 10`, escapeSOQL(contactID))
	result, err := g.client.Query(q)
	if err != nil {
		return nil, fmt.Errorf("order query failed: %w", err)
	}

	orders := make([]types.Order, 0, len(result.Records))
	for _, rec := range result.Records {
		orders = append(orders, types.Order{
			ID:          rec.ID(),
			OrderNumber: rec.StringField("OrderNumber"),
			AccountID:   rec.StringField("AccountId"),
			ContactID:   rec.StringField("BillToContactId"),
			Status:      rec.StringField("Status"),
			TotalAmount: floatField(rec, "TotalAmount"),
			OrderDate:   parseDate(rec.StringField("EffectiveDate")),
		})
	}

	g.storeJSON(ctx, cacheKey, orders, recordTTL)
	return orders, nil
}

// CreateCase opens a support case for a contact and invalidates the
// contact's cached case list
func (g *SalesforceGateway) CreateCase(ctx context.Context, contactID, subject, description, priority string) (string, error) {
	if err := g.connect(ctx); err != nil {
		return "", err
	}
	if priority == "" {
		priority = "Medium"
	}

	created := g.client.SObject("Case").
		Set("ContactId", contactID).
		Set("Subject", subject).
		Set("Description", description).
		Set("Priority", priority).
		Set("Status", "New").
		Set("Origin", "Chatbot").
		Create()
	if created == nil {
		return "", fmt.Errorf("%w: case creation failed", types.ErrGatewayUnavailable)
	}

	caseID := created.ID()
	logger.Info(ctx, "created crm case %s for contact %s", caseID, contactID)
	_ = g.cache.Delete(ctx, "crm:contact_cases:"+contactID)
	return caseID, nil
}

func (g *SalesforceGateway) cachedJSON(ctx context.Context, key string, out interface{}) bool {
	raw, err := g.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

func (g *SalesforceGateway) storeJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, string(raw), ttl); err != nil {
		logger.Warnf(ctx, "failed to cache %s: %v", key, err)
	}
}

func escapeSOQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func floatField(rec simpleforce.SObject, key string) float64 {
	switch v := rec[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

var dateLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339,
	"2006-01-02",
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
