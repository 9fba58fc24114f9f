package crm

import (
	"time"

	"github.com/relaydesk/relaydesk/internal/types"
)

const (
	recentCaseWindow  = 30 * 24 * time.Hour
	recentOrderWindow = 90 * 24 * time.Hour

	// premiumOrderCount is the order count above which a customer is
	// considered Premium
	premiumOrderCount = 5
)

// buildSummary aggregates a contact's CRM footprint at a point in time
func buildSummary(contact *types.Contact, cases []types.Case, orders []types.Order, now time.Time) *types.CustomerSummary {
	summary := &types.CustomerSummary{
		Contact:     contact,
		Orders:      orders,
		TotalOrders: len(orders),
	}

	for _, c := range cases {
		if c.Status != "Closed" && c.Status != "Resolved" {
			summary.OpenCases++
		}
		if c.CreatedDate != nil && now.Sub(*c.CreatedDate) <= recentCaseWindow {
			summary.RecentCases++
		}
	}

	for _, o := range orders {
		if o.OrderDate == nil {
			continue
		}
		if now.Sub(*o.OrderDate) <= recentOrderWindow {
			summary.RecentOrders++
		}
		if summary.LastOrderDate == nil || o.OrderDate.After(*summary.LastOrderDate) {
			d := *o.OrderDate
			summary.LastOrderDate = &d
		}
	}

	if len(orders) > premiumOrderCount {
		summary.CustomerTier = "Premium"
	} else {
		summary.CustomerTier = "Standard"
	}
	return summary
}
