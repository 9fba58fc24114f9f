package types

import "time"

// Contact is a CRM contact resolved by email
type Contact struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	AccountID        string     `json:"account_id,omitempty"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
}

// Case is a CRM support case
type Case struct {
	ID               string     `json:"id"`
	CaseNumber       string     `json:"case_number"`
	Subject          string     `json:"subject"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	ContactID        string     `json:"contact_id,omitempty"`
	AccountID        string     `json:"account_id,omitempty"`
	CreatedDate      *time.Time `json:"created_date,omitempty"`
	LastModifiedDate *time.Time `json:"last_modified_date,omitempty"`
}

// Order is a CRM order record
type Order struct {
	ID          string     `json:"id"`
	OrderNumber string     `json:"order_number"`
	AccountID   string     `json:"account_id,omitempty"`
	ContactID   string     `json:"contact_id,omitempty"`
	Status      string     `json:"status"`
	TotalAmount float64    `json:"total_amount,omitempty"`
	OrderDate   *time.Time `json:"order_date,omitempty"`
}

// CustomerSummary aggregates a contact's CRM footprint. An unresolved
// contact yields a zero summary rather than an error, so the pipeline can
// prompt for an email instead of failing.
type CustomerSummary struct {
	Contact       *Contact   `json:"contact,omitempty"`
	Orders        []Order    `json:"orders,omitempty"`
	OpenCases     int        `json:"open_cases"`
	RecentCases   int        `json:"recent_cases"`
	RecentOrders  int        `json:"recent_orders"`
	TotalOrders   int        `json:"total_orders"`
	LastOrderDate *time.Time `json:"last_order_date,omitempty"`
	CustomerTier  string     `json:"customer_tier,omitempty"`
}

// Resolved reports whether the summary is backed by a known contact
func (s *CustomerSummary) Resolved() bool {
	return s != nil && s.Contact != nil
}
