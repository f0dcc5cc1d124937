package dto

// CreateSubscriptionRequest creates a subscription from manual entry.
type CreateSubscriptionRequest struct {
	Name          string   `json:"name" binding:"required,max=100"`
	Description   string   `json:"description,omitempty" binding:"omitempty,max=500"`
	Merchant      string   `json:"merchant" binding:"required,max=100"`
	Category      string   `json:"category,omitempty" binding:"omitempty,max=50"`
	Amount        *float64 `json:"amount" binding:"required"`
	Currency      string   `json:"currency,omitempty"`
	BillingCycle  string   `json:"billing_cycle,omitempty"`
	NextBilling   string   `json:"next_billing" binding:"required"` // RFC3339
	Status        string   `json:"status,omitempty"`
	TrialEndDate  string   `json:"trial_end_date,omitempty"`
	IsTrial       bool     `json:"is_trial,omitempty"`
	AutoRenew     *bool    `json:"auto_renew,omitempty"`
	PaymentMethod string   `json:"payment_method,omitempty"`
	Tags          []string `json:"tags,omitempty" binding:"omitempty,max=10,dive,max=30"`
	Notes         string   `json:"notes,omitempty" binding:"omitempty,max=1000"`
}

// UpdateSubscriptionRequest patches mutable billing attributes.
type UpdateSubscriptionRequest struct {
	Name          *string  `json:"name,omitempty" binding:"omitempty,max=100"`
	Description   *string  `json:"description,omitempty" binding:"omitempty,max=500"`
	Merchant      *string  `json:"merchant,omitempty" binding:"omitempty,max=100"`
	Category      *string  `json:"category,omitempty" binding:"omitempty,max=50"`
	Amount        *float64 `json:"amount,omitempty"`
	Currency      *string  `json:"currency,omitempty"`
	BillingCycle  *string  `json:"billing_cycle,omitempty"`
	NextBilling   *string  `json:"next_billing,omitempty"`
	AutoRenew     *bool    `json:"auto_renew,omitempty"`
	PaymentMethod *string  `json:"payment_method,omitempty"`
	Tags          []string `json:"tags,omitempty" binding:"omitempty,max=10,dive,max=30"`
	Notes         *string  `json:"notes,omitempty" binding:"omitempty,max=1000"`
}

// SubscriptionDetail is the full outward view of a subscription.
type SubscriptionDetail struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Merchant         string   `json:"merchant"`
	Category         string   `json:"category"`
	Amount           float64  `json:"amount"`
	Currency         string   `json:"currency"`
	BillingCycle     string   `json:"billing_cycle"`
	NextBilling      string   `json:"next_billing"`
	LastBilling      string   `json:"last_billing,omitempty"`
	DaysUntilBilling int      `json:"days_until_billing"`
	Status           string   `json:"status"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date,omitempty"`
	TrialEndDate     string   `json:"trial_end_date,omitempty"`
	IsTrial          bool     `json:"is_trial"`
	AutoRenew        bool     `json:"auto_renew"`
	PaymentMethod    string   `json:"payment_method"`
	Tags             []string `json:"tags,omitempty"`
	LastUsed         string   `json:"last_used,omitempty"`
	UsageCount       int      `json:"usage_count"`
	UsagePattern     string   `json:"usage_pattern"`
	YearlyCost       float64  `json:"yearly_cost"`
	Notes            string   `json:"notes,omitempty"`
	Source           string   `json:"source"`
	Confidence       float64  `json:"confidence"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

// SubscriptionSummaryResponse backs the stats/summary endpoint.
type SubscriptionSummaryResponse struct {
	Spending            SpendingSummary `json:"spending"`
	Counts              StatusCounts    `json:"counts"`
	UpcomingRenewals    int             `json:"upcoming_renewals"`
	UnusedSubscriptions int             `json:"unused_subscriptions"`
}

// SpendingSummary aggregates active subscriptions. MonthlyTotal sums raw
// amounts across mixed billing cycles (an approximation kept for forecast
// compatibility); YearlyTotal is the true projected annual cost.
type SpendingSummary struct {
	Count        int     `json:"count"`
	MonthlyTotal float64 `json:"monthly_total"`
	YearlyTotal  float64 `json:"yearly_total"`
	Average      float64 `json:"average"`
}

// StatusCounts breaks subscriptions down by lifecycle status.
type StatusCounts struct {
	Active    int64 `json:"active"`
	Paused    int64 `json:"paused"`
	Cancelled int64 `json:"cancelled"`
	Total     int64 `json:"total"`
}

// CSVImportResponse reports a CSV upload outcome.
type CSVImportResponse struct {
	Imported     int      `json:"imported"`
	Failed       int      `json:"failed"`
	ErrorDetails []string `json:"error_details,omitempty"`
	ArchiveURL   string   `json:"archive_url,omitempty"`
}
