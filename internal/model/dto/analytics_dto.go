package dto

// MonthlySpend is one month of spending for trend and forecast charts.
type MonthlySpend struct {
	Month         string  `json:"month"` // YYYY-MM
	Spending      float64 `json:"spending"`
	Subscriptions int     `json:"subscriptions"`
}

// CategoryBreakdown aggregates active subscriptions per category.
type CategoryBreakdown struct {
	Category      string  `json:"category"`
	TotalSpending float64 `json:"total_spending"`
	Count         int     `json:"count"`
	AverageAmount float64 `json:"average_amount"`
}

// MerchantBreakdown aggregates active subscriptions per merchant.
type MerchantBreakdown struct {
	Merchant      string   `json:"merchant"`
	TotalSpending float64  `json:"total_spending"`
	Count         int      `json:"count"`
	AverageAmount float64  `json:"average_amount"`
	Categories    []string `json:"categories"`
}

// ForecastPoint is one projected month.
type ForecastPoint struct {
	Month             string  `json:"month"` // YYYY-MM
	PredictedSpending float64 `json:"predicted_spending"`
	PotentialSavings  float64 `json:"potential_savings"`
}

// ForecastResponse is the 6-month linear spending projection.
type ForecastResponse struct {
	Forecast        []ForecastPoint `json:"forecast"`
	CurrentSpending SpendingSummary `json:"current_spending"`
	AverageGrowth   float64         `json:"average_growth"`
	Direction       string          `json:"direction"` // increasing, decreasing, stable
}

// RecommendationSubscription identifies a subscription inside a recommendation.
type RecommendationSubscription struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category,omitempty"`
	LastUsed string  `json:"last_used,omitempty"`
}

// CategoryGroup is a duplicate-category cluster.
type CategoryGroup struct {
	Category      string                       `json:"category"`
	Count         int                          `json:"count"`
	Subscriptions []RecommendationSubscription `json:"subscriptions"`
}

// Recommendation is a derived, read-only savings opportunity.
type Recommendation struct {
	Type             string                       `json:"type"`
	Title            string                       `json:"title"`
	Description      string                       `json:"description"`
	Priority         string                       `json:"priority"`
	PotentialSavings float64                      `json:"potential_savings"`
	Subscriptions    []RecommendationSubscription `json:"subscriptions,omitempty"`
	Categories       []CategoryGroup              `json:"categories,omitempty"`
}

// RecommendationsResponse bundles all recommendation candidates.
type RecommendationsResponse struct {
	Recommendations       []Recommendation `json:"recommendations"`
	TotalPotentialSavings float64          `json:"total_potential_savings"`
}

// FraudMetrics summarizes fraud-alert triage accuracy.
type FraudMetrics struct {
	TotalAlerts       int64   `json:"total_alerts"`
	ConfirmedFraud    int64   `json:"confirmed_fraud"`
	FalsePositives    int64   `json:"false_positives"`
	Accuracy          float64 `json:"accuracy"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
}

// InsightsResponse is the dashboard rollup.
type InsightsResponse struct {
	Spending     SpendingSummary `json:"spending"`
	Alerts       AlertStats      `json:"alerts"`
	Optimization Optimization    `json:"optimization"`
}

// Optimization carries the savings-oriented counters of the insights rollup.
type Optimization struct {
	UnusedSubscriptions int64   `json:"unused_subscriptions"`
	UpcomingRenewals    int64   `json:"upcoming_renewals"`
	PotentialSavings    float64 `json:"potential_savings"`
}
