package dto

// CreateAlertRequest creates an alert from detection or a manual report.
type CreateAlertRequest struct {
	SubscriptionID  *int64   `json:"subscription_id,omitempty"`
	Type            string   `json:"type" binding:"required"`
	Severity        string   `json:"severity,omitempty"`
	Title           string   `json:"title" binding:"required,max=200"`
	Description     string   `json:"description" binding:"required,max=1000"`
	Merchant        string   `json:"merchant,omitempty" binding:"omitempty,max=100"`
	Amount          *float64 `json:"amount,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	Date            string   `json:"date,omitempty"` // RFC3339, defaults to now
	TransactionDate string   `json:"transaction_date,omitempty"`
	Source          string   `json:"source,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	TransactionID   string   `json:"transaction_id,omitempty" binding:"omitempty,max=100"`
	Tags            []string `json:"tags,omitempty" binding:"omitempty,max=10,dive,max=30"`
}

// UpdateAlertRequest patches alert content fields, never workflow state.
type UpdateAlertRequest struct {
	Severity    *string  `json:"severity,omitempty"`
	Title       *string  `json:"title,omitempty" binding:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" binding:"omitempty,max=1000"`
	Merchant    *string  `json:"merchant,omitempty" binding:"omitempty,max=100"`
	Amount      *float64 `json:"amount,omitempty"`
	Tags        []string `json:"tags,omitempty" binding:"omitempty,max=10,dive,max=30"`
}

// ResolveAlertRequest finalizes an alert.
type ResolveAlertRequest struct {
	Resolution string `json:"resolution" binding:"required"`
	Notes      string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// AlertNotesRequest carries optional notes for ignore/investigate/annotate.
type AlertNotesRequest struct {
	Notes string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// AddActionRequest appends a manual audit entry.
type AddActionRequest struct {
	Action string `json:"action" binding:"required,max=50"`
	Notes  string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// AlertActionItem is one audit trail entry.
type AlertActionItem struct {
	Action      string `json:"action"`
	PerformedBy int64  `json:"performed_by"`
	PerformedAt string `json:"performed_at"`
	Notes       string `json:"notes,omitempty"`
}

// AlertDetail is the full outward view of an alert.
type AlertDetail struct {
	ID                   int64             `json:"id"`
	SubscriptionID       *int64            `json:"subscription_id,omitempty"`
	Type                 string            `json:"type"`
	Severity             string            `json:"severity"`
	Title                string            `json:"title"`
	Description          string            `json:"description"`
	Merchant             string            `json:"merchant,omitempty"`
	Amount               *float64          `json:"amount,omitempty"`
	Currency             string            `json:"currency"`
	Date                 string            `json:"date"`
	TransactionDate      string            `json:"transaction_date,omitempty"`
	Status               string            `json:"status"`
	Resolution           string            `json:"resolution,omitempty"`
	ResolvedAt           string            `json:"resolved_at,omitempty"`
	ResolvedBy           *int64            `json:"resolved_by,omitempty"`
	Actions              []AlertActionItem `json:"actions"`
	Confidence           float64           `json:"confidence"`
	Source               string            `json:"source"`
	IsUrgent             bool              `json:"is_urgent"`
	AgeInDays            int               `json:"age_in_days"`
	EmailSent            bool              `json:"email_sent"`
	SMSSent              bool              `json:"sms_sent"`
	PushSent             bool              `json:"push_sent"`
	LastNotificationSent string            `json:"last_notification_sent,omitempty"`
	Tags                 []string          `json:"tags,omitempty"`
	IsRead               bool              `json:"is_read"`
	ReadAt               string            `json:"read_at,omitempty"`
	CreatedAt            string            `json:"created_at"`
	UpdatedAt            string            `json:"updated_at"`
}

// AlertStats counts a user's alerts by simple predicates.
type AlertStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Resolved int64 `json:"resolved"`
	Fraud    int64 `json:"fraud"`
	Unread   int64 `json:"unread"`
}

// AlertStatsResponse backs the alert stats/summary endpoint.
type AlertStatsResponse struct {
	Summary      AlertStats `json:"summary"`
	HighPriority int64      `json:"high_priority"`
}
