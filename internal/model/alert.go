package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrInvalidResolution = errors.New("invalid resolution")
	ErrAlertFinalized    = errors.New("alert is already resolved or ignored")
)

// Action names recorded in the audit trail.
const (
	ActionResolve     = "resolve"
	ActionIgnore      = "ignore"
	ActionInvestigate = "investigate"
)

// AlertAction is one entry of an alert's append-only audit trail.
type AlertAction struct {
	Action      string    `json:"action"`
	PerformedBy int64     `json:"performed_by"`
	PerformedAt time.Time `json:"performed_at"`
	Notes       string    `json:"notes,omitempty"`
}

// ActionList stores the audit trail as a JSON array column.
type ActionList []AlertAction

func (a ActionList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

func (a *ActionList) Scan(value interface{}) error {
	if value == nil {
		*a = ActionList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, a)
}

type Alert struct {
	ID             int64         `gorm:"primaryKey" json:"id"`
	UserID         int64         `gorm:"not null;index" json:"user_id"`
	SubscriptionID *int64        `gorm:"index" json:"subscription_id,omitempty"`
	Type           AlertType     `gorm:"size:20;not null;index" json:"type"`
	Severity       AlertSeverity `gorm:"size:10;default:medium" json:"severity"`
	Title          string        `gorm:"size:200;not null" json:"title"`
	Description    string        `gorm:"size:1000;not null" json:"description"`
	Merchant       string        `gorm:"size:100" json:"merchant,omitempty"`
	Amount         *float64      `gorm:"type:decimal(10,2)" json:"amount,omitempty"`
	Currency       Currency      `gorm:"size:3;default:INR" json:"currency"`
	Date           time.Time     `gorm:"not null;index" json:"date"`
	TransactionDate *time.Time   `json:"transaction_date,omitempty"`
	Status         AlertStatus   `gorm:"size:20;default:active;index" json:"status"`
	Resolution     Resolution    `gorm:"size:30" json:"resolution,omitempty"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
	ResolvedBy     *int64        `json:"resolved_by,omitempty"`
	Actions        ActionList    `gorm:"type:json" json:"actions"`
	Confidence     float64       `gorm:"type:decimal(3,2);default:0.8" json:"confidence"`
	Source         RecordSource  `gorm:"size:20;default:ai_detection" json:"source"`
	TransactionID  string        `gorm:"size:100;index" json:"transaction_id,omitempty"`
	BankReference  string        `gorm:"size:100" json:"bank_reference,omitempty"`
	Metadata       JSONMap       `gorm:"type:json" json:"metadata,omitempty"`
	EmailSent      bool          `gorm:"default:false" json:"email_sent"`
	SMSSent        bool          `gorm:"default:false" json:"sms_sent"`
	PushSent       bool          `gorm:"default:false" json:"push_sent"`
	LastNotificationSent *time.Time `json:"last_notification_sent,omitempty"`
	Tags           StringArray   `gorm:"type:json" json:"tags,omitempty"`
	IsRead         bool          `gorm:"default:false;index" json:"is_read"`
	ReadAt         *time.Time    `json:"read_at,omitempty"`
	Version        int64         `gorm:"default:0" json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Alert) TableName() string {
	return "alerts"
}

func (a *Alert) appendAction(action string, actorID int64, now time.Time, notes string) {
	a.Actions = append(a.Actions, AlertAction{
		Action:      action,
		PerformedBy: actorID,
		PerformedAt: now,
		Notes:       notes,
	})
}

// StartInvestigation moves the alert into investigating and records who did it.
func (a *Alert) StartInvestigation(actorID int64, now time.Time, notes string) error {
	if a.Status.Terminal() {
		return ErrAlertFinalized
	}
	a.Status = AlertStatusInvestigating
	a.appendAction(ActionInvestigate, actorID, now, notes)
	return nil
}

// Resolve finalizes the alert with the given resolution. resolvedAt is stamped
// the first time the alert enters resolved and never again.
func (a *Alert) Resolve(actorID int64, resolution Resolution, now time.Time, notes string) error {
	if !resolution.ValidForResolve() {
		return ErrInvalidResolution
	}
	if a.Status.Terminal() {
		return ErrAlertFinalized
	}
	a.Status = AlertStatusResolved
	a.Resolution = resolution
	if a.ResolvedAt == nil {
		a.ResolvedAt = &now
	}
	a.ResolvedBy = &actorID
	a.appendAction(ActionResolve, actorID, now, notes)
	return nil
}

// Ignore finalizes the alert with the reserved "ignored" resolution.
func (a *Alert) Ignore(actorID int64, now time.Time, notes string) error {
	if a.Status.Terminal() {
		return ErrAlertFinalized
	}
	a.Status = AlertStatusIgnored
	a.Resolution = ResolutionIgnored
	if a.ResolvedAt == nil {
		a.ResolvedAt = &now
	}
	a.ResolvedBy = &actorID
	a.appendAction(ActionIgnore, actorID, now, notes)
	return nil
}

// AddAction appends a manual annotation without a status transition.
func (a *Alert) AddAction(action string, actorID int64, now time.Time, notes string) {
	a.appendAction(action, actorID, now, notes)
}

// MarkRead flips the read flag. Read state is independent of workflow status.
func (a *Alert) MarkRead(now time.Time) {
	a.IsRead = true
	a.ReadAt = &now
}

// AgeInDays is full days since detection, truncated.
func (a *Alert) AgeInDays(now time.Time) int {
	return DaysSince(now, a.Date)
}

// IsUrgent flags critical alerts, high-severity fraud, and active alerts
// older than a week.
func (a *Alert) IsUrgent(now time.Time) bool {
	return a.Severity == SeverityCritical ||
		(a.Type == AlertFraud && a.Severity == SeverityHigh) ||
		(a.AgeInDays(now) > 7 && a.Status == AlertStatusActive)
}
