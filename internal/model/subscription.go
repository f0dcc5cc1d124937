package model

import (
	"time"
)

type Subscription struct {
	ID            int64              `gorm:"primaryKey" json:"id"`
	UserID        int64              `gorm:"not null;index" json:"user_id"`
	Name          string             `gorm:"size:100;not null" json:"name"`
	Description   string             `gorm:"size:500" json:"description,omitempty"`
	Category      string             `gorm:"size:50;not null;default:Other;index" json:"category"`
	Merchant      string             `gorm:"size:100;not null" json:"merchant"`
	Amount        float64            `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency      Currency           `gorm:"size:3;default:INR" json:"currency"`
	BillingCycle  BillingCycle       `gorm:"size:20;not null;default:monthly" json:"billing_cycle"`
	NextBilling   time.Time          `gorm:"not null;index" json:"next_billing"`
	LastBilling   *time.Time         `json:"last_billing,omitempty"`
	Status        SubscriptionStatus `gorm:"size:20;default:active;index" json:"status"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       *time.Time         `json:"end_date,omitempty"`
	TrialEndDate  *time.Time         `json:"trial_end_date,omitempty"`
	IsTrial       bool               `gorm:"default:false" json:"is_trial"`
	AutoRenew     bool               `gorm:"default:true" json:"auto_renew"`
	PaymentMethod PaymentMethod      `gorm:"size:20;default:other" json:"payment_method"`
	Tags          StringArray        `gorm:"type:json" json:"tags,omitempty"`
	LastUsed      *time.Time         `json:"last_used,omitempty"`
	UsageCount    int                `gorm:"default:0" json:"usage_count"`
	UsagePattern  UsagePattern       `gorm:"size:10;default:none" json:"usage_pattern"`
	Notes         string             `gorm:"type:text" json:"notes,omitempty"`
	IsRecurring   bool               `gorm:"default:true" json:"is_recurring"`
	Source        RecordSource       `gorm:"size:20;default:manual" json:"source"`
	Confidence    float64            `gorm:"type:decimal(3,2);default:1.0" json:"confidence"`
	Metadata      JSONMap            `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt     time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Pause stops billing tracking without touching anything else.
func (s *Subscription) Pause() {
	s.Status = SubStatusPaused
}

// Cancel marks the subscription cancelled and stamps endDate. Cancelling an
// already-cancelled subscription is a no-op so the original end date survives.
func (s *Subscription) Cancel(now time.Time) {
	if s.Status == SubStatusCancelled {
		return
	}
	s.Status = SubStatusCancelled
	s.EndDate = &now
}

// Expire marks a lapsed non-renewing subscription. The original end date
// survives if one was already set.
func (s *Subscription) Expire(now time.Time) {
	if s.Status == SubStatusExpired {
		return
	}
	s.Status = SubStatusExpired
	if s.EndDate == nil {
		s.EndDate = &now
	}
}

// Reactivate returns the subscription to active from any status and clears
// endDate.
func (s *Subscription) Reactivate() {
	s.Status = SubStatusActive
	s.EndDate = nil
}

// RecordUsage stamps lastUsed, bumps the counter and reclassifies the usage
// pattern in the same step. Status is untouched.
func (s *Subscription) RecordUsage(now time.Time) {
	s.LastUsed = &now
	s.UsageCount++
	s.UsagePattern = ClassifyUsage(now, s.LastUsed)
}

// RefreshUsagePattern reclassifies against the current lastUsed. Called by the
// sweeper so patterns decay as subscriptions sit unused.
func (s *Subscription) RefreshUsagePattern(now time.Time) {
	s.UsagePattern = ClassifyUsage(now, s.LastUsed)
}

// ProjectedAnnualCost is amount times charges per year for the billing cycle.
func (s *Subscription) ProjectedAnnualCost() float64 {
	return s.Amount * float64(s.BillingCycle.CyclesPerYear())
}

// DaysUntilNextBilling rounds partial days up; negative means overdue.
func (s *Subscription) DaysUntilNextBilling(now time.Time) int {
	return DaysUntil(now, s.NextBilling)
}

// AdvanceBilling rolls the schedule forward one cycle from the current
// nextBilling date.
func (s *Subscription) AdvanceBilling() {
	prev := s.NextBilling
	s.LastBilling = &prev
	s.NextBilling = NextBillingAfter(s.BillingCycle, prev)
}

// NextBillingAfter returns the charge date one cycle after t.
func NextBillingAfter(cycle BillingCycle, t time.Time) time.Time {
	switch cycle {
	case CycleDaily:
		return t.AddDate(0, 0, 1)
	case CycleWeekly:
		return t.AddDate(0, 0, 7)
	case CycleMonthly:
		return t.AddDate(0, 1, 0)
	case CycleQuarterly:
		return t.AddDate(0, 3, 0)
	case CycleYearly:
		return t.AddDate(1, 0, 0)
	}
	// Unrecognized cycles advance monthly; the date must always move forward.
	return t.AddDate(0, 1, 0)
}
