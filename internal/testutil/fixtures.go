package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/internal/model"
)

var fixtureSeq int64

func nextSeq() int64 {
	return atomic.AddInt64(&fixtureSeq, 1)
}

// TestUser inserts a user with sane defaults, customizable via options.
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	seq := nextSeq()
	user := &model.User{
		FirstName:    "Test",
		LastName:     fmt.Sprintf("User%d", seq),
		Email:        fmt.Sprintf("test_%d_%d@example.com", time.Now().UnixNano(), seq),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		Currency:     model.CurrencyINR,
		Timezone:     "Asia/Kolkata",
		IsActive:     true,

		EmailNotificationsEnabled: true,
		EmailFraudAlerts:          true,
		EmailRenewalReminders:     true,
		EmailSpendingAlerts:       true,
		SMSFraudAlerts:            true,
		PushNotificationsEnabled:  true,
		PushFraudAlerts:           true,
		PushRenewalReminders:      true,
	}

	for _, opt := range opts {
		opt(user)
	}

	// Create substitutes column defaults for zero-valued fields (an explicit
	// false on a default:true column would be lost), so re-save the configured
	// values after the insert.
	configured := *user
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	configured.ID = user.ID
	configured.CreatedAt = user.CreatedAt
	configured.UpdatedAt = user.UpdatedAt
	*user = configured
	if err := db.Save(user).Error; err != nil {
		t.Fatalf("Failed to save test user: %v", err)
	}

	return user
}

func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

func WithPhone(phone string) func(*model.User) {
	return func(u *model.User) {
		u.Phone = phone
	}
}

func WithSMSEnabled(enabled bool) func(*model.User) {
	return func(u *model.User) {
		u.SMSNotificationsEnabled = enabled
	}
}

func WithEmailNotifications(enabled bool) func(*model.User) {
	return func(u *model.User) {
		u.EmailNotificationsEnabled = enabled
	}
}

// TestSubscription inserts an active monthly subscription billing 30 days out.
func TestSubscription(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	now := time.Now()
	sub := &model.Subscription{
		UserID:       userID,
		Name:         fmt.Sprintf("Test Subscription %d", nextSeq()),
		Category:     "Streaming",
		Merchant:     "Test Merchant",
		Amount:       499,
		Currency:     model.CurrencyINR,
		BillingCycle: model.CycleMonthly,
		NextBilling:  now.AddDate(0, 0, 30),
		Status:       model.SubStatusActive,
		StartDate:    now.AddDate(0, -1, 0),
		AutoRenew:    true,
		IsRecurring:  true,
		Source:       model.SourceManual,
		Confidence:   1.0,
	}

	for _, opt := range opts {
		opt(sub)
	}

	// See TestUser: re-save so explicit zero values survive column defaults.
	configured := *sub
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}
	configured.ID = sub.ID
	configured.CreatedAt = sub.CreatedAt
	configured.UpdatedAt = sub.UpdatedAt
	*sub = configured
	if err := db.Save(sub).Error; err != nil {
		t.Fatalf("Failed to save test subscription: %v", err)
	}

	return sub
}

func WithName(name string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Name = name
	}
}

func WithAmount(amount float64) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Amount = amount
	}
}

func WithCategory(category string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Category = category
	}
}

func WithMerchant(merchant string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Merchant = merchant
	}
}

func WithBillingCycle(cycle model.BillingCycle) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.BillingCycle = cycle
	}
}

func WithSubStatus(status model.SubscriptionStatus) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

func WithNextBilling(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.NextBilling = at
	}
}

func WithLastUsed(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.LastUsed = &at
	}
}

func WithUsagePattern(pattern model.UsagePattern) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.UsagePattern = pattern
	}
}

func WithTrial(endDate time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.IsTrial = true
		s.TrialEndDate = &endDate
	}
}

func WithAutoRenew(autoRenew bool) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.AutoRenew = autoRenew
	}
}

func WithCreatedAt(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.CreatedAt = at
	}
}

// TestAlert inserts an active medium fraud alert dated now.
func TestAlert(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Alert)) *model.Alert {
	t.Helper()

	alert := &model.Alert{
		UserID:      userID,
		Type:        model.AlertFraud,
		Severity:    model.SeverityMedium,
		Title:       fmt.Sprintf("Test Alert %d", nextSeq()),
		Description: "Suspicious charge detected",
		Currency:    model.CurrencyINR,
		Date:        time.Now(),
		Status:      model.AlertStatusActive,
		Actions:     model.ActionList{},
		Confidence:  0.8,
		Source:      model.SourceAIDetection,
	}

	for _, opt := range opts {
		opt(alert)
	}

	// See TestUser: re-save so explicit zero values survive column defaults.
	configured := *alert
	if err := db.Create(alert).Error; err != nil {
		t.Fatalf("Failed to create test alert: %v", err)
	}
	configured.ID = alert.ID
	configured.CreatedAt = alert.CreatedAt
	configured.UpdatedAt = alert.UpdatedAt
	*alert = configured
	if err := db.Save(alert).Error; err != nil {
		t.Fatalf("Failed to save test alert: %v", err)
	}

	return alert
}

func WithAlertType(alertType model.AlertType) func(*model.Alert) {
	return func(a *model.Alert) {
		a.Type = alertType
	}
}

func WithSeverity(severity model.AlertSeverity) func(*model.Alert) {
	return func(a *model.Alert) {
		a.Severity = severity
	}
}

func WithAlertStatus(status model.AlertStatus) func(*model.Alert) {
	return func(a *model.Alert) {
		a.Status = status
	}
}

func WithResolution(resolution model.Resolution) func(*model.Alert) {
	return func(a *model.Alert) {
		a.Resolution = resolution
	}
}

func WithAlertDate(date time.Time) func(*model.Alert) {
	return func(a *model.Alert) {
		a.Date = date
	}
}

func WithSubscriptionRef(subscriptionID int64) func(*model.Alert) {
	return func(a *model.Alert) {
		a.SubscriptionID = &subscriptionID
	}
}

func WithTransactionID(transactionID string) func(*model.Alert) {
	return func(a *model.Alert) {
		a.TransactionID = transactionID
	}
}

func WithRead(at time.Time) func(*model.Alert) {
	return func(a *model.Alert) {
		a.IsRead = true
		a.ReadAt = &at
	}
}
