package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/config"
	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/repository"
	"github.com/subguard/subguard_go_server/internal/testutil"
)

func setupSweepService(t *testing.T) (*SweepService, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	svc := NewSweepService(
		repository.NewSubscriptionRepository(db),
		repository.NewAlertRepository(db),
		nil,
		config.SweepConfig{RenewalDays: 3, TrialEndingDays: 3, UnusedDays: 30},
	)

	return svc, db, func() { testutil.CleanupTestDB(t, db) }
}

func TestSweepService_AdvanceOverdueBilling(t *testing.T) {
	svc, db, cleanup := setupSweepService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	overdue := testutil.TestSubscription(t, db, user.ID,
		testutil.WithNextBilling(now.AddDate(0, 0, -2)))
	future := testutil.TestSubscription(t, db, user.ID,
		testutil.WithNextBilling(now.AddDate(0, 0, 10)))
	manual := testutil.TestSubscription(t, db, user.ID,
		testutil.WithNextBilling(now.AddDate(0, 0, -2)),
		testutil.WithAutoRenew(false))

	advanced, err := svc.AdvanceOverdueBilling()
	require.NoError(t, err)
	assert.Equal(t, 1, advanced)

	var updated model.Subscription
	require.NoError(t, db.First(&updated, overdue.ID).Error)
	assert.True(t, updated.NextBilling.After(now))
	require.NotNil(t, updated.LastBilling)
	assert.WithinDuration(t, overdue.NextBilling, *updated.LastBilling, time.Second)

	// Untouched
	updated = model.Subscription{}
	require.NoError(t, db.First(&updated, future.ID).Error)
	assert.WithinDuration(t, future.NextBilling, updated.NextBilling, time.Second)
	updated = model.Subscription{}
	require.NoError(t, db.First(&updated, manual.ID).Error)
	assert.WithinDuration(t, manual.NextBilling, updated.NextBilling, time.Second)
}

func TestSweepService_AdvanceOverdueBilling_MultipleCycles(t *testing.T) {
	svc, db, cleanup := setupSweepService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	// Three months behind: a single sweep catches the schedule all the way up
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithBillingCycle(model.CycleMonthly),
		testutil.WithNextBilling(now.AddDate(0, -3, 0)))

	advanced, err := svc.AdvanceOverdueBilling()
	require.NoError(t, err)
	assert.Equal(t, 1, advanced)

	var updated model.Subscription
	require.NoError(t, db.First(&updated, 1).Error)
	assert.True(t, updated.NextBilling.After(now))
	// At most one cycle ahead
	assert.False(t, updated.NextBilling.After(now.AddDate(0, 1, 0).Add(time.Hour)))
}

func TestSweepService_AdvanceOverdueBilling_UnknownCycle(t *testing.T) {
	svc, db, cleanup := setupSweepService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	// A corrupt cycle value must not stall the sweep
	corrupt := testutil.TestSubscription(t, db, user.ID,
		testutil.WithBillingCycle(model.BillingCycle("fortnightly")),
		testutil.WithNextBilling(now.AddDate(0, 0, -2)))

	advanced, err := svc.AdvanceOverdueBilling()
	require.NoError(t, err)
	assert.Equal(t, 1, advanced)

	var updated model.Subscription
	require.NoError(t, db.First(&updated, corrupt.ID).Error)
	assert.True(t, updated.NextBilling.After(now))
}

func TestSweepService_ExpireLapsed(t *testing.T) {
	svc, db, cleanup := setupSweepService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	lapsed := testutil.TestSubscription(t, db, user.ID,
		testutil.WithNextBilling(now.AddDate(0, 0, -5)),
		testutil.WithAutoRenew(false))
	renewing := testutil.TestSubscription(t, db, user.ID,
		testutil.WithNextBilling(now.AddDate(0, 0, -5)))
	current := testutil.TestSubscription(t, db, user.ID,
		testutil.WithNextBilling(now.AddDate(0, 0, 5)),
		testutil.WithAutoRenew(false))

	expired, err := svc.ExpireLapsed()
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	var updated model.Subscription
	require.NoError(t, db.First(&updated, lapsed.ID).Error)
	assert.Equal(t, model.SubStatusExpired, updated.Status)
	require.NotNil(t, updated.EndDate)

	updated = model.Subscription{}
	require.NoError(t, db.First(&updated, renewing.ID).Error)
	assert.Equal(t, model.SubStatusActive, updated.Status)
	updated = model.Subscription{}
	require.NoError(t, db.First(&updated, current.ID).Error)
	assert.Equal(t, model.SubStatusActive, updated.Status)
}

func TestSweepService_RaiseRenewalAlerts(t *testing.T) {
	svc, db, cleanup := setupSweepService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	due := testutil.TestSubscription(t, db, user.ID,
		testutil.WithName("Netflix"),
		testutil.WithNextBilling(now.AddDate(0, 0, 2)))
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithNextBilling(now.AddDate(0, 0, 20)))

	created, err := svc.RaiseRenewalAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	var alert model.Alert
	require.NoError(t, db.Where("subscription_id = ?", due.ID).First(&alert).Error)
	assert.Equal(t, model.AlertRenewal, alert.Type)
	assert.Equal(t, model.SeverityLow, alert.Severity)
	assert.Contains(t, alert.Title, "Netflix")
	assert.Equal(t, model.SourceAIDetection, alert.Source)

	// Re-running the sweep doesn't duplicate the open alert
	created, err = svc.RaiseRenewalAlerts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)

	// Once resolved, the next sweep may raise a fresh one
	require.NoError(t, alert.Resolve(user.ID, model.ResolutionResolvedAutomatically, now, ""))
	require.NoError(t, db.Save(&alert).Error)

	created, err = svc.RaiseRenewalAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestSweepService_RaiseTrialEndingAlerts(t *testing.T) {
	svc, db, cleanup := setupSweepService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	ending := testutil.TestSubscription(t, db, user.ID,
		testutil.WithName("Trial Music"),
		testutil.WithTrial(now.AddDate(0, 0, 2)))
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithTrial(now.AddDate(0, 0, 20)))
	testutil.TestSubscription(t, db, user.ID) // not a trial

	created, err := svc.RaiseTrialEndingAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	var alert model.Alert
	require.NoError(t, db.Where("subscription_id = ?", ending.ID).First(&alert).Error)
	assert.Equal(t, model.AlertTrialEnding, alert.Type)
	assert.Equal(t, model.SeverityMedium, alert.Severity)
	assert.Contains(t, alert.Title, "Trial Music")
}

func TestSweepService_RefreshUsage(t *testing.T) {
	svc, db, cleanup := setupSweepService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	// Pattern decays: marked high but last used 45 days ago
	stale := testutil.TestSubscription(t, db, user.ID,
		testutil.WithName("Stale Service"),
		testutil.WithUsagePattern(model.UsageHigh),
		testutil.WithLastUsed(now.AddDate(0, 0, -45)))
	// Recently used, pattern already right
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithUsagePattern(model.UsageHigh),
		testutil.WithLastUsed(now.AddDate(0, 0, -2)))

	alerts, refreshed, err := svc.RefreshUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, alerts)
	assert.Equal(t, 1, refreshed)

	var updated model.Subscription
	require.NoError(t, db.First(&updated, stale.ID).Error)
	assert.Equal(t, model.UsageLow, updated.UsagePattern)

	var alert model.Alert
	require.NoError(t, db.Where("subscription_id = ?", stale.ID).First(&alert).Error)
	assert.Equal(t, model.AlertUnused, alert.Type)
	assert.Contains(t, alert.Title, "Stale Service")
}

func TestSweepService_Sweep_RunsAllPasses(t *testing.T) {
	svc, db, cleanup := setupSweepService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	testutil.TestSubscription(t, db, user.ID,
		testutil.WithNextBilling(now.AddDate(0, 0, -1)))
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithTrial(now.AddDate(0, 0, 2)))

	stats := svc.Sweep(context.Background())
	assert.Equal(t, 1, stats.BillingAdvanced)
	assert.Equal(t, 1, stats.TrialAlerts)
}
