package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/repository"
	"github.com/subguard/subguard_go_server/internal/testutil"
)

func setupAlertService(t *testing.T) (*AlertService, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	svc := NewAlertService(repository.NewAlertRepository(db), repository.NewSubscriptionRepository(db), nil)

	return svc, db, func() { testutil.CleanupTestDB(t, db) }
}

func TestAlertService_Create(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)

	detail, err := svc.Create(ctx, user.ID, &dto.CreateAlertRequest{
		Type:        "fraud",
		Title:       "Suspicious charge",
		Description: "A charge of 1299 INR looks unusual for this merchant.",
		Amount:      floatPtr(1299),
	})
	require.NoError(t, err)

	assert.Equal(t, "fraud", detail.Type)
	assert.Equal(t, "medium", detail.Severity) // default
	assert.Equal(t, "active", detail.Status)
	assert.Equal(t, "INR", detail.Currency)
	assert.Equal(t, 0.8, detail.Confidence)
	assert.Equal(t, "ai_detection", detail.Source)
	assert.Empty(t, detail.Actions)
	assert.False(t, detail.IsRead)
}

func TestAlertService_Create_Validation(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)

	_, err := svc.Create(ctx, user.ID, &dto.CreateAlertRequest{
		Type: "rumor", Title: "x", Description: "y",
	})
	assert.ErrorIs(t, err, ErrInvalidAlertType)

	_, err = svc.Create(ctx, user.ID, &dto.CreateAlertRequest{
		Type: "fraud", Severity: "catastrophic", Title: "x", Description: "y",
	})
	assert.ErrorIs(t, err, ErrInvalidSeverity)
}

func TestAlertService_Create_TransactionDedupe(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)

	req := &dto.CreateAlertRequest{
		Type:          "fraud",
		Title:         "Suspicious charge",
		Description:   "Duplicate transaction check",
		TransactionID: "txn_001",
	}
	_, err := svc.Create(ctx, user.ID, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, user.ID, req)
	assert.ErrorIs(t, err, ErrDuplicateAlert)

	// Dedupe is per user
	_, err = svc.Create(ctx, other.ID, req)
	assert.NoError(t, err)
}

func TestAlertService_Create_SubscriptionOwnership(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	owner := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	sub := testutil.TestSubscription(t, db, owner.ID)

	// Referencing someone else's subscription is rejected
	_, err := svc.Create(ctx, other.ID, &dto.CreateAlertRequest{
		SubscriptionID: &sub.ID,
		Type:           "renewal",
		Title:          "Renewal coming",
		Description:    "Charge due soon",
	})
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	detail, err := svc.Create(ctx, owner.ID, &dto.CreateAlertRequest{
		SubscriptionID: &sub.ID,
		Type:           "renewal",
		Title:          "Renewal coming",
		Description:    "Charge due soon",
	})
	require.NoError(t, err)
	require.NotNil(t, detail.SubscriptionID)
	assert.Equal(t, sub.ID, *detail.SubscriptionID)
}

func TestAlertService_Resolve(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)
	alert := testutil.TestAlert(t, db, user.ID)

	resolvedAt := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return resolvedAt }

	detail, err := svc.Resolve(ctx, alert.ID, user.ID, &dto.ResolveAlertRequest{
		Resolution: "confirmed_fraud",
		Notes:      "Verified with the bank",
	})
	require.NoError(t, err)

	assert.Equal(t, "resolved", detail.Status)
	assert.Equal(t, "confirmed_fraud", detail.Resolution)
	assert.Equal(t, resolvedAt.Format(time.RFC3339), detail.ResolvedAt)
	require.NotNil(t, detail.ResolvedBy)
	assert.Equal(t, user.ID, *detail.ResolvedBy)

	// Exactly one audit entry for the transition
	require.Len(t, detail.Actions, 1)
	assert.Equal(t, "resolve", detail.Actions[0].Action)
	assert.Equal(t, "Verified with the bank", detail.Actions[0].Notes)
}

func TestAlertService_Resolve_InvalidResolution(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)
	alert := testutil.TestAlert(t, db, user.ID)

	_, err := svc.Resolve(ctx, alert.ID, user.ID, &dto.ResolveAlertRequest{Resolution: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidResolution)

	// "ignored" is reserved for the ignore transition
	_, err = svc.Resolve(ctx, alert.ID, user.ID, &dto.ResolveAlertRequest{Resolution: "ignored"})
	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func TestAlertService_Resolve_TerminalRejected(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)
	alert := testutil.TestAlert(t, db, user.ID)

	_, err := svc.Resolve(ctx, alert.ID, user.ID, &dto.ResolveAlertRequest{Resolution: "false_positive"})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, alert.ID, user.ID, &dto.ResolveAlertRequest{Resolution: "confirmed_fraud"})
	assert.ErrorIs(t, err, ErrAlertFinalized)

	_, err = svc.Ignore(ctx, alert.ID, user.ID, "")
	assert.ErrorIs(t, err, ErrAlertFinalized)

	_, err = svc.Investigate(ctx, alert.ID, user.ID, "")
	assert.ErrorIs(t, err, ErrAlertFinalized)
}

func TestAlertService_ResolvedAtStampedOnce(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)
	alert := testutil.TestAlert(t, db, user.ID)

	first := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return first }

	detail, err := svc.Ignore(ctx, alert.ID, user.ID, "not interesting")
	require.NoError(t, err)
	assert.Equal(t, "ignored", detail.Status)
	assert.Equal(t, "ignored", detail.Resolution)
	assert.Equal(t, first.Format(time.RFC3339), detail.ResolvedAt)

	// Still the first timestamp after a reload
	fetched, err := svc.Get(alert.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Format(time.RFC3339), fetched.ResolvedAt)
}

func TestAlertService_Investigate(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)
	alert := testutil.TestAlert(t, db, user.ID)

	detail, err := svc.Investigate(ctx, alert.ID, user.ID, "checking statements")
	require.NoError(t, err)
	assert.Equal(t, "investigating", detail.Status)
	assert.Empty(t, detail.Resolution)
	require.Len(t, detail.Actions, 1)
	assert.Equal(t, "investigate", detail.Actions[0].Action)

	// Investigating alerts can still be resolved
	detail, err = svc.Resolve(ctx, alert.ID, user.ID, &dto.ResolveAlertRequest{Resolution: "false_positive"})
	require.NoError(t, err)
	assert.Equal(t, "resolved", detail.Status)
	assert.Len(t, detail.Actions, 2)
}

func TestAlertService_ConcurrentTransitionConflict(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)
	alert := testutil.TestAlert(t, db, user.ID)

	// Second writer moved the version after our read
	repo := repository.NewAlertRepository(db)
	stale, err := repo.GetByIDForUser(alert.ID, user.ID)
	require.NoError(t, err)

	_, err = svc.Investigate(ctx, alert.ID, user.ID, "")
	require.NoError(t, err)

	require.NoError(t, stale.StartInvestigation(user.ID, time.Now(), ""))
	rows, err := repo.UpdateWithVersion(stale, 0)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestAlertService_AddAction(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	alert := testutil.TestAlert(t, db, user.ID)

	detail, err := svc.AddAction(alert.ID, user.ID, &dto.AddActionRequest{
		Action: "contacted_merchant",
		Notes:  "Asked for an itemized invoice",
	})
	require.NoError(t, err)

	// Annotation recorded without a status change
	assert.Equal(t, "active", detail.Status)
	require.Len(t, detail.Actions, 1)
	assert.Equal(t, "contacted_merchant", detail.Actions[0].Action)
}

func TestAlertService_MarkRead(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	alert := testutil.TestAlert(t, db, user.ID)

	detail, err := svc.MarkRead(alert.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsRead)
	assert.NotEmpty(t, detail.ReadAt)
	// Read state leaves the workflow alone
	assert.Equal(t, "active", detail.Status)
}

func TestAlertService_MarkAllRead(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestAlert(t, db, user.ID)
	testutil.TestAlert(t, db, user.ID)
	testutil.TestAlert(t, db, user.ID, testutil.WithRead(time.Now()))

	rows, err := svc.MarkAllRead(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
}

func TestAlertService_Stats(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestAlert(t, db, user.ID, testutil.WithSeverity(model.SeverityCritical))
	testutil.TestAlert(t, db, user.ID, testutil.WithAlertType(model.AlertRenewal), testutil.WithSeverity(model.SeverityLow))
	testutil.TestAlert(t, db, user.ID,
		testutil.WithAlertStatus(model.AlertStatusResolved),
		testutil.WithResolution(model.ResolutionFalsePositive),
	)

	stats, err := svc.Stats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Summary.Total)
	assert.Equal(t, int64(2), stats.Summary.Active)
	assert.Equal(t, int64(1), stats.Summary.Resolved)
	assert.Equal(t, int64(2), stats.Summary.Fraud)
	assert.Equal(t, int64(1), stats.HighPriority)
}

func TestAlertService_Update_ContentOnly(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)
	alert := testutil.TestAlert(t, db, user.ID)

	title := "Renamed alert"
	severity := "high"
	detail, err := svc.Update(ctx, alert.ID, user.ID, &dto.UpdateAlertRequest{
		Title:    &title,
		Severity: &severity,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed alert", detail.Title)
	assert.Equal(t, "high", detail.Severity)
	assert.Equal(t, "active", detail.Status)

	bad := "urgent"
	_, err = svc.Update(ctx, alert.ID, user.ID, &dto.UpdateAlertRequest{Severity: &bad})
	assert.ErrorIs(t, err, ErrInvalidSeverity)
}

func TestAlertService_IsUrgent(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)

	critical := testutil.TestAlert(t, db, user.ID,
		testutil.WithAlertType(model.AlertRenewal),
		testutil.WithSeverity(model.SeverityCritical),
	)
	highFraud := testutil.TestAlert(t, db, user.ID, testutil.WithSeverity(model.SeverityHigh))
	staleActive := testutil.TestAlert(t, db, user.ID,
		testutil.WithAlertType(model.AlertUnused),
		testutil.WithSeverity(model.SeverityLow),
		testutil.WithAlertDate(time.Now().AddDate(0, 0, -10)),
	)
	calm := testutil.TestAlert(t, db, user.ID,
		testutil.WithAlertType(model.AlertRenewal),
		testutil.WithSeverity(model.SeverityLow),
	)

	for _, tc := range []struct {
		id     int64
		urgent bool
	}{
		{critical.ID, true},
		{highFraud.ID, true},
		{staleActive.ID, true},
		{calm.ID, false},
	} {
		detail, err := svc.Get(tc.id, user.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.urgent, detail.IsUrgent, "alert %d", tc.id)
	}
}

func TestAlertService_NotFound(t *testing.T) {
	svc, db, cleanup := setupAlertService(t)
	defer cleanup()

	ctx := context.Background()
	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	alert := testutil.TestAlert(t, db, user.ID)

	_, err := svc.Get(99999, user.ID)
	assert.ErrorIs(t, err, ErrAlertNotFound)

	_, err = svc.Resolve(ctx, alert.ID, other.ID, &dto.ResolveAlertRequest{Resolution: "false_positive"})
	assert.ErrorIs(t, err, ErrAlertNotFound)
}
