package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/repository"
	"github.com/subguard/subguard_go_server/internal/testutil"
)

func setupAnalyticsService(t *testing.T) (*AnalyticsService, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	svc := NewAnalyticsService(repository.NewSubscriptionRepository(db), repository.NewAlertRepository(db))

	return svc, db, func() { testutil.CleanupTestDB(t, db) }
}

func TestAnalyticsService_SpendingSummary(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithAmount(499),
		testutil.WithBillingCycle(model.CycleMonthly),
	)
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithAmount(1200),
		testutil.WithBillingCycle(model.CycleYearly),
	)
	// Cancelled subscriptions don't count
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithAmount(999),
		testutil.WithSubStatus(model.SubStatusCancelled),
	)

	summary, err := svc.SpendingSummary(user.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, 499.0+1200.0, summary.MonthlyTotal)
	assert.Equal(t, 499.0*12+1200.0, summary.YearlyTotal)
	assert.InDelta(t, (499.0+1200.0)/2, summary.Average, 0.001)
}

func TestAnalyticsService_SpendingSummary_Empty(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)

	summary, err := svc.SpendingSummary(user.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.Count)
	assert.Zero(t, summary.MonthlyTotal)
	assert.Zero(t, summary.YearlyTotal)
	assert.Zero(t, summary.Average)
}

func TestAnalyticsService_SubscriptionSummary(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	testutil.TestSubscription(t, db, user.ID, testutil.WithNextBilling(now.AddDate(0, 0, 5)))
	testutil.TestSubscription(t, db, user.ID, testutil.WithSubStatus(model.SubStatusPaused))
	testutil.TestSubscription(t, db, user.ID, testutil.WithSubStatus(model.SubStatusCancelled))

	summary, err := svc.SubscriptionSummary(user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), summary.Counts.Active)
	assert.Equal(t, int64(1), summary.Counts.Paused)
	assert.Equal(t, int64(1), summary.Counts.Cancelled)
	assert.Equal(t, int64(3), summary.Counts.Total)
	assert.Equal(t, 1, summary.UpcomingRenewals)
}

func TestAnalyticsService_CategoryBreakdown(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, testutil.WithCategory("Streaming"), testutil.WithAmount(499))
	testutil.TestSubscription(t, db, user.ID, testutil.WithCategory("Streaming"), testutil.WithAmount(299))
	testutil.TestSubscription(t, db, user.ID, testutil.WithCategory("Music"), testutil.WithAmount(119))

	breakdown, err := svc.CategoryBreakdown(user.ID)
	require.NoError(t, err)
	require.Len(t, breakdown, 2)

	// Largest spend first
	assert.Equal(t, "Streaming", breakdown[0].Category)
	assert.Equal(t, 798.0, breakdown[0].TotalSpending)
	assert.Equal(t, 2, breakdown[0].Count)
	assert.Equal(t, 399.0, breakdown[0].AverageAmount)

	assert.Equal(t, "Music", breakdown[1].Category)
	assert.Equal(t, 119.0, breakdown[1].TotalSpending)
}

func TestAnalyticsService_MerchantBreakdown(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithMerchant("Amazon"), testutil.WithCategory("Streaming"), testutil.WithAmount(299))
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithMerchant("Amazon"), testutil.WithCategory("Cloud Storage"), testutil.WithAmount(199))
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithMerchant("Spotify"), testutil.WithCategory("Music"), testutil.WithAmount(119))

	breakdown, err := svc.MerchantBreakdown(user.ID)
	require.NoError(t, err)
	require.Len(t, breakdown, 2)

	assert.Equal(t, "Amazon", breakdown[0].Merchant)
	assert.Equal(t, 498.0, breakdown[0].TotalSpending)
	assert.Equal(t, []string{"Cloud Storage", "Streaming"}, breakdown[0].Categories)
}

func TestAnalyticsService_SpendingTrend(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	testutil.TestSubscription(t, db, user.ID,
		testutil.WithAmount(499),
		testutil.WithCreatedAt(time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)))
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithAmount(199),
		testutil.WithCreatedAt(time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)))
	// Outside the window
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithAmount(999),
		testutil.WithCreatedAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	trend, err := svc.SpendingTrend(user.ID, 6)
	require.NoError(t, err)
	require.Len(t, trend, 6)

	assert.Equal(t, "2026-01", trend[0].Month)
	assert.Equal(t, "2026-06", trend[5].Month)

	byMonth := make(map[string]float64)
	for _, point := range trend {
		byMonth[point.Month] = point.Spending
	}
	assert.Equal(t, 499.0, byMonth["2026-06"])
	assert.Equal(t, 199.0, byMonth["2026-04"])
	assert.Zero(t, byMonth["2026-01"])
}

func TestAnalyticsService_Forecast(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	testutil.TestSubscription(t, db, user.ID,
		testutil.WithAmount(600),
		testutil.WithCreatedAt(time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)))

	forecast, err := svc.Forecast(user.ID)
	require.NoError(t, err)
	require.Len(t, forecast.Forecast, 6)

	// All growth sits in the newest bucket, so spending is trending up
	assert.Equal(t, "increasing", forecast.Direction)
	assert.Equal(t, 100.0, forecast.AverageGrowth)
	assert.Equal(t, "2026-07", forecast.Forecast[0].Month)
	assert.Equal(t, 700.0, forecast.Forecast[0].PredictedSpending)
	assert.Equal(t, 70.0, forecast.Forecast[0].PotentialSavings)
	assert.Equal(t, 600.0, forecast.CurrentSpending.MonthlyTotal)
}

func TestAnalyticsService_Forecast_NeverNegative(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	// Old subscription drives a steep decline: first bucket has spend, the
	// rest are empty
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithAmount(50),
		testutil.WithCreatedAt(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)))

	forecast, err := svc.Forecast(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "decreasing", forecast.Direction)
	for _, point := range forecast.Forecast {
		assert.GreaterOrEqual(t, point.PredictedSpending, 0.0)
	}
}

func TestAnalyticsService_Recommendations(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	// Unused: never used, created long ago
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithName("Forgotten Gym"),
		testutil.WithCategory("Fitness"),
		testutil.WithAmount(800))
	// Duplicates: two streaming services, recently used
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithName("Netflix"), testutil.WithCategory("Streaming"),
		testutil.WithAmount(499), testutil.WithLastUsed(now.AddDate(0, 0, -1)))
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithName("Prime Video"), testutil.WithCategory("Streaming"),
		testutil.WithAmount(299), testutil.WithLastUsed(now.AddDate(0, 0, -2)))
	// High cost
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithName("Enterprise Suite"), testutil.WithCategory("Software"),
		testutil.WithAmount(2500), testutil.WithLastUsed(now.AddDate(0, 0, -1)))
	// Trial ending in 3 days
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithName("Trial Service"), testutil.WithCategory("Music"),
		testutil.WithAmount(149), testutil.WithLastUsed(now.AddDate(0, 0, -1)),
		testutil.WithTrial(now.AddDate(0, 0, 3)))
	// Trial carrying status trial with an end date that already slipped past
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithName("Lapsed Trial"), testutil.WithCategory("News"),
		testutil.WithAmount(99), testutil.WithSubStatus(model.SubStatusTrial),
		testutil.WithTrial(now.AddDate(0, 0, -1)))

	resp, err := svc.Recommendations(user.ID)
	require.NoError(t, err)

	types := make(map[string]float64)
	for _, rec := range resp.Recommendations {
		types[rec.Type] = rec.PotentialSavings
	}

	assert.Contains(t, types, "cancel_unused")
	assert.Equal(t, 800.0, types["cancel_unused"])

	assert.Contains(t, types, "consolidate_duplicates")
	// Keeping the cheaper streaming service saves the 499 one
	assert.Equal(t, 499.0, types["consolidate_duplicates"])

	assert.Contains(t, types, "review_high_cost")
	assert.Equal(t, 500.0, types["review_high_cost"]) // 20% of 2500

	assert.Contains(t, types, "trial_ending")
	assert.Equal(t, 248.0, types["trial_ending"]) // both trials, the lapsed one included

	assert.InDelta(t, 800+499+500+248, resp.TotalPotentialSavings, 0.01)
}

func TestAnalyticsService_Recommendations_Empty(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)

	resp, err := svc.Recommendations(user.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Recommendations)
	assert.Zero(t, resp.TotalPotentialSavings)
}

func TestAnalyticsService_Insights(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	now := time.Now()

	testutil.TestSubscription(t, db, user.ID,
		testutil.WithAmount(1000), testutil.WithLastUsed(now.AddDate(0, 0, -2)),
		testutil.WithNextBilling(now.AddDate(0, 0, 40)))
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithName("Idle"), testutil.WithAmount(200),
		testutil.WithNextBilling(now.AddDate(0, 0, 10)))
	testutil.TestAlert(t, db, user.ID)

	insights, err := svc.Insights(user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1200.0, insights.Spending.MonthlyTotal)
	assert.Equal(t, int64(1), insights.Alerts.Total)
	assert.Equal(t, int64(1), insights.Optimization.UnusedSubscriptions)
	assert.Equal(t, int64(1), insights.Optimization.UpcomingRenewals)
	assert.Equal(t, 180.0, insights.Optimization.PotentialSavings) // 15% of 1200
}

func TestAnalyticsService_FraudMetrics(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)

	for i := 0; i < 3; i++ {
		testutil.TestAlert(t, db, user.ID,
			testutil.WithAlertStatus(model.AlertStatusResolved),
			testutil.WithResolution(model.ResolutionConfirmedFraud))
	}
	testutil.TestAlert(t, db, user.ID,
		testutil.WithAlertStatus(model.AlertStatusResolved),
		testutil.WithResolution(model.ResolutionFalsePositive))
	testutil.TestAlert(t, db, user.ID) // still open

	metrics, err := svc.FraudMetrics(user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(5), metrics.TotalAlerts)
	assert.Equal(t, int64(3), metrics.ConfirmedFraud)
	assert.Equal(t, int64(1), metrics.FalsePositives)
	assert.Equal(t, 0.75, metrics.Accuracy)
	assert.Equal(t, 0.25, metrics.FalsePositiveRate)
}

func TestAnalyticsService_FraudMetrics_NoResolved(t *testing.T) {
	svc, db, cleanup := setupAnalyticsService(t)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestAlert(t, db, user.ID)

	metrics, err := svc.FraudMetrics(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.TotalAlerts)
	assert.Zero(t, metrics.Accuracy)
	assert.Zero(t, metrics.FalsePositiveRate)
}
