package service

import (
	"math"
	"sort"
	"time"

	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/repository"
)

const (
	unusedCutoffDays      = 30
	trialEndingWindowDays = 7
	highCostThreshold     = 1000
	forecastPeriods       = 6
	forecastSavingsRate   = 0.10
	highCostSavingsRate   = 0.20
	insightsSavingsRate   = 0.15
)

type AnalyticsService struct {
	subRepo   *repository.SubscriptionRepository
	alertRepo *repository.AlertRepository
	nowFn     func() time.Time
}

func NewAnalyticsService(subRepo *repository.SubscriptionRepository, alertRepo *repository.AlertRepository) *AnalyticsService {
	return &AnalyticsService{
		subRepo:   subRepo,
		alertRepo: alertRepo,
		nowFn:     time.Now,
	}
}

// SpendingSummary aggregates the user's active subscriptions. MonthlyTotal
// sums raw amounts across mixed cycles; YearlyTotal projects per cycle.
func (s *AnalyticsService) SpendingSummary(userID int64) (*dto.SpendingSummary, error) {
	subs, err := s.subRepo.ListActive(userID)
	if err != nil {
		return nil, err
	}
	summary := spendingFrom(subs)
	return &summary, nil
}

func spendingFrom(subs []*model.Subscription) dto.SpendingSummary {
	summary := dto.SpendingSummary{Count: len(subs)}
	for _, sub := range subs {
		summary.MonthlyTotal += sub.Amount
		summary.YearlyTotal += sub.ProjectedAnnualCost()
	}
	if summary.Count > 0 {
		summary.Average = summary.MonthlyTotal / float64(summary.Count)
	}
	return summary
}

// SubscriptionSummary backs the subscription stats endpoint.
func (s *AnalyticsService) SubscriptionSummary(userID int64) (*dto.SubscriptionSummaryResponse, error) {
	subs, err := s.subRepo.ListActive(userID)
	if err != nil {
		return nil, err
	}

	active, err := s.subRepo.CountByStatus(userID, model.SubStatusActive)
	if err != nil {
		return nil, err
	}
	paused, err := s.subRepo.CountByStatus(userID, model.SubStatusPaused)
	if err != nil {
		return nil, err
	}
	cancelled, err := s.subRepo.CountByStatus(userID, model.SubStatusCancelled)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	upcoming, err := s.subRepo.ListDueForRenewal(userID, now.AddDate(0, 0, 30))
	if err != nil {
		return nil, err
	}
	unused, err := s.subRepo.ListUnused(userID, now.AddDate(0, 0, -unusedCutoffDays))
	if err != nil {
		return nil, err
	}

	return &dto.SubscriptionSummaryResponse{
		Spending: spendingFrom(subs),
		Counts: dto.StatusCounts{
			Active:    active,
			Paused:    paused,
			Cancelled: cancelled,
			Total:     active + paused + cancelled,
		},
		UpcomingRenewals:    len(upcoming),
		UnusedSubscriptions: len(unused),
	}, nil
}

// CategoryBreakdown groups active subscriptions by category, largest spend
// first.
func (s *AnalyticsService) CategoryBreakdown(userID int64) ([]dto.CategoryBreakdown, error) {
	subs, err := s.subRepo.ListActive(userID)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]*model.Subscription)
	for _, sub := range subs {
		byCategory[sub.Category] = append(byCategory[sub.Category], sub)
	}

	result := make([]dto.CategoryBreakdown, 0, len(byCategory))
	for category, group := range byCategory {
		total := 0.0
		for _, sub := range group {
			total += sub.Amount
		}
		result = append(result, dto.CategoryBreakdown{
			Category:      category,
			TotalSpending: total,
			Count:         len(group),
			AverageAmount: total / float64(len(group)),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TotalSpending > result[j].TotalSpending
	})
	return result, nil
}

// MerchantBreakdown groups active subscriptions by merchant.
func (s *AnalyticsService) MerchantBreakdown(userID int64) ([]dto.MerchantBreakdown, error) {
	subs, err := s.subRepo.ListActive(userID)
	if err != nil {
		return nil, err
	}

	byMerchant := make(map[string][]*model.Subscription)
	for _, sub := range subs {
		byMerchant[sub.Merchant] = append(byMerchant[sub.Merchant], sub)
	}

	result := make([]dto.MerchantBreakdown, 0, len(byMerchant))
	for merchant, group := range byMerchant {
		total := 0.0
		categories := make([]string, 0, 2)
		seen := make(map[string]bool)
		for _, sub := range group {
			total += sub.Amount
			if !seen[sub.Category] {
				seen[sub.Category] = true
				categories = append(categories, sub.Category)
			}
		}
		sort.Strings(categories)
		result = append(result, dto.MerchantBreakdown{
			Merchant:      merchant,
			TotalSpending: total,
			Count:         len(group),
			AverageAmount: total / float64(len(group)),
			Categories:    categories,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TotalSpending > result[j].TotalSpending
	})
	return result, nil
}

// SpendingTrend buckets active subscriptions into the months they were
// added, over the trailing `months` window. Grouping happens here rather
// than in SQL so sqlite and mysql behave the same.
func (s *AnalyticsService) SpendingTrend(userID int64, months int) ([]dto.MonthlySpend, error) {
	if months <= 0 {
		months = 6
	}

	subs, err := s.subRepo.ListActive(userID)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	trend := make([]dto.MonthlySpend, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		month := start.AddDate(0, i, 0)
		key := month.Format("2006-01")
		trend[i] = dto.MonthlySpend{Month: key}
		index[key] = i
	}

	for _, sub := range subs {
		key := sub.CreatedAt.Format("2006-01")
		if i, ok := index[key]; ok {
			trend[i].Spending += sub.Amount
			trend[i].Subscriptions++
		}
	}
	return trend, nil
}

// Forecast projects spending 6 months out with a linear growth model.
// Growth is (last - first) / periods over the trailing trend; projections
// never go below zero.
func (s *AnalyticsService) Forecast(userID int64) (*dto.ForecastResponse, error) {
	trend, err := s.SpendingTrend(userID, forecastPeriods)
	if err != nil {
		return nil, err
	}
	current, err := s.SpendingSummary(userID)
	if err != nil {
		return nil, err
	}

	growth := 0.0
	if len(trend) > 1 {
		growth = (trend[len(trend)-1].Spending - trend[0].Spending) / float64(len(trend))
	}

	direction := "stable"
	if growth > 0 {
		direction = "increasing"
	} else if growth < 0 {
		direction = "decreasing"
	}

	now := s.nowFn()
	base := current.MonthlyTotal
	forecast := make([]dto.ForecastPoint, 0, forecastPeriods)
	for i := 1; i <= forecastPeriods; i++ {
		predicted := base + growth*float64(i)
		if predicted < 0 {
			predicted = 0
		}
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		forecast = append(forecast, dto.ForecastPoint{
			Month:             month.Format("2006-01"),
			PredictedSpending: round2(predicted),
			PotentialSavings:  round2(predicted * forecastSavingsRate),
		})
	}

	return &dto.ForecastResponse{
		Forecast:        forecast,
		CurrentSpending: *current,
		AverageGrowth:   round2(growth),
		Direction:       direction,
	}, nil
}

// Recommendations derives savings opportunities. They are computed on read
// and never stored.
func (s *AnalyticsService) Recommendations(userID int64) (*dto.RecommendationsResponse, error) {
	subs, err := s.subRepo.ListActive(userID)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	resp := &dto.RecommendationsResponse{Recommendations: []dto.Recommendation{}}

	// Cancel what sits unused
	var unused []dto.RecommendationSubscription
	unusedSavings := 0.0
	for _, sub := range subs {
		if sub.LastUsed == nil || model.DaysSince(now, *sub.LastUsed) > unusedCutoffDays {
			unused = append(unused, recommendationSub(sub))
			unusedSavings += sub.Amount
		}
	}
	if len(unused) > 0 {
		resp.Recommendations = append(resp.Recommendations, dto.Recommendation{
			Type:             "cancel_unused",
			Title:            "Cancel unused subscriptions",
			Description:      "These subscriptions haven't been used in over 30 days.",
			Priority:         "high",
			PotentialSavings: round2(unusedSavings),
			Subscriptions:    unused,
		})
	}

	// Consolidate overlapping services
	byCategory := make(map[string][]*model.Subscription)
	for _, sub := range subs {
		byCategory[sub.Category] = append(byCategory[sub.Category], sub)
	}
	var groups []dto.CategoryGroup
	duplicateSavings := 0.0
	for category, group := range byCategory {
		if len(group) < 2 {
			continue
		}
		items := make([]dto.RecommendationSubscription, 0, len(group))
		cheapest := group[0].Amount
		total := 0.0
		for _, sub := range group {
			items = append(items, recommendationSub(sub))
			total += sub.Amount
			if sub.Amount < cheapest {
				cheapest = sub.Amount
			}
		}
		// Keeping only the cheapest saves the rest
		duplicateSavings += total - cheapest
		groups = append(groups, dto.CategoryGroup{
			Category:      category,
			Count:         len(group),
			Subscriptions: items,
		})
	}
	if len(groups) > 0 {
		sort.Slice(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
		resp.Recommendations = append(resp.Recommendations, dto.Recommendation{
			Type:             "consolidate_duplicates",
			Title:            "Consolidate overlapping subscriptions",
			Description:      "You have multiple subscriptions in the same category.",
			Priority:         "medium",
			PotentialSavings: round2(duplicateSavings),
			Categories:       groups,
		})
	}

	// Review expensive subscriptions
	var expensive []dto.RecommendationSubscription
	expensiveSavings := 0.0
	for _, sub := range subs {
		if sub.Amount > highCostThreshold {
			expensive = append(expensive, recommendationSub(sub))
			expensiveSavings += sub.Amount * highCostSavingsRate
		}
	}
	if len(expensive) > 0 {
		resp.Recommendations = append(resp.Recommendations, dto.Recommendation{
			Type:             "review_high_cost",
			Title:            "Review high-cost subscriptions",
			Description:      "Check whether cheaper plans cover what you need.",
			Priority:         "medium",
			PotentialSavings: round2(expensiveSavings),
			Subscriptions:    expensive,
		})
	}

	// Trials about to convert. Queried separately because trials may carry
	// status trial rather than active; end dates already passed still count.
	trialSubs, err := s.subRepo.ListTrialsEndingForUser(userID, now.AddDate(0, 0, trialEndingWindowDays))
	if err != nil {
		return nil, err
	}
	var trials []dto.RecommendationSubscription
	trialCost := 0.0
	for _, sub := range trialSubs {
		trials = append(trials, recommendationSub(sub))
		trialCost += sub.Amount
	}
	if len(trials) > 0 {
		resp.Recommendations = append(resp.Recommendations, dto.Recommendation{
			Type:             "trial_ending",
			Title:            "Trials ending soon",
			Description:      "These trials convert to paid within a week. Cancel the ones you don't want.",
			Priority:         "high",
			PotentialSavings: round2(trialCost),
			Subscriptions:    trials,
		})
	}

	for _, rec := range resp.Recommendations {
		resp.TotalPotentialSavings += rec.PotentialSavings
	}
	resp.TotalPotentialSavings = round2(resp.TotalPotentialSavings)
	return resp, nil
}

// Insights is the dashboard rollup: spending, alert counters and savings
// headroom.
func (s *AnalyticsService) Insights(userID int64) (*dto.InsightsResponse, error) {
	spending, err := s.SpendingSummary(userID)
	if err != nil {
		return nil, err
	}
	alertStats, err := s.alertRepo.Stats(userID)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	unused, err := s.subRepo.ListUnused(userID, now.AddDate(0, 0, -unusedCutoffDays))
	if err != nil {
		return nil, err
	}
	upcoming, err := s.subRepo.ListDueForRenewal(userID, now.AddDate(0, 0, 30))
	if err != nil {
		return nil, err
	}

	return &dto.InsightsResponse{
		Spending: *spending,
		Alerts:   *alertStats,
		Optimization: dto.Optimization{
			UnusedSubscriptions: int64(len(unused)),
			UpcomingRenewals:    int64(len(upcoming)),
			PotentialSavings:    round2(spending.MonthlyTotal * insightsSavingsRate),
		},
	}, nil
}

// FraudMetrics measures triage accuracy over finalized fraud alerts.
func (s *AnalyticsService) FraudMetrics(userID int64) (*dto.FraudMetrics, error) {
	confirmed, err := s.alertRepo.CountByResolution(userID, model.AlertFraud, model.ResolutionConfirmedFraud)
	if err != nil {
		return nil, err
	}
	falsePositives, err := s.alertRepo.CountByResolution(userID, model.AlertFraud, model.ResolutionFalsePositive)
	if err != nil {
		return nil, err
	}

	stats, err := s.alertRepo.Stats(userID)
	if err != nil {
		return nil, err
	}

	metrics := &dto.FraudMetrics{
		TotalAlerts:    stats.Fraud,
		ConfirmedFraud: confirmed,
		FalsePositives: falsePositives,
	}
	if resolved := confirmed + falsePositives; resolved > 0 {
		metrics.Accuracy = round2(float64(confirmed) / float64(resolved))
		metrics.FalsePositiveRate = round2(float64(falsePositives) / float64(resolved))
	}
	return metrics, nil
}

func recommendationSub(sub *model.Subscription) dto.RecommendationSubscription {
	item := dto.RecommendationSubscription{
		ID:       sub.ID,
		Name:     sub.Name,
		Amount:   sub.Amount,
		Category: sub.Category,
	}
	if sub.LastUsed != nil {
		item.LastUsed = sub.LastUsed.Format(time.RFC3339)
	}
	return item
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
