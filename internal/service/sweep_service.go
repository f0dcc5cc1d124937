package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/subguard/subguard_go_server/config"
	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/pkg/queue"
	"github.com/subguard/subguard_go_server/internal/repository"
)

// SweepStats summarizes one sweep run.
type SweepStats struct {
	BillingAdvanced   int
	Expired           int
	RenewalAlerts     int
	TrialAlerts       int
	UnusedAlerts      int
	PatternsRefreshed int
}

// SweepService runs the periodic maintenance passes: rolling billing dates
// forward, raising renewal/trial/unused alerts and decaying usage patterns.
type SweepService struct {
	subRepo   *repository.SubscriptionRepository
	alertRepo *repository.AlertRepository
	queue     *queue.Queue
	cfg       config.SweepConfig
	nowFn     func() time.Time
}

// NewSweepService wires the sweeper. q may be nil; alerts are then raised
// without queueing notifications.
func NewSweepService(
	subRepo *repository.SubscriptionRepository,
	alertRepo *repository.AlertRepository,
	q *queue.Queue,
	cfg config.SweepConfig,
) *SweepService {
	if cfg.RenewalDays <= 0 {
		cfg.RenewalDays = 3
	}
	if cfg.TrialEndingDays <= 0 {
		cfg.TrialEndingDays = 3
	}
	if cfg.UnusedDays <= 0 {
		cfg.UnusedDays = 30
	}
	return &SweepService{
		subRepo:   subRepo,
		alertRepo: alertRepo,
		queue:     q,
		cfg:       cfg,
		nowFn:     time.Now,
	}
}

// Sweep runs every pass once. Passes are independent; one failing doesn't
// stop the rest.
func (s *SweepService) Sweep(ctx context.Context) SweepStats {
	var stats SweepStats
	var err error

	if stats.BillingAdvanced, err = s.AdvanceOverdueBilling(); err != nil {
		log.Printf("Sweep: billing advance failed: %v", err)
	}
	if stats.Expired, err = s.ExpireLapsed(); err != nil {
		log.Printf("Sweep: expiry failed: %v", err)
	}
	if stats.RenewalAlerts, err = s.RaiseRenewalAlerts(ctx); err != nil {
		log.Printf("Sweep: renewal alerts failed: %v", err)
	}
	if stats.TrialAlerts, err = s.RaiseTrialEndingAlerts(ctx); err != nil {
		log.Printf("Sweep: trial alerts failed: %v", err)
	}
	if stats.UnusedAlerts, stats.PatternsRefreshed, err = s.RefreshUsage(ctx); err != nil {
		log.Printf("Sweep: usage refresh failed: %v", err)
	}
	return stats
}

// AdvanceOverdueBilling rolls auto-renewing subscriptions whose billing date
// has passed forward until the next charge is in the future. A subscription
// that slept through several cycles advances several times.
func (s *SweepService) AdvanceOverdueBilling() (int, error) {
	now := s.nowFn()
	subs, err := s.subRepo.ListOverdueAutoRenew(now)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, sub := range subs {
		for !sub.NextBilling.After(now) {
			sub.AdvanceBilling()
		}
		if err := s.subRepo.Update(sub); err != nil {
			log.Printf("Sweep: failed to advance billing for subscription %d: %v", sub.ID, err)
			continue
		}
		advanced++
	}
	return advanced, nil
}

// ExpireLapsed marks overdue subscriptions with auto-renew off as expired.
// They did not renew, so they are no longer active costs.
func (s *SweepService) ExpireLapsed() (int, error) {
	now := s.nowFn()
	subs, err := s.subRepo.ListOverdueNonRenewing(now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, sub := range subs {
		sub.Expire(now)
		if err := s.subRepo.Update(sub); err != nil {
			log.Printf("Sweep: failed to expire subscription %d: %v", sub.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// RaiseRenewalAlerts alerts on charges coming up inside the renewal window.
// One open renewal alert per subscription; resolved ones allow a new alert
// next cycle.
func (s *SweepService) RaiseRenewalAlerts(ctx context.Context) (int, error) {
	now := s.nowFn()
	subs, err := s.subRepo.ListRenewalsDue(now, now.AddDate(0, 0, s.cfg.RenewalDays))
	if err != nil {
		return 0, err
	}

	created := 0
	for _, sub := range subs {
		days := sub.DaysUntilNextBilling(now)
		alert := &model.Alert{
			UserID:         sub.UserID,
			SubscriptionID: &sub.ID,
			Type:           model.AlertRenewal,
			Severity:       model.SeverityLow,
			Title:          fmt.Sprintf("%s renews in %d days", sub.Name, days),
			Description: fmt.Sprintf("%s will charge %.2f %s on %s. Cancel before then if you no longer need it.",
				sub.Name, sub.Amount, sub.Currency, sub.NextBilling.Format("Jan 2, 2006")),
			Merchant:   sub.Merchant,
			Amount:     &sub.Amount,
			Currency:   sub.Currency,
			Date:       now,
			Status:     model.AlertStatusActive,
			Actions:    model.ActionList{},
			Confidence: 1.0,
			Source:     model.SourceAIDetection,
		}
		ok, err := s.raiseDeduped(ctx, alert, NotifyRenewalReminder)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// RaiseTrialEndingAlerts warns before a trial converts to a paid plan.
func (s *SweepService) RaiseTrialEndingAlerts(ctx context.Context) (int, error) {
	now := s.nowFn()
	subs, err := s.subRepo.ListTrialsEnding(now.AddDate(0, 0, s.cfg.TrialEndingDays))
	if err != nil {
		return 0, err
	}

	created := 0
	for _, sub := range subs {
		if sub.TrialEndDate == nil || sub.TrialEndDate.Before(now) {
			continue
		}
		days := model.DaysUntil(now, *sub.TrialEndDate)
		alert := &model.Alert{
			UserID:         sub.UserID,
			SubscriptionID: &sub.ID,
			Type:           model.AlertTrialEnding,
			Severity:       model.SeverityMedium,
			Title:          fmt.Sprintf("%s trial ends in %d days", sub.Name, days),
			Description: fmt.Sprintf("Your %s trial ends on %s and will convert to %.2f %s per %s.",
				sub.Name, sub.TrialEndDate.Format("Jan 2, 2006"), sub.Amount, sub.Currency, sub.BillingCycle),
			Merchant:   sub.Merchant,
			Amount:     &sub.Amount,
			Currency:   sub.Currency,
			Date:       now,
			Status:     model.AlertStatusActive,
			Actions:    model.ActionList{},
			Confidence: 1.0,
			Source:     model.SourceAIDetection,
		}
		ok, err := s.raiseDeduped(ctx, alert, NotifyTrialEnding)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// RefreshUsage walks every active subscription, reclassifies its usage
// pattern and raises an unused alert for the ones nobody has touched in the
// unused window. Returns (alerts created, patterns changed).
func (s *SweepService) RefreshUsage(ctx context.Context) (int, int, error) {
	now := s.nowFn()
	subs, err := s.subRepo.ListAllActive()
	if err != nil {
		return 0, 0, err
	}

	cutoff := now.AddDate(0, 0, -s.cfg.UnusedDays)
	alerts := 0
	refreshed := 0
	for _, sub := range subs {
		before := sub.UsagePattern
		sub.RefreshUsagePattern(now)
		if sub.UsagePattern != before {
			if err := s.subRepo.Update(sub); err != nil {
				log.Printf("Sweep: failed to refresh usage for subscription %d: %v", sub.ID, err)
			} else {
				refreshed++
			}
		}

		idle := sub.LastUsed == nil && sub.CreatedAt.Before(cutoff) ||
			sub.LastUsed != nil && sub.LastUsed.Before(cutoff)
		if !idle {
			continue
		}

		alert := &model.Alert{
			UserID:         sub.UserID,
			SubscriptionID: &sub.ID,
			Type:           model.AlertUnused,
			Severity:       model.SeverityLow,
			Title:          fmt.Sprintf("%s looks unused", sub.Name),
			Description: fmt.Sprintf("You haven't used %s in over %d days but it still costs %.2f %s per %s.",
				sub.Name, s.cfg.UnusedDays, sub.Amount, sub.Currency, sub.BillingCycle),
			Merchant:   sub.Merchant,
			Amount:     &sub.Amount,
			Currency:   sub.Currency,
			Date:       now,
			Status:     model.AlertStatusActive,
			Actions:    model.ActionList{},
			Confidence: 0.9,
			Source:     model.SourceAIDetection,
		}
		ok, err := s.raiseDeduped(ctx, alert, NotifyUnusedDetected)
		if err != nil {
			return alerts, refreshed, err
		}
		if ok {
			alerts++
		}
	}
	return alerts, refreshed, nil
}

// raiseDeduped creates the alert unless the subscription already carries an
// open alert of the same type, then queues a notification for it.
func (s *SweepService) raiseDeduped(ctx context.Context, alert *model.Alert, notifyType string) (bool, error) {
	exists, err := s.alertRepo.ExistsActiveForSubscription(alert.UserID, *alert.SubscriptionID, alert.Type)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := s.alertRepo.Create(alert); err != nil {
		return false, err
	}

	if s.queue != nil {
		msg := &queue.NotificationMessage{
			UserID:  alert.UserID,
			AlertID: alert.ID,
			Type:    notifyType,
			Title:   alert.Title,
			Message: alert.Description,
		}
		if err := s.queue.Push(ctx, msg); err != nil {
			log.Printf("Sweep: failed to queue notification for alert %d: %v", alert.ID, err)
		}
	}
	return true, nil
}
