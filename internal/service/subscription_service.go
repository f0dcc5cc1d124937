package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/repository"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidBillingCycle  = errors.New("invalid billing cycle")
	ErrInvalidStatus        = errors.New("invalid subscription status")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidPayment       = errors.New("invalid payment method")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidDate          = errors.New("invalid date format")
)

type SubscriptionService struct {
	subRepo   *repository.SubscriptionRepository
	alertRepo *repository.AlertRepository
	nowFn     func() time.Time
}

func NewSubscriptionService(subRepo *repository.SubscriptionRepository, alertRepo *repository.AlertRepository) *SubscriptionService {
	return &SubscriptionService{
		subRepo:   subRepo,
		alertRepo: alertRepo,
		nowFn:     time.Now,
	}
}

// Create validates and stores a manually entered subscription.
func (s *SubscriptionService) Create(userID int64, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionDetail, error) {
	if req.Amount == nil || *req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	cycle := model.CycleMonthly
	if req.BillingCycle != "" {
		cycle = model.BillingCycle(req.BillingCycle)
		if !cycle.Valid() {
			return nil, ErrInvalidBillingCycle
		}
	}

	status := model.SubStatusActive
	if req.Status != "" {
		status = model.SubscriptionStatus(req.Status)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
	}

	category := "Other"
	if req.Category != "" {
		if !model.ValidCategory(req.Category) {
			return nil, ErrInvalidCategory
		}
		category = req.Category
	}

	currency := model.CurrencyINR
	if req.Currency != "" {
		currency = model.Currency(req.Currency)
		if !currency.Valid() {
			return nil, ErrInvalidCurrency
		}
	}

	payment := model.PaymentOther
	if req.PaymentMethod != "" {
		payment = model.PaymentMethod(req.PaymentMethod)
		if !payment.Valid() {
			return nil, ErrInvalidPayment
		}
	}

	nextBilling, err := time.Parse(time.RFC3339, req.NextBilling)
	if err != nil {
		return nil, ErrInvalidDate
	}

	autoRenew := true
	if req.AutoRenew != nil {
		autoRenew = *req.AutoRenew
	}

	now := s.nowFn()
	sub := &model.Subscription{
		UserID:        userID,
		Name:          req.Name,
		Description:   req.Description,
		Category:      category,
		Merchant:      req.Merchant,
		Amount:        *req.Amount,
		Currency:      currency,
		BillingCycle:  cycle,
		NextBilling:   nextBilling,
		Status:        status,
		StartDate:     now,
		IsTrial:       req.IsTrial,
		AutoRenew:     autoRenew,
		PaymentMethod: payment,
		Tags:          req.Tags,
		Notes:         req.Notes,
		IsRecurring:   true,
		Source:        model.SourceManual,
		Confidence:    1.0,
		UsagePattern:  model.UsageNone,
	}

	if req.TrialEndDate != "" {
		trialEnd, err := time.Parse(time.RFC3339, req.TrialEndDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
		sub.TrialEndDate = &trialEnd
	}

	if err := s.subRepo.Create(sub); err != nil {
		return nil, err
	}

	return s.buildDetail(sub), nil
}

func (s *SubscriptionService) Get(id, userID int64) (*dto.SubscriptionDetail, error) {
	sub, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(sub), nil
}

func (s *SubscriptionService) List(userID int64, filter repository.SubscriptionFilter, page, pageSize int) ([]*dto.SubscriptionDetail, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	subs, total, err := s.subRepo.ListByUser(userID, filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	details := make([]*dto.SubscriptionDetail, 0, len(subs))
	for _, sub := range subs {
		details = append(details, s.buildDetail(sub))
	}
	return details, total, nil
}

// Update patches billing attributes. Lifecycle status changes go through the
// dedicated transitions, not here.
func (s *SubscriptionService) Update(id, userID int64, req *dto.UpdateSubscriptionRequest) (*dto.SubscriptionDetail, error) {
	sub, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		sub.Name = *req.Name
	}
	if req.Description != nil {
		sub.Description = *req.Description
	}
	if req.Merchant != nil {
		sub.Merchant = *req.Merchant
	}
	if req.Category != nil {
		if !model.ValidCategory(*req.Category) {
			return nil, ErrInvalidCategory
		}
		sub.Category = *req.Category
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, ErrInvalidAmount
		}
		sub.Amount = *req.Amount
	}
	if req.Currency != nil {
		currency := model.Currency(*req.Currency)
		if !currency.Valid() {
			return nil, ErrInvalidCurrency
		}
		sub.Currency = currency
	}
	if req.BillingCycle != nil {
		cycle := model.BillingCycle(*req.BillingCycle)
		if !cycle.Valid() {
			return nil, ErrInvalidBillingCycle
		}
		sub.BillingCycle = cycle
	}
	if req.NextBilling != nil {
		nextBilling, err := time.Parse(time.RFC3339, *req.NextBilling)
		if err != nil {
			return nil, ErrInvalidDate
		}
		sub.NextBilling = nextBilling
	}
	if req.AutoRenew != nil {
		sub.AutoRenew = *req.AutoRenew
	}
	if req.PaymentMethod != nil {
		payment := model.PaymentMethod(*req.PaymentMethod)
		if !payment.Valid() {
			return nil, ErrInvalidPayment
		}
		sub.PaymentMethod = payment
	}
	if req.Tags != nil {
		sub.Tags = req.Tags
	}
	if req.Notes != nil {
		sub.Notes = *req.Notes
	}

	if err := s.subRepo.Update(sub); err != nil {
		return nil, err
	}
	return s.buildDetail(sub), nil
}

// Delete removes a subscription. Alerts that referenced it are kept but
// detached so the alert history survives.
func (s *SubscriptionService) Delete(id, userID int64) error {
	if _, err := s.getOwned(id, userID); err != nil {
		return err
	}

	if err := s.alertRepo.ClearSubscriptionRef(id); err != nil {
		return err
	}
	return s.subRepo.Delete(id, userID)
}

// Cancel marks the subscription cancelled. Cancelling twice is a no-op so
// the original end date survives.
func (s *SubscriptionService) Cancel(id, userID int64) (*dto.SubscriptionDetail, error) {
	sub, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}

	sub.Cancel(s.nowFn())
	if err := s.subRepo.Update(sub); err != nil {
		return nil, err
	}
	return s.buildDetail(sub), nil
}

func (s *SubscriptionService) Pause(id, userID int64) (*dto.SubscriptionDetail, error) {
	sub, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}

	sub.Pause()
	if err := s.subRepo.Update(sub); err != nil {
		return nil, err
	}
	return s.buildDetail(sub), nil
}

func (s *SubscriptionService) Reactivate(id, userID int64) (*dto.SubscriptionDetail, error) {
	sub, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}

	sub.Reactivate()
	if err := s.subRepo.Update(sub); err != nil {
		return nil, err
	}
	return s.buildDetail(sub), nil
}

// RecordUsage stamps a usage event and reclassifies the usage pattern.
func (s *SubscriptionService) RecordUsage(id, userID int64) (*dto.SubscriptionDetail, error) {
	sub, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}

	sub.RecordUsage(s.nowFn())
	if err := s.subRepo.Update(sub); err != nil {
		return nil, err
	}
	return s.buildDetail(sub), nil
}

// ListUpcomingRenewals returns active subscriptions billing within `days`.
func (s *SubscriptionService) ListUpcomingRenewals(userID int64, days int) ([]*dto.SubscriptionDetail, error) {
	if days <= 0 {
		days = 7
	}

	now := s.nowFn()
	subs, err := s.subRepo.ListDueForRenewal(userID, now.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}

	details := make([]*dto.SubscriptionDetail, 0, len(subs))
	for _, sub := range subs {
		details = append(details, s.buildDetail(sub))
	}
	return details, nil
}

func (s *SubscriptionService) getOwned(id, userID int64) (*model.Subscription, error) {
	sub, err := s.subRepo.GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) buildDetail(sub *model.Subscription) *dto.SubscriptionDetail {
	now := s.nowFn()
	detail := &dto.SubscriptionDetail{
		ID:               sub.ID,
		Name:             sub.Name,
		Description:      sub.Description,
		Merchant:         sub.Merchant,
		Category:         sub.Category,
		Amount:           sub.Amount,
		Currency:         string(sub.Currency),
		BillingCycle:     string(sub.BillingCycle),
		NextBilling:      sub.NextBilling.Format(time.RFC3339),
		DaysUntilBilling: sub.DaysUntilNextBilling(now),
		Status:           string(sub.Status),
		StartDate:        sub.StartDate.Format(time.RFC3339),
		IsTrial:          sub.IsTrial,
		AutoRenew:        sub.AutoRenew,
		PaymentMethod:    string(sub.PaymentMethod),
		Tags:             sub.Tags,
		UsageCount:       sub.UsageCount,
		UsagePattern:     string(sub.UsagePattern),
		YearlyCost:       sub.ProjectedAnnualCost(),
		Notes:            sub.Notes,
		Source:           string(sub.Source),
		Confidence:       sub.Confidence,
		CreatedAt:        sub.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        sub.UpdatedAt.Format(time.RFC3339),
	}
	if sub.LastBilling != nil {
		detail.LastBilling = sub.LastBilling.Format(time.RFC3339)
	}
	if sub.EndDate != nil {
		detail.EndDate = sub.EndDate.Format(time.RFC3339)
	}
	if sub.TrialEndDate != nil {
		detail.TrialEndDate = sub.TrialEndDate.Format(time.RFC3339)
	}
	if sub.LastUsed != nil {
		detail.LastUsed = sub.LastUsed.Format(time.RFC3339)
	}
	return detail
}
