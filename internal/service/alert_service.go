package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/pkg/pubsub"
	"github.com/subguard/subguard_go_server/internal/repository"
)

var (
	ErrAlertNotFound     = errors.New("alert not found")
	ErrAlertConflict     = errors.New("alert was modified concurrently")
	ErrInvalidAlertType  = errors.New("invalid alert type")
	ErrInvalidSeverity   = errors.New("invalid severity")
	ErrDuplicateAlert    = errors.New("alert already exists for this transaction")
	ErrInvalidResolution = model.ErrInvalidResolution
	ErrAlertFinalized    = model.ErrAlertFinalized
)

type AlertService struct {
	alertRepo *repository.AlertRepository
	subRepo   *repository.SubscriptionRepository
	publisher *pubsub.Publisher
	nowFn     func() time.Time
}

// NewAlertService wires the alert workflow. publisher may be nil; push
// events are then skipped.
func NewAlertService(alertRepo *repository.AlertRepository, subRepo *repository.SubscriptionRepository, publisher *pubsub.Publisher) *AlertService {
	return &AlertService{
		alertRepo: alertRepo,
		subRepo:   subRepo,
		publisher: publisher,
		nowFn:     time.Now,
	}
}

// Create validates and stores an alert, deduping on transaction id.
func (s *AlertService) Create(ctx context.Context, userID int64, req *dto.CreateAlertRequest) (*dto.AlertDetail, error) {
	alertType := model.AlertType(req.Type)
	if !alertType.Valid() {
		return nil, ErrInvalidAlertType
	}

	severity := model.SeverityMedium
	if req.Severity != "" {
		severity = model.AlertSeverity(req.Severity)
		if !severity.Valid() {
			return nil, ErrInvalidSeverity
		}
	}

	currency := model.CurrencyINR
	if req.Currency != "" {
		currency = model.Currency(req.Currency)
		if !currency.Valid() {
			return nil, ErrInvalidCurrency
		}
	}

	source := model.SourceAIDetection
	if req.Source != "" {
		source = model.RecordSource(req.Source)
	}

	if req.TransactionID != "" {
		exists, err := s.alertRepo.ExistsByTransactionID(userID, req.TransactionID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateAlert
		}
	}

	if req.SubscriptionID != nil {
		if _, err := s.subRepo.GetByIDForUser(*req.SubscriptionID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSubscriptionNotFound
			}
			return nil, err
		}
	}

	now := s.nowFn()
	date := now
	if req.Date != "" {
		parsed, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		date = parsed
	}

	confidence := 0.8
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	alert := &model.Alert{
		UserID:         userID,
		SubscriptionID: req.SubscriptionID,
		Type:           alertType,
		Severity:       severity,
		Title:          req.Title,
		Description:    req.Description,
		Merchant:       req.Merchant,
		Amount:         req.Amount,
		Currency:       currency,
		Date:           date,
		Status:         model.AlertStatusActive,
		Actions:        model.ActionList{},
		Confidence:     confidence,
		Source:         source,
		TransactionID:  req.TransactionID,
		Tags:           req.Tags,
	}

	if req.TransactionDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.TransactionDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
		alert.TransactionDate = &parsed
	}

	if err := s.alertRepo.Create(alert); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, pubsub.EventAlertCreated, alert)

	return s.buildDetail(alert), nil
}

func (s *AlertService) Get(id, userID int64) (*dto.AlertDetail, error) {
	alert, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(alert), nil
}

func (s *AlertService) List(userID int64, filter repository.AlertFilter, page, pageSize int) ([]*dto.AlertDetail, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	alerts, total, err := s.alertRepo.ListByUser(userID, filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	details := make([]*dto.AlertDetail, 0, len(alerts))
	for _, alert := range alerts {
		details = append(details, s.buildDetail(alert))
	}
	return details, total, nil
}

// Update patches content fields. Workflow state never moves through here.
func (s *AlertService) Update(ctx context.Context, id, userID int64, req *dto.UpdateAlertRequest) (*dto.AlertDetail, error) {
	alert, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}

	if req.Severity != nil {
		severity := model.AlertSeverity(*req.Severity)
		if !severity.Valid() {
			return nil, ErrInvalidSeverity
		}
		alert.Severity = severity
	}
	if req.Title != nil {
		alert.Title = *req.Title
	}
	if req.Description != nil {
		alert.Description = *req.Description
	}
	if req.Merchant != nil {
		alert.Merchant = *req.Merchant
	}
	if req.Amount != nil {
		alert.Amount = req.Amount
	}
	if req.Tags != nil {
		alert.Tags = req.Tags
	}

	if err := s.alertRepo.Update(alert); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, pubsub.EventAlertUpdated, alert)

	return s.buildDetail(alert), nil
}

// Resolve finalizes an alert. The persist is guarded by the version the
// alert was read at, so two concurrent resolutions can't both win.
func (s *AlertService) Resolve(ctx context.Context, id, userID int64, req *dto.ResolveAlertRequest) (*dto.AlertDetail, error) {
	alert, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}
	version := alert.Version

	if err := alert.Resolve(userID, model.Resolution(req.Resolution), s.nowFn(), req.Notes); err != nil {
		return nil, err
	}

	if err := s.persistTransition(alert, version); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, pubsub.EventAlertResolved, alert)

	return s.buildDetail(alert), nil
}

// Ignore finalizes an alert with the reserved "ignored" resolution.
func (s *AlertService) Ignore(ctx context.Context, id, userID int64, notes string) (*dto.AlertDetail, error) {
	alert, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}
	version := alert.Version

	if err := alert.Ignore(userID, s.nowFn(), notes); err != nil {
		return nil, err
	}

	if err := s.persistTransition(alert, version); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, pubsub.EventAlertResolved, alert)

	return s.buildDetail(alert), nil
}

// Investigate moves an alert into the investigating state.
func (s *AlertService) Investigate(ctx context.Context, id, userID int64, notes string) (*dto.AlertDetail, error) {
	alert, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}
	version := alert.Version

	if err := alert.StartInvestigation(userID, s.nowFn(), notes); err != nil {
		return nil, err
	}

	if err := s.persistTransition(alert, version); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, pubsub.EventAlertUpdated, alert)

	return s.buildDetail(alert), nil
}

// AddAction appends a manual audit entry without changing status.
func (s *AlertService) AddAction(id, userID int64, req *dto.AddActionRequest) (*dto.AlertDetail, error) {
	alert, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}
	version := alert.Version

	alert.AddAction(req.Action, userID, s.nowFn(), req.Notes)

	if err := s.persistTransition(alert, version); err != nil {
		return nil, err
	}
	return s.buildDetail(alert), nil
}

// MarkRead flips the read flag; read state is independent of workflow.
func (s *AlertService) MarkRead(id, userID int64) (*dto.AlertDetail, error) {
	alert, err := s.getOwned(id, userID)
	if err != nil {
		return nil, err
	}

	alert.MarkRead(s.nowFn())
	if err := s.alertRepo.Update(alert); err != nil {
		return nil, err
	}
	return s.buildDetail(alert), nil
}

func (s *AlertService) MarkAllRead(userID int64) (int64, error) {
	return s.alertRepo.MarkAllRead(userID, s.nowFn())
}

// Stats returns the summary counters plus the open high-priority count.
func (s *AlertService) Stats(userID int64) (*dto.AlertStatsResponse, error) {
	stats, err := s.alertRepo.Stats(userID)
	if err != nil {
		return nil, err
	}
	highPriority, err := s.alertRepo.CountHighPriority(userID)
	if err != nil {
		return nil, err
	}
	return &dto.AlertStatsResponse{
		Summary:      *stats,
		HighPriority: highPriority,
	}, nil
}

func (s *AlertService) getOwned(id, userID int64) (*model.Alert, error) {
	alert, err := s.alertRepo.GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

func (s *AlertService) persistTransition(alert *model.Alert, expectedVersion int64) error {
	rows, err := s.alertRepo.UpdateWithVersion(alert, expectedVersion)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlertConflict
	}
	return nil
}

func (s *AlertService) publishEvent(ctx context.Context, eventType string, alert *model.Alert) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishAlertEvent(ctx, &pubsub.AlertEvent{
		Type:     eventType,
		UserID:   alert.UserID,
		AlertID:  alert.ID,
		Severity: string(alert.Severity),
		Title:    alert.Title,
		Message:  alert.Description,
	})
	if err != nil {
		log.Printf("Failed to publish alert event: %v", err)
	}
}

func (s *AlertService) buildDetail(alert *model.Alert) *dto.AlertDetail {
	now := s.nowFn()
	detail := &dto.AlertDetail{
		ID:             alert.ID,
		SubscriptionID: alert.SubscriptionID,
		Type:           string(alert.Type),
		Severity:       string(alert.Severity),
		Title:          alert.Title,
		Description:    alert.Description,
		Merchant:       alert.Merchant,
		Amount:         alert.Amount,
		Currency:       string(alert.Currency),
		Date:           alert.Date.Format(time.RFC3339),
		Status:         string(alert.Status),
		Resolution:     string(alert.Resolution),
		ResolvedBy:     alert.ResolvedBy,
		Actions:        make([]dto.AlertActionItem, 0, len(alert.Actions)),
		Confidence:     alert.Confidence,
		Source:         string(alert.Source),
		IsUrgent:       alert.IsUrgent(now),
		AgeInDays:      alert.AgeInDays(now),
		EmailSent:      alert.EmailSent,
		SMSSent:        alert.SMSSent,
		PushSent:       alert.PushSent,
		Tags:           alert.Tags,
		IsRead:         alert.IsRead,
		CreatedAt:      alert.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      alert.UpdatedAt.Format(time.RFC3339),
	}
	for _, action := range alert.Actions {
		item := dto.AlertActionItem{
			Action:      action.Action,
			PerformedBy: action.PerformedBy,
			PerformedAt: action.PerformedAt.Format(time.RFC3339),
			Notes:       action.Notes,
		}
		detail.Actions = append(detail.Actions, item)
	}
	if alert.TransactionDate != nil {
		detail.TransactionDate = alert.TransactionDate.Format(time.RFC3339)
	}
	if alert.ResolvedAt != nil {
		detail.ResolvedAt = alert.ResolvedAt.Format(time.RFC3339)
	}
	if alert.LastNotificationSent != nil {
		detail.LastNotificationSent = alert.LastNotificationSent.Format(time.RFC3339)
	}
	if alert.ReadAt != nil {
		detail.ReadAt = alert.ReadAt.Format(time.RFC3339)
	}
	return detail
}
