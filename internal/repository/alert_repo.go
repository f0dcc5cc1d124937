package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
)

// AlertFilter narrows list queries. Zero values mean "no filter".
type AlertFilter struct {
	Type       model.AlertType
	Status     model.AlertStatus
	Severity   model.AlertSeverity
	UnreadOnly bool
}

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(alert *model.Alert) error {
	return r.db.Create(alert).Error
}

func (r *AlertRepository) GetByIDForUser(id, userID int64) (*model.Alert, error) {
	var alert model.Alert
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *AlertRepository) ListByUser(userID int64, filter AlertFilter, page, pageSize int) ([]*model.Alert, int64, error) {
	var alerts []*model.Alert
	var total int64

	query := r.db.Model(&model.Alert{}).Where("user_id = ?", userID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("date DESC").Offset(offset).Limit(pageSize).Find(&alerts).Error
	return alerts, total, err
}

func (r *AlertRepository) Update(alert *model.Alert) error {
	return r.db.Save(alert).Error
}

// UpdateWithVersion persists a workflow transition only if nobody else has
// transitioned the alert since it was read. Returns gorm.ErrRecordNotFound
// style behavior via RowsAffected: the caller treats 0 rows as a conflict.
func (r *AlertRepository) UpdateWithVersion(alert *model.Alert, expectedVersion int64) (int64, error) {
	alert.Version = expectedVersion + 1
	result := r.db.Model(&model.Alert{}).
		Where("id = ? AND version = ?", alert.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":      alert.Status,
			"resolution":  alert.Resolution,
			"resolved_at": alert.ResolvedAt,
			"resolved_by": alert.ResolvedBy,
			"actions":     alert.Actions,
			"version":     alert.Version,
		})
	return result.RowsAffected, result.Error
}

// Stats computes the per-user alert counters in one pass per predicate.
func (r *AlertRepository) Stats(userID int64) (*dto.AlertStats, error) {
	stats := &dto.AlertStats{}
	base := func() *gorm.DB {
		return r.db.Model(&model.Alert{}).Where("user_id = ?", userID)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status IN ?", []model.AlertStatus{
		model.AlertStatusActive, model.AlertStatusInvestigating,
	}).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", model.AlertStatusResolved).Count(&stats.Resolved).Error; err != nil {
		return nil, err
	}
	if err := base().Where("type = ?", model.AlertFraud).Count(&stats.Fraud).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_read = ?", false).Count(&stats.Unread).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// CountHighPriority counts open alerts at high or critical severity.
func (r *AlertRepository) CountHighPriority(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Alert{}).
		Where("user_id = ? AND status IN ? AND severity IN ?",
			userID,
			[]model.AlertStatus{model.AlertStatusActive, model.AlertStatusInvestigating},
			[]model.AlertSeverity{model.SeverityHigh, model.SeverityCritical}).
		Count(&count).Error
	return count, err
}

// CountByResolution counts a user's alerts of one type finalized with the
// given resolution. Fraud metrics are built on this.
func (r *AlertRepository) CountByResolution(userID int64, alertType model.AlertType, resolution model.Resolution) (int64, error) {
	var count int64
	err := r.db.Model(&model.Alert{}).
		Where("user_id = ? AND type = ? AND resolution = ?", userID, alertType, resolution).
		Count(&count).Error
	return count, err
}

func (r *AlertRepository) MarkAllRead(userID int64, now time.Time) (int64, error) {
	result := r.db.Model(&model.Alert{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	return result.RowsAffected, result.Error
}

// ClearSubscriptionRef detaches alerts from a deleted subscription so the
// alert history survives.
func (r *AlertRepository) ClearSubscriptionRef(subscriptionID int64) error {
	return r.db.Model(&model.Alert{}).
		Where("subscription_id = ?", subscriptionID).
		Update("subscription_id", nil).Error
}

// ExistsByTransactionID dedupes ingestion: one alert per bank transaction.
func (r *AlertRepository) ExistsByTransactionID(userID int64, transactionID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Alert{}).
		Where("user_id = ? AND transaction_id = ?", userID, transactionID).
		Count(&count).Error
	return count > 0, err
}

// ExistsActiveForSubscription dedupes sweeper alerts: one open alert of a type
// per subscription.
func (r *AlertRepository) ExistsActiveForSubscription(userID, subscriptionID int64, alertType model.AlertType) (bool, error) {
	var count int64
	err := r.db.Model(&model.Alert{}).
		Where("user_id = ? AND subscription_id = ? AND type = ? AND status IN ?",
			userID, subscriptionID, alertType,
			[]model.AlertStatus{model.AlertStatusActive, model.AlertStatusInvestigating}).
		Count(&count).Error
	return count > 0, err
}

// UpdateNotificationState records which channels delivered for an alert.
// Flags only ever flip forward, so successes are merged with OR semantics.
func (r *AlertRepository) UpdateNotificationState(id int64, emailSent, smsSent, pushSent bool, now time.Time) error {
	updates := map[string]interface{}{"last_notification_sent": now}
	if emailSent {
		updates["email_sent"] = true
	}
	if smsSent {
		updates["sms_sent"] = true
	}
	if pushSent {
		updates["push_sent"] = true
	}
	return r.db.Model(&model.Alert{}).Where("id = ?", id).Updates(updates).Error
}

func (r *AlertRepository) DeleteByUserID(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.Alert{}).Error
}
