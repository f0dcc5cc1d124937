package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/internal/model"
)

// SubscriptionFilter narrows list queries. Zero values mean "no filter".
type SubscriptionFilter struct {
	Status   model.SubscriptionStatus
	Category string
	SortBy   string // created_at, amount, name, next_billing
	SortDesc bool
}

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

// GetByIDForUser scopes the lookup to the owner so one user can never read
// another user's subscription.
func (r *SubscriptionRepository) GetByIDForUser(id, userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) ListByUser(userID int64, filter SubscriptionFilter, page, pageSize int) ([]*model.Subscription, int64, error) {
	var subs []*model.Subscription
	var total int64

	query := r.db.Model(&model.Subscription{}).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := sortClause(filter.SortBy, filter.SortDesc)
	offset := (page - 1) * pageSize
	err := query.Order(order).Offset(offset).Limit(pageSize).Find(&subs).Error
	return subs, total, err
}

func sortClause(sortBy string, desc bool) string {
	switch sortBy {
	case "amount", "name", "next_billing", "created_at":
	default:
		sortBy = "created_at"
		desc = true
	}
	if desc {
		return sortBy + " DESC"
	}
	return sortBy + " ASC"
}

func (r *SubscriptionRepository) Update(sub *model.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *SubscriptionRepository) Delete(id, userID int64) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Subscription{}).Error
}

// ListActive returns all of a user's active subscriptions, the working set for
// every spending aggregate.
func (r *SubscriptionRepository) ListActive(userID int64) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("user_id = ? AND status = ?", userID, model.SubStatusActive).
		Order("created_at ASC").Find(&subs).Error
	return subs, err
}

// ListDueForRenewal returns active subscriptions whose next charge lands on or
// before the cutoff.
func (r *SubscriptionRepository) ListDueForRenewal(userID int64, before time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("user_id = ? AND status = ? AND next_billing <= ?",
		userID, model.SubStatusActive, before).
		Order("next_billing ASC").Find(&subs).Error
	return subs, err
}

// ListUnused returns active subscriptions not used since the cutoff, including
// ones never used at all.
func (r *SubscriptionRepository) ListUnused(userID int64, cutoff time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("user_id = ? AND status = ? AND (last_used IS NULL OR last_used < ?)",
		userID, model.SubStatusActive, cutoff).
		Order("amount DESC").Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) CountByStatus(userID int64, status model.SubscriptionStatus) (int64, error) {
	var count int64
	err := r.db.Model(&model.Subscription{}).
		Where("user_id = ? AND status = ?", userID, status).Count(&count).Error
	return count, err
}

func (r *SubscriptionRepository) CountActiveWithUsagePattern(userID int64, pattern model.UsagePattern) (int64, error) {
	var count int64
	err := r.db.Model(&model.Subscription{}).
		Where("user_id = ? AND status = ? AND usage_pattern = ?",
			userID, model.SubStatusActive, pattern).Count(&count).Error
	return count, err
}

// ListOverdueAutoRenew returns auto-renewing active subscriptions across all
// users whose billing date has passed. The sweeper advances these.
func (r *SubscriptionRepository) ListOverdueAutoRenew(now time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("status = ? AND auto_renew = ? AND next_billing <= ?",
		model.SubStatusActive, true, now).
		Order("next_billing ASC").Find(&subs).Error
	return subs, err
}

// ListOverdueNonRenewing returns active subscriptions across all users whose
// billing date has passed with auto-renew off. The sweeper expires these.
func (r *SubscriptionRepository) ListOverdueNonRenewing(now time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("status = ? AND auto_renew = ? AND next_billing <= ?",
		model.SubStatusActive, false, now).
		Order("next_billing ASC").Find(&subs).Error
	return subs, err
}

// ListTrialsEnding returns trials across all users ending on or before the
// cutoff and not yet finished.
func (r *SubscriptionRepository) ListTrialsEnding(before time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("is_trial = ? AND trial_end_date IS NOT NULL AND trial_end_date <= ? AND status IN ?",
		true, before, []model.SubscriptionStatus{model.SubStatusActive, model.SubStatusTrial}).
		Order("trial_end_date ASC").Find(&subs).Error
	return subs, err
}

// ListTrialsEndingForUser returns one user's unfinished trials ending on or
// before the cutoff, including trials whose end date already passed.
func (r *SubscriptionRepository) ListTrialsEndingForUser(userID int64, before time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("user_id = ? AND is_trial = ? AND trial_end_date IS NOT NULL AND trial_end_date <= ? AND status IN ?",
		userID, true, before, []model.SubscriptionStatus{model.SubStatusActive, model.SubStatusTrial}).
		Order("trial_end_date ASC").Find(&subs).Error
	return subs, err
}

// ListRenewalsDue returns active subscriptions across all users billing within
// the window. The sweeper raises renewal alerts for these.
func (r *SubscriptionRepository) ListRenewalsDue(from, to time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("status = ? AND next_billing > ? AND next_billing <= ?",
		model.SubStatusActive, from, to).
		Order("next_billing ASC").Find(&subs).Error
	return subs, err
}

// ListAllActive returns every active subscription, used by the sweeper to
// refresh usage patterns.
func (r *SubscriptionRepository) ListAllActive() ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.Where("status = ?", model.SubStatusActive).Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) DeleteByUserID(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.Subscription{}).Error
}
