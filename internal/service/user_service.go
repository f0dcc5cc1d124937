package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/pkg/oss"
	"github.com/subguard/subguard_go_server/internal/repository"
)

var (
	ErrInvalidCurrency   = errors.New("unsupported currency")
	ErrInvalidAvatarType = errors.New("unsupported avatar file type")
)

type UserService struct {
	userRepo  *repository.UserRepository
	subRepo   *repository.SubscriptionRepository
	alertRepo *repository.AlertRepository
	ossClient *oss.Client
}

// NewUserService wires the account service. ossClient may be nil when object
// storage is not configured; avatar upload then fails with a clear error.
func NewUserService(
	userRepo *repository.UserRepository,
	subRepo *repository.SubscriptionRepository,
	alertRepo *repository.AlertRepository,
	ossClient *oss.Client,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		subRepo:   subRepo,
		alertRepo: alertRepo,
		ossClient: ossClient,
	}
}

func (s *UserService) GetProfile(userID int64) (*dto.UserProfile, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return buildUserProfile(user), nil
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) (*dto.UserProfile, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Currency != nil {
		currency := model.Currency(*req.Currency)
		if !currency.Valid() {
			return nil, ErrInvalidCurrency
		}
		user.Currency = currency
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return buildUserProfile(user), nil
}

// UploadAvatar stores the image and records its URL on the profile.
func (s *UserService) UploadAvatar(userID int64, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		return "", ErrInvalidAvatarType
	}

	if s.ossClient == nil {
		return "", errors.New("object storage not configured")
	}

	url, err := s.ossClient.UploadAvatar(userID, data, ext)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"avatar_url": url}); err != nil {
		return "", err
	}
	return url, nil
}

// GetNotificationSettings returns the per-channel toggle state.
func (s *UserService) GetNotificationSettings(userID int64) (*dto.NotificationSettings, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	spending := user.EmailSpendingAlerts
	return &dto.NotificationSettings{
		Email: dto.ChannelSettings{
			Enabled:          user.EmailNotificationsEnabled,
			FraudAlerts:      user.EmailFraudAlerts,
			RenewalReminders: user.EmailRenewalReminders,
			SpendingAlerts:   &spending,
		},
		SMS: dto.ChannelSettings{
			Enabled:          user.SMSNotificationsEnabled,
			FraudAlerts:      user.SMSFraudAlerts,
			RenewalReminders: user.SMSRenewalReminders,
		},
		Push: dto.ChannelSettings{
			Enabled:          user.PushNotificationsEnabled,
			FraudAlerts:      user.PushFraudAlerts,
			RenewalReminders: user.PushRenewalReminders,
		},
	}, nil
}

// UpdateNotificationSettings patches individual toggles, leaving the rest
// untouched.
func (s *UserService) UpdateNotificationSettings(userID int64, req *dto.UpdateNotificationSettingsRequest) (*dto.NotificationSettings, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Email != nil {
		applyToggle(&user.EmailNotificationsEnabled, req.Email.Enabled)
		applyToggle(&user.EmailFraudAlerts, req.Email.FraudAlerts)
		applyToggle(&user.EmailRenewalReminders, req.Email.RenewalReminders)
		applyToggle(&user.EmailSpendingAlerts, req.Email.SpendingAlerts)
	}
	if req.SMS != nil {
		applyToggle(&user.SMSNotificationsEnabled, req.SMS.Enabled)
		applyToggle(&user.SMSFraudAlerts, req.SMS.FraudAlerts)
		applyToggle(&user.SMSRenewalReminders, req.SMS.RenewalReminders)
	}
	if req.Push != nil {
		applyToggle(&user.PushNotificationsEnabled, req.Push.Enabled)
		applyToggle(&user.PushFraudAlerts, req.Push.FraudAlerts)
		applyToggle(&user.PushRenewalReminders, req.Push.RenewalReminders)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return s.GetNotificationSettings(userID)
}

func applyToggle(field *bool, value *bool) {
	if value != nil {
		*field = *value
	}
}

// DeleteAccount removes the user and everything they own, children first.
func (s *UserService) DeleteAccount(userID int64) error {
	if _, err := s.userRepo.GetByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.alertRepo.DeleteByUserID(userID); err != nil {
		return err
	}
	if err := s.subRepo.DeleteByUserID(userID); err != nil {
		return err
	}
	return s.userRepo.Delete(userID)
}
