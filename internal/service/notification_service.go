package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/pkg/queue"
	"github.com/subguard/subguard_go_server/internal/pkg/ws"
	"github.com/subguard/subguard_go_server/internal/repository"
)

var (
	ErrInvalidNotifyType = errors.New("invalid notification type")
	ErrInvalidChannel    = errors.New("invalid notification channel")
)

// Notification event types routed through the dispatch policy.
const (
	NotifyFraudAlert      = "fraud_alert"
	NotifyRenewalReminder = "renewal_reminder"
	NotifySpendingAlert   = "spending_alert"
	NotifyTrialEnding     = "trial_ending"
	NotifyUnusedDetected  = "unused_detected"
	NotifyTest            = "test"
)

// EmailSender is what the dispatcher needs from the mail layer.
type EmailSender interface {
	SendAlert(to, name, title, message, severity string) error
	SendTest(to, name string) error
}

// SMSSender is what the dispatcher needs from the SMS layer.
type SMSSender interface {
	SendAlert(to, title, message string) (string, error)
	SendTest(to string) (string, error)
}

// NotificationService fans one event out across email, SMS and push. Each
// channel decides independently and failures never affect the others.
type NotificationService struct {
	userRepo       *repository.UserRepository
	alertRepo      *repository.AlertRepository
	emailSender    EmailSender
	smsSender      SMSSender
	hub            *ws.Hub
	queue          *queue.Queue
	channelTimeout time.Duration
	nowFn          func() time.Time
}

// NewNotificationService wires the dispatcher. Any of emailSender, smsSender,
// hub or q may be nil; the matching channel then reports itself unavailable
// instead of failing the dispatch.
func NewNotificationService(
	userRepo *repository.UserRepository,
	alertRepo *repository.AlertRepository,
	emailSender EmailSender,
	smsSender SMSSender,
	hub *ws.Hub,
	q *queue.Queue,
	channelTimeoutSeconds int,
) *NotificationService {
	if channelTimeoutSeconds <= 0 {
		channelTimeoutSeconds = 10
	}
	return &NotificationService{
		userRepo:       userRepo,
		alertRepo:      alertRepo,
		emailSender:    emailSender,
		smsSender:      smsSender,
		hub:            hub,
		queue:          q,
		channelTimeout: time.Duration(channelTimeoutSeconds) * time.Second,
		nowFn:          time.Now,
	}
}

func validNotifyType(t string) bool {
	switch t {
	case NotifyFraudAlert, NotifyRenewalReminder, NotifySpendingAlert,
		NotifyTrialEnding, NotifyUnusedDetected, NotifyTest:
		return true
	}
	return false
}

// Dispatch runs the three channels concurrently, each under its own timeout,
// and returns every outcome. When the event references an alert, the alert's
// sent flags are stamped afterwards so repeats can be suppressed.
func (s *NotificationService) Dispatch(ctx context.Context, userID int64, req *dto.SendNotificationRequest) (*dto.DispatchResponse, error) {
	if !validNotifyType(req.Type) {
		return nil, ErrInvalidNotifyType
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	severity := string(model.SeverityMedium)
	if req.AlertID != nil {
		alert, err := s.alertRepo.GetByIDForUser(*req.AlertID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAlertNotFound
			}
			return nil, err
		}
		severity = string(alert.Severity)
	}

	results := make([]dto.ChannelResult, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		results[0] = s.dispatchEmail(ctx, user, req, severity)
	}()
	go func() {
		defer wg.Done()
		results[1] = s.dispatchSMS(ctx, user, req)
	}()
	go func() {
		defer wg.Done()
		results[2] = s.dispatchPush(user, req)
	}()
	wg.Wait()

	if req.AlertID != nil {
		// lastNotificationSent records the attempt even when every channel
		// skipped or failed; only the sent flags require a success.
		if err := s.alertRepo.UpdateNotificationState(*req.AlertID,
			results[0].Success, results[1].Success, results[2].Success, s.nowFn()); err != nil {
			log.Printf("failed to record notification state for alert %d: %v", *req.AlertID, err)
		}
	}

	return &dto.DispatchResponse{Results: results}, nil
}

// Enqueue defers a dispatch to the worker via the redis queue.
func (s *NotificationService) Enqueue(ctx context.Context, userID int64, req *dto.SendNotificationRequest) error {
	if !validNotifyType(req.Type) {
		return ErrInvalidNotifyType
	}
	if s.queue == nil {
		return errors.New("notification queue not configured")
	}

	msg := &queue.NotificationMessage{
		UserID:  userID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
	}
	if req.AlertID != nil {
		msg.AlertID = *req.AlertID
	}
	return s.queue.Push(ctx, msg)
}

// SendTest pushes a verification message through exactly one channel,
// bypassing the per-type toggles but not the channel switches.
func (s *NotificationService) SendTest(ctx context.Context, userID int64, channel string) (*dto.ChannelResult, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var result dto.ChannelResult
	switch channel {
	case "email":
		if s.emailSender == nil {
			result = skipped("email", "email not configured")
			break
		}
		if !user.EmailNotificationsEnabled {
			result = skipped("email", "email notifications disabled")
			break
		}
		result = s.runWithTimeout(ctx, "email", func() (string, error) {
			return "", s.emailSender.SendTest(user.Email, user.FirstName)
		})
	case "sms":
		if s.smsSender == nil {
			result = skipped("sms", "sms not configured")
			break
		}
		if !user.SMSNotificationsEnabled {
			result = skipped("sms", "sms notifications disabled")
			break
		}
		if user.Phone == "" {
			result = skipped("sms", "no phone number on profile")
			break
		}
		result = s.runWithTimeout(ctx, "sms", func() (string, error) {
			return s.smsSender.SendTest(user.Phone)
		})
	case "push":
		result = s.dispatchPush(user, &dto.SendNotificationRequest{
			Type:    NotifyTest,
			Title:   "Test notification",
			Message: "Push notifications are working.",
		})
	default:
		return nil, ErrInvalidChannel
	}

	return &result, nil
}

func (s *NotificationService) dispatchEmail(ctx context.Context, user *model.User, req *dto.SendNotificationRequest, severity string) dto.ChannelResult {
	if s.emailSender == nil {
		return skipped("email", "email not configured")
	}
	if !user.EmailNotificationsEnabled {
		return skipped("email", "email notifications disabled")
	}
	if reason := emailTypeBlocked(user, req.Type); reason != "" {
		return skipped("email", reason)
	}

	return s.runWithTimeout(ctx, "email", func() (string, error) {
		return "", s.emailSender.SendAlert(user.Email, user.FirstName, req.Title, req.Message, severity)
	})
}

func (s *NotificationService) dispatchSMS(ctx context.Context, user *model.User, req *dto.SendNotificationRequest) dto.ChannelResult {
	if s.smsSender == nil {
		return skipped("sms", "sms not configured")
	}
	if !user.SMSNotificationsEnabled {
		return skipped("sms", "sms notifications disabled")
	}
	if user.Phone == "" {
		return skipped("sms", "no phone number on profile")
	}
	if reason := smsTypeBlocked(user, req.Type); reason != "" {
		return skipped("sms", reason)
	}

	return s.runWithTimeout(ctx, "sms", func() (string, error) {
		return s.smsSender.SendAlert(user.Phone, req.Title, req.Message)
	})
}

func (s *NotificationService) dispatchPush(user *model.User, req *dto.SendNotificationRequest) dto.ChannelResult {
	if s.hub == nil {
		return skipped("push", "push not configured")
	}
	if !user.PushNotificationsEnabled {
		return skipped("push", "push notifications disabled")
	}
	if reason := pushTypeBlocked(user, req.Type); reason != "" {
		return skipped("push", reason)
	}
	if !s.hub.IsOnline(user.ID) {
		return skipped("push", "user has no active connection")
	}

	payload := map[string]interface{}{
		"notification_type": req.Type,
		"title":             req.Title,
		"message":           req.Message,
	}
	if req.AlertID != nil {
		payload["alert_id"] = *req.AlertID
	}
	if err := s.hub.SendToUser(user.ID, &ws.Message{Type: "notification", Data: payload}); err != nil {
		return dto.ChannelResult{Channel: "push", Error: err.Error()}
	}
	return dto.ChannelResult{Channel: "push", Success: true}
}

// Per-type toggles. Types without a dedicated toggle fall back to the fraud
// toggle since they all signal something needing attention.
func emailTypeBlocked(user *model.User, notifType string) string {
	switch notifType {
	case NotifyRenewalReminder, NotifyTrialEnding:
		if !user.EmailRenewalReminders {
			return "renewal reminder emails disabled"
		}
	case NotifySpendingAlert:
		if !user.EmailSpendingAlerts {
			return "spending alert emails disabled"
		}
	case NotifyTest:
	default:
		if !user.EmailFraudAlerts {
			return "fraud alert emails disabled"
		}
	}
	return ""
}

func smsTypeBlocked(user *model.User, notifType string) string {
	switch notifType {
	case NotifyRenewalReminder, NotifyTrialEnding:
		if !user.SMSRenewalReminders {
			return "renewal reminder sms disabled"
		}
	case NotifySpendingAlert:
		return "spending alerts not sent over sms"
	case NotifyTest:
	default:
		if !user.SMSFraudAlerts {
			return "fraud alert sms disabled"
		}
	}
	return ""
}

func pushTypeBlocked(user *model.User, notifType string) string {
	switch notifType {
	case NotifyRenewalReminder, NotifyTrialEnding:
		if !user.PushRenewalReminders {
			return "renewal reminder push disabled"
		}
	case NotifyTest, NotifySpendingAlert:
	default:
		if !user.PushFraudAlerts {
			return "fraud alert push disabled"
		}
	}
	return ""
}

// runWithTimeout executes one provider call with the channel deadline. A
// timed-out call is abandoned, not cancelled; smtp and http providers carry
// their own inner timeouts.
func (s *NotificationService) runWithTimeout(ctx context.Context, channel string, send func() (string, error)) dto.ChannelResult {
	type outcome struct {
		id  string
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		id, err := send()
		done <- outcome{id: id, err: err}
	}()

	timer := time.NewTimer(s.channelTimeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return dto.ChannelResult{Channel: channel, Error: out.err.Error()}
		}
		return dto.ChannelResult{Channel: channel, Success: true, MessageID: out.id}
	case <-timer.C:
		return dto.ChannelResult{Channel: channel, Error: fmt.Sprintf("%s dispatch timed out after %s", channel, s.channelTimeout)}
	case <-ctx.Done():
		return dto.ChannelResult{Channel: channel, Error: ctx.Err().Error()}
	}
}

func skipped(channel, reason string) dto.ChannelResult {
	return dto.ChannelResult{Channel: channel, Skipped: true, Reason: reason}
}
