package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/subguard/subguard_go_server/internal/model"
	"github.com/subguard/subguard_go_server/internal/model/dto"
	"github.com/subguard/subguard_go_server/internal/pkg/oauth"
	"github.com/subguard/subguard_go_server/internal/repository"
)

var (
	ErrGmailNotConfigured = errors.New("gmail integration not configured")
	ErrGmailNotConnected  = errors.New("gmail account not connected")
)

// Query used to pull likely payment mail out of the inbox.
const gmailSyncQuery = "subscription OR receipt OR payment OR renewal"

// amountPattern matches "₹499", "Rs. 1,299.00", "INR 99" and "$9.99".
var amountPattern = regexp.MustCompile(`(?:₹|Rs\.?\s?|INR\s?|\$)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// GmailService links a Gmail account over OAuth and turns payment-looking
// messages into alerts for review.
type GmailService struct {
	userRepo    *repository.UserRepository
	alertRepo   *repository.AlertRepository
	oauthClient *oauth.GmailOAuth
	states      *oauth.StateStore
	maxMessages int
	nowFn       func() time.Time
}

func NewGmailService(
	userRepo *repository.UserRepository,
	alertRepo *repository.AlertRepository,
	oauthClient *oauth.GmailOAuth,
	states *oauth.StateStore,
	maxMessages int,
) *GmailService {
	if maxMessages <= 0 {
		maxMessages = 25
	}
	return &GmailService{
		userRepo:    userRepo,
		alertRepo:   alertRepo,
		oauthClient: oauthClient,
		states:      states,
		maxMessages: maxMessages,
		nowFn:       time.Now,
	}
}

// ConnectURL starts the OAuth flow and returns the consent page URL.
func (s *GmailService) ConnectURL(ctx context.Context, userID int64) (string, error) {
	if s.oauthClient == nil || s.states == nil {
		return "", ErrGmailNotConfigured
	}

	state, err := s.states.GenerateState(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.oauthClient.GetAuthURL(state), nil
}

// HandleCallback finishes the OAuth flow: the state identifies the user who
// started it, the code buys the tokens. Returns the linked user id.
func (s *GmailService) HandleCallback(ctx context.Context, state, code string) (int64, error) {
	if s.oauthClient == nil || s.states == nil {
		return 0, ErrGmailNotConfigured
	}

	userID, err := s.states.ValidateState(ctx, state)
	if err != nil {
		return 0, err
	}

	token, err := s.oauthClient.Exchange(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	fields := map[string]interface{}{
		"gmail_connected":    true,
		"gmail_access_token": token.AccessToken,
		"gmail_token_expiry": token.Expiry,
	}
	// Google only returns a refresh token on first consent; keep the old one
	// if this grant came without.
	if token.RefreshToken != "" {
		fields["gmail_refresh_token"] = token.RefreshToken
	}
	if err := s.userRepo.UpdateFields(userID, fields); err != nil {
		return 0, err
	}
	return userID, nil
}

// Status reports whether the account is linked and whether the access token
// has gone stale.
func (s *GmailService) Status(userID int64) (*dto.GmailStatusResponse, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp := &dto.GmailStatusResponse{Connected: user.GmailConnected}
	if user.GmailConnected && user.GmailTokenExpiry != nil {
		resp.NeedsRefresh = user.GmailTokenExpiry.Before(s.nowFn())
	}
	if user.GmailLastSync != nil {
		resp.LastSync = user.GmailLastSync.Format(time.RFC3339)
	}
	return resp, nil
}

// Sync pulls recent payment mail and raises an alert per unseen transaction.
// The Gmail message id doubles as the transaction id so re-syncs never
// duplicate alerts.
func (s *GmailService) Sync(ctx context.Context, userID int64) (*dto.GmailSyncResponse, error) {
	if s.oauthClient == nil {
		return nil, ErrGmailNotConfigured
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.GmailConnected || user.GmailRefreshToken == "" {
		return nil, ErrGmailNotConnected
	}

	token, err := s.accessToken(ctx, user)
	if err != nil {
		return nil, err
	}

	ids, err := s.oauthClient.ListMessages(ctx, token, gmailSyncQuery, s.maxMessages)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	processed := 0
	created := 0
	for _, id := range ids {
		transactionID := "gmail:" + id
		exists, err := s.alertRepo.ExistsByTransactionID(userID, transactionID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		msg, err := s.oauthClient.GetMessage(ctx, token, id)
		if err != nil {
			return nil, err
		}
		processed++

		alert := alertFromMessage(userID, transactionID, msg, now)
		if err := s.alertRepo.Create(alert); err != nil {
			return nil, err
		}
		created++
	}

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"gmail_last_sync": now}); err != nil {
		return nil, err
	}

	return &dto.GmailSyncResponse{
		TransactionsProcessed: processed,
		NewAlerts:             created,
		LastSync:              now.Format(time.RFC3339),
	}, nil
}

// Disconnect unlinks the account and drops the stored tokens.
func (s *GmailService) Disconnect(userID int64) error {
	if _, err := s.userRepo.GetByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return s.userRepo.UpdateFields(userID, map[string]interface{}{
		"gmail_connected":     false,
		"gmail_access_token":  "",
		"gmail_refresh_token": "",
		"gmail_token_expiry":  nil,
	})
}

// accessToken returns a usable token, refreshing through the stored refresh
// token when the cached one has expired.
func (s *GmailService) accessToken(ctx context.Context, user *model.User) (*oauth2.Token, error) {
	if user.GmailAccessToken != "" && user.GmailTokenExpiry != nil && user.GmailTokenExpiry.After(s.nowFn()) {
		return &oauth2.Token{
			AccessToken: user.GmailAccessToken,
			Expiry:      *user.GmailTokenExpiry,
		}, nil
	}

	token, err := s.oauthClient.Refresh(ctx, user.GmailRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh gmail token: %w", err)
	}

	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"gmail_access_token": token.AccessToken,
		"gmail_token_expiry": token.Expiry,
	}); err != nil {
		return nil, err
	}
	return token, nil
}

func alertFromMessage(userID int64, transactionID string, msg *oauth.GmailMessage, now time.Time) *model.Alert {
	title := msg.Subject
	if title == "" {
		title = "Payment email detected"
	}
	title = truncateRunes(title, 200)

	description := msg.Snippet
	if description == "" {
		description = "A payment-related email was found in your inbox."
	}
	description = truncateRunes(description, 1000)

	alert := &model.Alert{
		UserID:        userID,
		Type:          model.AlertUnusualSpending,
		Severity:      model.SeverityMedium,
		Title:         title,
		Description:   description,
		Merchant:      merchantFromSender(msg.From),
		Currency:      model.CurrencyINR,
		Date:          now,
		Status:        model.AlertStatusActive,
		Actions:       model.ActionList{},
		Confidence:    0.6,
		Source:        model.SourceGmailImport,
		TransactionID: transactionID,
	}
	if amount, ok := amountFromText(msg.Subject + " " + msg.Snippet); ok {
		alert.Amount = &amount
	}
	return alert
}

// merchantFromSender extracts a display name from "Netflix <info@netflix.com>".
func merchantFromSender(from string) string {
	if i := strings.Index(from, "<"); i > 0 {
		from = from[:i]
	}
	return truncateRunes(strings.Trim(strings.TrimSpace(from), `"`), 100)
}

// truncateRunes cuts s to at most max runes so a multibyte character is
// never split mid-sequence.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func amountFromText(text string) (float64, bool) {
	match := amountPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(match[1], ",", "")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}
