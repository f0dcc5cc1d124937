package sms

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/subguard/subguard_go_server/config"
)

// Service sends text messages through the Twilio REST API.
type Service struct {
	cfg    *config.SMSConfig
	client *http.Client
}

func NewService(cfg *config.SMSConfig) *Service {
	return &Service{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send delivers one message and returns the provider message id.
func (s *Service) Send(to, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimSuffix(s.cfg.APIBaseURL, "/"), s.cfg.AccountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.cfg.FromNumber)
	form.Set("Body", body)

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build sms request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("sms api error (%d): %s", resp.StatusCode, string(data))
	}

	var result struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode sms response: %w", err)
	}

	return result.SID, nil
}

// SendAlert formats and sends an alert notification.
func (s *Service) SendAlert(to, title, message string) (string, error) {
	body := fmt.Sprintf("SubGuard: %s. %s", title, message)
	// Keep within a single SMS segment where possible. Cut on rune
	// boundaries so currency symbols survive intact.
	if runes := []rune(body); len(runes) > 160 {
		body = string(runes[:157]) + "..."
	}
	return s.Send(to, body)
}

// SendTest verifies the channel from the settings page.
func (s *Service) SendTest(to string) (string, error) {
	return s.Send(to, "SubGuard: this is a test notification. SMS notifications are working.")
}
