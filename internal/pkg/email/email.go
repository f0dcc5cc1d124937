package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/subguard/subguard_go_server/config"
)

type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendAlert delivers an alert notification.
func (s *Service) SendAlert(to, name, title, message, severity string) error {
	subject := fmt.Sprintf("[%s] %s - SubGuard", strings.ToUpper(severity), title)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #dc2626;">%s</h2>
        <p>Hi %s,</p>
        <p>%s</p>
        <p>Open your dashboard to review and resolve this alert.</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This is an automated message from SubGuard. Please do not reply.</p>
    </div>
</body>
</html>
`, title, name, message)

	return s.sendHTML(to, subject, body)
}

// SendRenewalReminder warns about an upcoming charge.
func (s *Service) SendRenewalReminder(to, name, subscriptionName string, amount float64, currency string, daysLeft int) error {
	subject := fmt.Sprintf("%s renews in %d days - SubGuard", subscriptionName, daysLeft)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">Upcoming Renewal</h2>
        <p>Hi %s,</p>
        <p>Your subscription <strong>%s</strong> will renew in %d days.</p>
        <div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; margin: 20px 0;">
            %s %.2f
        </div>
        <p>Cancel or pause it from your dashboard if you no longer need it.</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This is an automated message from SubGuard. Please do not reply.</p>
    </div>
</body>
</html>
`, name, subscriptionName, daysLeft, currency, amount)

	return s.sendHTML(to, subject, body)
}

// SendWelcome greets a new account.
func (s *Service) SendWelcome(to, name string) error {
	subject := "Welcome to SubGuard"
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">Welcome!</h2>
        <p>Hi %s,</p>
        <p>Thanks for signing up for SubGuard.</p>
        <p>You can now:</p>
        <ul>
            <li>Track all your subscriptions in one place</li>
            <li>Get alerted about fraud and unusual charges</li>
            <li>See where your money goes and what to cut</li>
        </ul>
        <p>Start by adding your first subscription.</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This is an automated message from SubGuard. Please do not reply.</p>
    </div>
</body>
</html>
`, name)

	return s.sendHTML(to, subject, body)
}

// SendTest verifies the channel from the settings page.
func (s *Service) SendTest(to, name string) error {
	subject := "Test notification - SubGuard"
	body := fmt.Sprintf("Hi %s,\n\nThis is a test notification from SubGuard. Email notifications are working.\n", name)
	return s.sendPlain(to, subject, body)
}

func (s *Service) sendHTML(to, subject, body string) error {
	headers := make(map[string]string)
	headers["From"] = s.cfg.From
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}

func (s *Service) sendPlain(to, subject, body string) error {
	headers := make(map[string]string)
	headers["From"] = s.cfg.From
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/plain; charset=UTF-8"

	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String()))
}
