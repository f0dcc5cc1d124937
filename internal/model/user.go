package model

import (
	"time"
)

type User struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	FirstName    string     `gorm:"size:50;not null" json:"first_name"`
	LastName     string     `gorm:"size:50;not null" json:"last_name"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        string     `gorm:"size:20" json:"phone,omitempty"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	AvatarURL    string     `gorm:"size:500" json:"avatar_url,omitempty"`
	Currency     Currency   `gorm:"size:3;default:INR" json:"currency"`
	Timezone     string     `gorm:"size:50;default:Asia/Kolkata" json:"timezone"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`

	// Per-channel notification toggles. Sub-toggles only apply when the
	// channel itself is enabled.
	EmailNotificationsEnabled bool `gorm:"default:true" json:"email_notifications_enabled"`
	EmailFraudAlerts          bool `gorm:"default:true" json:"email_fraud_alerts"`
	EmailRenewalReminders     bool `gorm:"default:true" json:"email_renewal_reminders"`
	EmailSpendingAlerts       bool `gorm:"default:true" json:"email_spending_alerts"`
	SMSNotificationsEnabled   bool `gorm:"default:false" json:"sms_notifications_enabled"`
	SMSFraudAlerts            bool `gorm:"default:true" json:"sms_fraud_alerts"`
	SMSRenewalReminders       bool `gorm:"default:false" json:"sms_renewal_reminders"`
	PushNotificationsEnabled  bool `gorm:"default:true" json:"push_notifications_enabled"`
	PushFraudAlerts           bool `gorm:"default:true" json:"push_fraud_alerts"`
	PushRenewalReminders      bool `gorm:"default:true" json:"push_renewal_reminders"`

	// Gmail integration state.
	GmailConnected     bool       `gorm:"default:false" json:"gmail_connected"`
	GmailAccessToken   string     `gorm:"type:text" json:"-"`
	GmailRefreshToken  string     `gorm:"type:text" json:"-"`
	GmailTokenExpiry   *time.Time `json:"-"`
	GmailLastSync      *time.Time `json:"gmail_last_sync,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
