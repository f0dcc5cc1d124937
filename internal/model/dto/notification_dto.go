package dto

// ChannelSettings are one channel's toggles.
type ChannelSettings struct {
	Enabled          bool  `json:"enabled"`
	FraudAlerts      bool  `json:"fraud_alerts"`
	RenewalReminders bool  `json:"renewal_reminders"`
	SpendingAlerts   *bool `json:"spending_alerts,omitempty"` // email only
}

// NotificationSettings groups the three channels.
type NotificationSettings struct {
	Email ChannelSettings `json:"email"`
	SMS   ChannelSettings `json:"sms"`
	Push  ChannelSettings `json:"push"`
}

// UpdateNotificationSettingsRequest patches individual toggles.
type UpdateNotificationSettingsRequest struct {
	Email *ChannelSettingsPatch `json:"email,omitempty"`
	SMS   *ChannelSettingsPatch `json:"sms,omitempty"`
	Push  *ChannelSettingsPatch `json:"push,omitempty"`
}

// ChannelSettingsPatch is a partial channel update.
type ChannelSettingsPatch struct {
	Enabled          *bool `json:"enabled,omitempty"`
	FraudAlerts      *bool `json:"fraud_alerts,omitempty"`
	RenewalReminders *bool `json:"renewal_reminders,omitempty"`
	SpendingAlerts   *bool `json:"spending_alerts,omitempty"`
}

// SendNotificationRequest dispatches an event through the policy.
type SendNotificationRequest struct {
	Type    string `json:"type" binding:"required"`
	Title   string `json:"title" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=1000"`
	AlertID *int64 `json:"alert_id,omitempty"`
}

// TestNotificationRequest sends a single-channel test message.
type TestNotificationRequest struct {
	Channel string `json:"channel" binding:"required,oneof=email sms push"`
}

// ChannelResult is one channel's dispatch outcome.
type ChannelResult struct {
	Channel   string `json:"channel"`
	Success   bool   `json:"success"`
	Skipped   bool   `json:"skipped,omitempty"`
	Reason    string `json:"reason,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DispatchResponse is the aggregate of all channel attempts.
type DispatchResponse struct {
	Results []ChannelResult `json:"results"`
}
