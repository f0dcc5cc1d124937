package dto

// RegisterRequest creates an account.
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=6,max=72"`
	Phone     string `json:"phone,omitempty" binding:"omitempty,max=20"`
}

// RegisterResponse returns the new account id.
type RegisterResponse struct {
	UserID int64 `json:"user_id"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}

// UserProfile is the outward view of an account.
type UserProfile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Currency  string `json:"currency"`
	Timezone  string `json:"timezone"`
	LastLogin string `json:"last_login,omitempty"`
	CreatedAt string `json:"created_at"`
}

// UpdateProfileRequest patches profile fields.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,max=50"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,max=50"`
	Phone     *string `json:"phone,omitempty" binding:"omitempty,max=20"`
	Currency  *string `json:"currency,omitempty"`
	Timezone  *string `json:"timezone,omitempty" binding:"omitempty,max=50"`
	AvatarURL *string `json:"avatar_url,omitempty" binding:"omitempty,max=500"`
}

// ChangePasswordRequest rotates the password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=72"`
}

// GmailStatusResponse reports the Gmail connection state.
type GmailStatusResponse struct {
	Connected    bool   `json:"connected"`
	NeedsRefresh bool   `json:"needs_refresh"`
	LastSync     string `json:"last_sync,omitempty"`
}

// GmailSyncResponse reports one sync run.
type GmailSyncResponse struct {
	TransactionsProcessed int    `json:"transactions_processed"`
	NewAlerts             int    `json:"new_alerts"`
	LastSync              string `json:"last_sync"`
}
