package dto

import "time"

type UserProfileResponse struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	EmailVerified  bool       `json:"email_verified"`
	ReminderEmails bool       `json:"reminder_emails"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at"`
}

type UpdateProfileRequest struct {
	Username       string `json:"username" validate:"omitempty,min=3,max=30"`
	Email          string `json:"email" validate:"omitempty,email"`
	ReminderEmails *bool  `json:"reminder_emails"`
}

func (r UpdateProfileRequest) Validate() error {
	return validate.Struct(r)
}
