package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                     string     `json:"id" gorm:"primaryKey"`
	Email                  string     `json:"email" gorm:"unique;not null"`
	Username               string     `json:"username" gorm:"unique;not null"`
	Password               string     `json:"-"`
	Role                   string     `json:"role" gorm:"default:user"`
	IsActive               bool       `json:"is_active" gorm:"default:true"`
	EmailVerified          bool       `json:"email_verified" gorm:"default:false"`
	VerificationCode       string     `json:"-"`
	VerificationCodeExpiry *time.Time `json:"-"`
	ResetToken             string     `json:"-"`
	ResetTokenExpiry       *time.Time `json:"-"`
	ReminderEmails         bool       `json:"reminder_emails" gorm:"default:true"`
	LastLoginAt            *time.Time `json:"last_login_at"`
	LastLoginIP            string     `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	DeletedAt              *time.Time `json:"-" gorm:"index"`
}
