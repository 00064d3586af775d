package model

import "time"

const (
	PlanFree    = "free"
	PlanPremium = "premium"

	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Subscription mirrors the payment processor's subscription object. It is
// written only by the billing webhook sync and read by the premium gate.
type Subscription struct {
	ID                     string     `json:"id" gorm:"primaryKey"`
	UserID                 string     `json:"user_id" gorm:"uniqueIndex;not null"`
	PlanID                 string     `json:"plan_id" gorm:"default:free"`
	Status                 string     `json:"status" gorm:"default:active"`
	ProviderCustomerID     *string    `json:"-" gorm:"index"`
	ProviderSubscriptionID *string    `json:"-"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd      bool       `json:"cancel_at_period_end" gorm:"default:false"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func (s *Subscription) IsPremium() bool {
	if s.PlanID != PlanPremium {
		return false
	}
	if s.Status != SubscriptionActive && s.Status != SubscriptionPastDue {
		return false
	}
	// A missed cancellation webhook must not leave premium open forever.
	if s.CurrentPeriodEnd != nil && time.Now().After(*s.CurrentPeriodEnd) {
		return false
	}
	return true
}
