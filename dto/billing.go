package dto

import "time"

type CheckoutRequest struct {
	PlanID   string `json:"plan_id" validate:"required,oneof=premium"`
	Interval string `json:"interval" validate:"required,oneof=month year"`
}

func (r CheckoutRequest) Validate() error {
	return validate.Struct(r)
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

type PortalResponse struct {
	PortalURL string `json:"portal_url"`
}

type SubscriptionResponse struct {
	PlanID            string     `json:"plan_id"`
	Status            string     `json:"status"`
	Premium           bool       `json:"premium"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}
