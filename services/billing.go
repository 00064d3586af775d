package services

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v81"
	portalsession "github.com/stripe/stripe-go/v81/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/model"
	"github.com/plano-vida/plano_api/services/repositories"
	"github.com/plano-vida/plano_api/shared"
)

// BillingService syncs subscription state from Stripe webhooks and gates
// premium features. When BILLING_ENFORCED is off everything is premium.
type BillingService struct {
	context.DefaultService

	sqlSvc *SqlService

	repo     *repositories.SubscriptionRepository
	userRepo *repositories.UserRepository

	secretKey      string
	webhookSecret  string
	priceIDMonthly string
	priceIDYearly  string
	appURL         string
	enforced       bool
}

const BILLING_SVC = "billing_svc"

func (svc BillingService) Id() string {
	return BILLING_SVC
}

func (svc *BillingService) Configure(ctx *context.Context) error {
	svc.secretKey = os.Getenv("STRIPE_SECRET_KEY")
	svc.webhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	svc.priceIDMonthly = os.Getenv("STRIPE_PRICE_ID_PREMIUM_MONTHLY")
	svc.priceIDYearly = os.Getenv("STRIPE_PRICE_ID_PREMIUM_YEARLY")
	svc.appURL = os.Getenv("APP_URL")
	if svc.appURL == "" {
		svc.appURL = "http://localhost:3000"
	}
	svc.enforced = os.Getenv("BILLING_ENFORCED") == "true"

	return svc.DefaultService.Configure(ctx)
}

func (svc *BillingService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.repo = repositories.NewSubscriptionRepository(svc.sqlSvc.Db())
	svc.userRepo = repositories.NewUserRepository(svc.sqlSvc.Db())

	if svc.secretKey != "" {
		stripe.Key = svc.secretKey
	} else if svc.enforced {
		return fmt.Errorf("BILLING_ENFORCED is set but STRIPE_SECRET_KEY is missing")
	}

	return nil
}

// RequirePremium returns nil when the user may use premium features.
func (svc *BillingService) RequirePremium(userID string) error {
	if !svc.enforced {
		return nil
	}

	sub, err := svc.repo.GetOrCreate(userID)
	if err != nil {
		return shared.NewInternalError(err, "Failed to load subscription")
	}
	if !sub.IsPremium() {
		return shared.NewForbiddenError(nil, "This feature requires a premium subscription")
	}
	return nil
}

func (svc *BillingService) GetSubscription(userID string) (*dto.SubscriptionResponse, error) {
	sub, err := svc.repo.GetOrCreate(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load subscription")
	}

	return &dto.SubscriptionResponse{
		PlanID:            sub.PlanID,
		Status:            sub.Status,
		Premium:           !svc.enforced || sub.IsPremium(),
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}, nil
}

// ==================== CHECKOUT / PORTAL ====================

func (svc *BillingService) CreateCheckoutURL(userID string, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if svc.secretKey == "" {
		return nil, shared.NewExternalServiceError(nil, "Billing is not configured")
	}

	user, err := svc.userRepo.GetUser(userID)
	if err != nil {
		return nil, shared.NewNotFoundError(err, "User not found")
	}

	sub, err := svc.repo.GetOrCreate(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load subscription")
	}
	if sub.IsPremium() {
		return nil, shared.NewConflictError(nil, "Subscription is already premium")
	}

	priceID := svc.priceIDMonthly
	if req.Interval == "year" {
		priceID = svc.priceIDYearly
	}
	if priceID == "" {
		return nil, shared.NewExternalServiceError(nil, fmt.Sprintf("No price configured for %s billing", req.Interval))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(fmt.Sprintf("%s/billing?session_id={CHECKOUT_SESSION_ID}", svc.appURL)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/billing", svc.appURL)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(user.Email),
		Metadata: map[string]string{
			"user_id": userID,
			"plan_id": req.PlanID,
		},
		AllowPromotionCodes: stripe.Bool(true),
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, shared.NewExternalServiceError(err, "Failed to create checkout session")
	}

	log.WithFields(log.Fields{"user_id": userID, "session_id": sess.ID}).Info("Checkout session created")
	return &dto.CheckoutResponse{CheckoutURL: sess.URL}, nil
}

func (svc *BillingService) CustomerPortalURL(userID string) (*dto.PortalResponse, error) {
	if svc.secretKey == "" {
		return nil, shared.NewExternalServiceError(nil, "Billing is not configured")
	}

	sub, err := svc.repo.GetOrCreate(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load subscription")
	}
	if sub.ProviderCustomerID == nil || *sub.ProviderCustomerID == "" {
		return nil, shared.NewBadRequestError(nil, "No billing portal available for free subscriptions")
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*sub.ProviderCustomerID),
		ReturnURL: stripe.String(fmt.Sprintf("%s/billing", svc.appURL)),
	}

	portalSession, err := portalsession.New(params)
	if err != nil {
		return nil, shared.NewExternalServiceError(err, "Failed to create portal session")
	}

	return &dto.PortalResponse{PortalURL: portalSession.URL}, nil
}

// ==================== WEBHOOK ====================

// HandleWebhook verifies the Stripe signature and applies the event to the
// local subscription row. Unknown event types are acknowledged and ignored.
func (svc *BillingService) HandleWebhook(payload []byte, headers http.Header) error {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		headers.Get("Stripe-Signature"),
		svc.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return shared.NewBadRequestError(err, "Invalid webhook signature")
	}

	log.WithField("event_type", event.Type).Info("Stripe webhook received")

	switch event.Type {
	case "checkout.session.completed":
		return svc.handleCheckoutCompleted(event.Data.Raw)
	case "customer.subscription.created", "customer.subscription.updated":
		return svc.handleSubscriptionChanged(event.Data.Raw)
	case "customer.subscription.deleted":
		return svc.handleSubscriptionDeleted(event.Data.Raw)
	case "invoice.payment_succeeded":
		return svc.handleInvoicePaid(event.Data.Raw)
	case "invoice.payment_failed":
		return svc.handleInvoiceFailed(event.Data.Raw)
	default:
		log.WithField("event_type", event.Type).Warn("Unhandled Stripe event type")
		return nil
	}
}

func (svc *BillingService) handleCheckoutCompleted(data []byte) error {
	var session struct {
		ID         string            `json:"id"`
		CustomerID string            `json:"customer"`
		Metadata   map[string]string `json:"metadata"`
	}
	if err := sonic.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	userID := session.Metadata["user_id"]
	if userID == "" {
		log.Warn("Checkout session has no user_id metadata, skipping")
		return nil
	}

	sub, err := svc.repo.GetOrCreate(userID)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	sub.ProviderCustomerID = &session.CustomerID
	if err := svc.repo.Update(sub); err != nil {
		return fmt.Errorf("failed to store customer id: %w", err)
	}

	log.WithFields(log.Fields{"user_id": userID, "customer_id": session.CustomerID}).Info("Checkout completed")
	return nil
}

type stripeSubscriptionEvent struct {
	ID                string `json:"id"`
	CustomerID        string `json:"customer"`
	Status            string `json:"status"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

func (svc *BillingService) handleSubscriptionChanged(data []byte) error {
	var event stripeSubscriptionEvent
	if err := sonic.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to parse subscription event: %w", err)
	}

	sub, err := svc.repo.GetByProviderCustomerID(event.CustomerID)
	if err != nil {
		log.WithField("customer_id", event.CustomerID).Warn("Subscription event for unknown customer, skipping")
		return nil
	}

	sub.PlanID = model.PlanPremium
	sub.ProviderSubscriptionID = &event.ID
	sub.Status = mapStripeStatus(event.Status)
	sub.CancelAtPeriodEnd = event.CancelAtPeriodEnd

	periodEnd := time.Unix(event.CurrentPeriodEnd, 0)
	sub.CurrentPeriodEnd = &periodEnd

	if err := svc.repo.Update(sub); err != nil {
		return fmt.Errorf("failed to sync subscription: %w", err)
	}

	log.WithFields(log.Fields{"user_id": sub.UserID, "status": sub.Status}).Info("Subscription synced")
	return nil
}

func (svc *BillingService) handleSubscriptionDeleted(data []byte) error {
	var event struct {
		ID string `json:"id"`
	}
	if err := sonic.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to parse subscription event: %w", err)
	}

	sub, err := svc.repo.GetByProviderSubscriptionID(event.ID)
	if err != nil {
		log.WithField("subscription_id", event.ID).Warn("Deletion for unknown subscription, skipping")
		return nil
	}

	sub.PlanID = model.PlanFree
	sub.Status = model.SubscriptionCanceled
	sub.ProviderSubscriptionID = nil
	sub.CurrentPeriodEnd = nil
	sub.CancelAtPeriodEnd = false

	if err := svc.repo.Update(sub); err != nil {
		return fmt.Errorf("failed to downgrade subscription: %w", err)
	}

	log.WithField("user_id", sub.UserID).Info("Subscription downgraded to free")
	return nil
}

func (svc *BillingService) handleInvoicePaid(data []byte) error {
	var invoice struct {
		SubscriptionID string `json:"subscription"`
	}
	if err := sonic.Unmarshal(data, &invoice); err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}
	if invoice.SubscriptionID == "" {
		return nil
	}

	sub, err := svc.repo.GetByProviderSubscriptionID(invoice.SubscriptionID)
	if err != nil {
		log.WithField("subscription_id", invoice.SubscriptionID).Warn("Invoice for unknown subscription, skipping")
		return nil
	}

	if sub.Status != model.SubscriptionActive {
		sub.Status = model.SubscriptionActive
		if err := svc.repo.Update(sub); err != nil {
			return fmt.Errorf("failed to reactivate subscription: %w", err)
		}
	}
	return nil
}

func (svc *BillingService) handleInvoiceFailed(data []byte) error {
	var invoice struct {
		SubscriptionID string `json:"subscription"`
	}
	if err := sonic.Unmarshal(data, &invoice); err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}
	if invoice.SubscriptionID == "" {
		return nil
	}

	sub, err := svc.repo.GetByProviderSubscriptionID(invoice.SubscriptionID)
	if err != nil {
		return nil
	}

	// Stripe keeps retrying; mark past_due and wait for the terminal event.
	if sub.Status == model.SubscriptionActive {
		sub.Status = model.SubscriptionPastDue
		if err := svc.repo.Update(sub); err != nil {
			return fmt.Errorf("failed to mark subscription past due: %w", err)
		}
	}

	log.WithField("user_id", sub.UserID).Warn("Invoice payment failed")
	return nil
}

func mapStripeStatus(status string) string {
	switch status {
	case "active", "trialing":
		return model.SubscriptionActive
	case "past_due":
		return model.SubscriptionPastDue
	case "canceled", "incomplete_expired", "unpaid":
		return model.SubscriptionCanceled
	default:
		return status
	}
}
