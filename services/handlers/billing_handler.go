package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/shared"
)

type BillingHandler struct {
	billingSvc BillingServiceInterface
}

func NewBillingHandler(billingSvc BillingServiceInterface) *BillingHandler {
	return &BillingHandler{
		billingSvc: billingSvc,
	}
}

// @Summary Get own subscription
// @Tags billing
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.SubscriptionResponse}
// @Router /api/v1/billing/subscription [get]
func (h *BillingHandler) GetSubscription(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.billingSvc.GetSubscription(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Subscription retrieved", resp)
}

// @Summary Start a premium checkout
// @Tags billing
// @Accept json
// @Produce json
// @Security Bearer
// @Param checkoutRequest body dto.CheckoutRequest true "Plan and billing interval"
// @Success 200 {object} shared.Response{data=dto.CheckoutResponse}
// @Router /api/v1/billing/checkout [post]
func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.billingSvc.CreateCheckoutURL(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Checkout session created", resp)
}

// @Summary Open the billing portal
// @Tags billing
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.PortalResponse}
// @Router /api/v1/billing/portal [post]
func (h *BillingHandler) Portal(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.billingSvc.CustomerPortalURL(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Portal session created", resp)
}

// @Summary Stripe webhook receiver
// @Description Verifies the signature and syncs subscription state
// @Tags billing
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/billing/webhook [post]
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	headers := http.Header{}
	headers.Set("Stripe-Signature", c.Get("Stripe-Signature"))

	if err := h.billingSvc.HandleWebhook(c.Body(), headers); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Webhook processed", nil)
}
