package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/plano-vida/plano_api/shared"
)

type NotificationHandler struct {
	notificationSvc NotificationServiceInterface
}

func NewNotificationHandler(notificationSvc NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{
		notificationSvc: notificationSvc,
	}
}

// @Summary List own notifications
// @Tags notifications
// @Produce json
// @Security Bearer
// @Param limit query int false "Number of entries" default(50)
// @Success 200 {object} shared.Response{data=dto.NotificationListResponse}
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	resp, err := h.notificationSvc.ListNotifications(userID, limit)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Notifications retrieved", resp)
}

// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Security Bearer
// @Param notificationId path string true "Notification ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/notifications/{notificationId}/read [post]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	if err := h.notificationSvc.MarkRead(userID, c.Params("notificationId")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Notification marked read", nil)
}

// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	if err := h.notificationSvc.MarkAllRead(userID); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "All notifications marked read", nil)
}
