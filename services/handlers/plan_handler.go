package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/shared"
)

type PlanHandler struct {
	planSvc PlanServiceInterface
}

func NewPlanHandler(planSvc PlanServiceInterface) *PlanHandler {
	return &PlanHandler{
		planSvc: planSvc,
	}
}

// @Summary Create a life plan
// @Tags plans
// @Accept json
// @Produce json
// @Security Bearer
// @Param planRequest body dto.CreatePlanRequest true "Plan details"
// @Success 201 {object} shared.Response{data=dto.PlanResponse}
// @Router /api/v1/plans [post]
func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.planSvc.CreatePlan(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Plan created", resp)
}

// @Summary List own plans
// @Tags plans
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=[]dto.PlanResponse}
// @Router /api/v1/plans [get]
func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.planSvc.ListPlans(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Plans retrieved", resp)
}

// @Summary Get a plan
// @Tags plans
// @Produce json
// @Security Bearer
// @Param planId path string true "Plan ID"
// @Success 200 {object} shared.Response{data=dto.PlanResponse}
// @Router /api/v1/plans/{planId} [get]
func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.planSvc.GetPlan(userID, c.Params("planId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Plan retrieved", resp)
}

// @Summary Update a plan
// @Tags plans
// @Accept json
// @Produce json
// @Security Bearer
// @Param planId path string true "Plan ID"
// @Param planRequest body dto.UpdatePlanRequest true "Plan fields"
// @Success 200 {object} shared.Response{data=dto.PlanResponse}
// @Router /api/v1/plans/{planId} [put]
func (h *PlanHandler) UpdatePlan(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.planSvc.UpdatePlan(userID, c.Params("planId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Plan updated", resp)
}

// @Summary Delete a plan and all of its goals
// @Tags plans
// @Produce json
// @Security Bearer
// @Param planId path string true "Plan ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/plans/{planId} [delete]
func (h *PlanHandler) DeletePlan(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	if err := h.planSvc.DeletePlan(userID, c.Params("planId")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Plan deleted", nil)
}

// @Summary Get plan progress by area and year
// @Tags plans
// @Produce json
// @Security Bearer
// @Param planId path string true "Plan ID"
// @Success 200 {object} shared.Response{data=dto.PlanProgressResponse}
// @Router /api/v1/plans/{planId}/progress [get]
func (h *PlanHandler) GetProgress(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.planSvc.GetProgress(userID, c.Params("planId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Progress retrieved", resp)
}

// @Summary Export a plan as csv or xlsx
// @Description Renders the plan and returns a temporary download URL
// @Tags plans
// @Produce json
// @Security Bearer
// @Param planId path string true "Plan ID"
// @Param format query string false "csv or xlsx" default(xlsx)
// @Success 200 {object} shared.Response{data=dto.ExportResponse}
// @Router /api/v1/plans/{planId}/export [get]
func (h *PlanHandler) ExportPlan(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	format := c.Query("format", "xlsx")

	resp, err := h.planSvc.ExportPlan(userID, c.Params("planId"), format)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Export ready", resp)
}

// ==================== GOALS ====================

// @Summary Add a goal to a plan
// @Tags goals
// @Accept json
// @Produce json
// @Security Bearer
// @Param planId path string true "Plan ID"
// @Param goalRequest body dto.CreateGoalRequest true "Goal details"
// @Success 201 {object} shared.Response{data=dto.GoalResponse}
// @Router /api/v1/plans/{planId}/goals [post]
func (h *PlanHandler) CreateGoal(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CreateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.planSvc.CreateGoal(userID, c.Params("planId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Goal created", resp)
}

// @Summary List goals in a plan
// @Tags goals
// @Produce json
// @Security Bearer
// @Param planId path string true "Plan ID"
// @Success 200 {object} shared.Response{data=[]dto.GoalResponse}
// @Router /api/v1/plans/{planId}/goals [get]
func (h *PlanHandler) ListGoals(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.planSvc.ListGoals(userID, c.Params("planId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Goals retrieved", resp)
}

// @Summary Update a goal
// @Tags goals
// @Accept json
// @Produce json
// @Security Bearer
// @Param goalId path string true "Goal ID"
// @Param goalRequest body dto.UpdateGoalRequest true "Goal fields"
// @Success 200 {object} shared.Response{data=dto.GoalResponse}
// @Router /api/v1/goals/{goalId} [put]
func (h *PlanHandler) UpdateGoal(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.UpdateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.planSvc.UpdateGoal(userID, c.Params("goalId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Goal updated", resp)
}

// @Summary Delete a goal
// @Tags goals
// @Produce json
// @Security Bearer
// @Param goalId path string true "Goal ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/goals/{goalId} [delete]
func (h *PlanHandler) DeleteGoal(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	if err := h.planSvc.DeleteGoal(userID, c.Params("goalId")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Goal deleted", nil)
}

// @Summary Mark a goal completed
// @Description Awards points, advances the streak and may unlock achievements
// @Tags goals
// @Produce json
// @Security Bearer
// @Param goalId path string true "Goal ID"
// @Success 200 {object} shared.Response{data=dto.CompleteGoalResponse}
// @Router /api/v1/goals/{goalId}/complete [post]
func (h *PlanHandler) CompleteGoal(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.planSvc.CompleteGoal(userID, c.Params("goalId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Goal completed", resp)
}

// @Summary Reopen a completed goal
// @Tags goals
// @Produce json
// @Security Bearer
// @Param goalId path string true "Goal ID"
// @Success 200 {object} shared.Response{data=dto.GoalResponse}
// @Router /api/v1/goals/{goalId}/uncomplete [post]
func (h *PlanHandler) UncompleteGoal(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.planSvc.UncompleteGoal(userID, c.Params("goalId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Goal reopened", resp)
}

// ==================== NOTES ====================

// @Summary Add a note to a goal
// @Tags goals
// @Accept json
// @Produce json
// @Security Bearer
// @Param goalId path string true "Goal ID"
// @Param noteRequest body dto.CreateNoteRequest true "Note content"
// @Success 201 {object} shared.Response{data=dto.NoteResponse}
// @Router /api/v1/goals/{goalId}/notes [post]
func (h *PlanHandler) CreateNote(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.planSvc.CreateNote(userID, c.Params("goalId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Note created", resp)
}

// @Summary List notes on a goal
// @Tags goals
// @Produce json
// @Security Bearer
// @Param goalId path string true "Goal ID"
// @Success 200 {object} shared.Response{data=[]dto.NoteResponse}
// @Router /api/v1/goals/{goalId}/notes [get]
func (h *PlanHandler) ListNotes(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.planSvc.ListNotes(userID, c.Params("goalId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Notes retrieved", resp)
}

// @Summary Delete a note
// @Tags goals
// @Produce json
// @Security Bearer
// @Param noteId path string true "Note ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/notes/{noteId} [delete]
func (h *PlanHandler) DeleteNote(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	if err := h.planSvc.DeleteNote(userID, c.Params("noteId")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Note deleted", nil)
}
