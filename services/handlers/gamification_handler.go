package handlers

import (
	stdContext "context"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/plano-vida/plano_api/shared"
)

type GamificationHandler struct {
	gamificationSvc GamificationServiceInterface
	planSvc         PlanServiceInterface
	aiSvc           AIServiceInterface
	billingSvc      BillingServiceInterface
}

func NewGamificationHandler(gamificationSvc GamificationServiceInterface, planSvc PlanServiceInterface, aiSvc AIServiceInterface, billingSvc BillingServiceInterface) *GamificationHandler {
	return &GamificationHandler{
		gamificationSvc: gamificationSvc,
		planSvc:         planSvc,
		aiSvc:           aiSvc,
		billingSvc:      billingSvc,
	}
}

// @Summary Register today's visit
// @Description Advances the daily streak; repeat calls on the same day are no-ops
// @Tags gamification
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.StreakResponse}
// @Router /api/v1/streak/visit [post]
func (h *GamificationHandler) RecordVisit(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.gamificationSvc.RecordDailyVisit(userID, time.Now())
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Visit recorded", resp)
}

// @Summary Get own streak and level
// @Tags gamification
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.StreakResponse}
// @Router /api/v1/streak [get]
func (h *GamificationHandler) GetStreak(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.gamificationSvc.GetStreak(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Streak retrieved", resp)
}

// @Summary List achievements with unlock state
// @Tags gamification
// @Produce json
// @Security Bearer
// @Success 200 {object} shared.Response{data=dto.AchievementListResponse}
// @Router /api/v1/achievements [get]
func (h *GamificationHandler) GetAchievements(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.gamificationSvc.GetAchievements(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Achievements retrieved", resp)
}

// @Summary Points leaderboard
// @Tags gamification
// @Produce json
// @Security Bearer
// @Param limit query int false "Number of entries" default(20)
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /api/v1/leaderboard [get]
func (h *GamificationHandler) GetLeaderboard(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	resp, err := h.gamificationSvc.GetLeaderboard(limit, userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Leaderboard retrieved", resp)
}

// @Summary AI summary of a plan
// @Description Generates a short coaching summary of the plan's goals
// @Tags gamification
// @Produce json
// @Security Bearer
// @Param planId path string true "Plan ID"
// @Success 200 {object} shared.Response{data=string}
// @Router /api/v1/plans/{planId}/summary [get]
func (h *GamificationHandler) SummarizePlan(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	if err := h.billingSvc.RequirePremium(userID); err != nil {
		return err
	}
	if !h.aiSvc.Enabled() {
		return shared.NewExternalServiceError(nil, "AI summary is not configured")
	}

	goals, err := h.planSvc.ListGoals(userID, c.Params("planId"))
	if err != nil {
		return err
	}

	texts := make([]string, 0, len(goals))
	for _, g := range goals {
		texts = append(texts, g.Text)
	}

	ctx, cancel := stdContext.WithTimeout(stdContext.Background(), 45*time.Second)
	defer cancel()

	summary, err := h.aiSvc.SummarizePlan(ctx, texts)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Summary generated", summary)
}
