package services

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/model"
	"github.com/plano-vida/plano_api/services/repositories"
	"github.com/plano-vida/plano_api/shared"
)

func newPlanTestService(t *testing.T) *PlanService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.LifePlan{}, &model.LifeGoal{}, &model.GoalNote{},
		&model.UserStreak{}, &model.UserAchievement{},
	))

	gamification := &GamificationService{}
	gamification.SetRepository(repositories.NewGamificationRepository(db))

	return &PlanService{
		gamificationSvc: gamification,
		repo:            repositories.NewPlanRepository(db),
	}
}

func mustCreatePlan(t *testing.T, svc *PlanService, userID string) *dto.PlanResponse {
	t.Helper()
	plan, err := svc.CreatePlan(userID, dto.CreatePlanRequest{
		Title:     "Meu Plano",
		StartYear: 2026,
		EndYear:   2030,
	})
	require.NoError(t, err)
	return plan
}

func mustCreateGoal(t *testing.T, svc *PlanService, userID, planID string, year int, area, text string) *dto.GoalResponse {
	t.Helper()
	goal, err := svc.CreateGoal(userID, planID, dto.CreateGoalRequest{
		Year: year,
		Area: area,
		Text: text,
	})
	require.NoError(t, err)
	return goal
}

func TestCreatePlanRejectsInvertedYearRange(t *testing.T) {
	svc := newPlanTestService(t)

	_, err := svc.CreatePlan("u1", dto.CreatePlanRequest{
		Title:     "Plano",
		StartYear: 2030,
		EndYear:   2026,
	})
	assert.Equal(t, http.StatusBadRequest, appErrStatus(t, err))
}

func TestCreateGoalRejectsYearOutsidePlan(t *testing.T) {
	svc := newPlanTestService(t)
	plan := mustCreatePlan(t, svc, "u1")

	_, err := svc.CreateGoal("u1", plan.ID, dto.CreateGoalRequest{
		Year: 2040,
		Area: shared.AreaHealth,
		Text: "Correr 5km",
	})
	assert.Equal(t, http.StatusBadRequest, appErrStatus(t, err))
}

func TestCompleteGoal(t *testing.T) {
	svc := newPlanTestService(t)
	plan := mustCreatePlan(t, svc, "u1")
	goal := mustCreateGoal(t, svc, "u1", plan.ID, 2026, shared.AreaHealth, "Correr 5km")

	resp, err := svc.CompleteGoal("u1", goal.ID)
	require.NoError(t, err)

	assert.True(t, resp.Goal.Completed)
	assert.NotNil(t, resp.Goal.CompletedAt)
	assert.Equal(t, DefaultPointsPerGoal, resp.PointsEarned)
	assert.Equal(t, 1, resp.Streak.CurrentStreak)
	assert.Equal(t, DefaultPointsPerGoal, resp.Streak.TotalPoints)
	require.Len(t, resp.NewUnlocks, 1)
	assert.Equal(t, "first_goal", resp.NewUnlocks[0].ID)

	// completing twice is a conflict
	_, err = svc.CompleteGoal("u1", goal.ID)
	assert.Equal(t, http.StatusConflict, appErrStatus(t, err))
}

func TestCompleteGoalOfAnotherUserIsNotFound(t *testing.T) {
	svc := newPlanTestService(t)
	plan := mustCreatePlan(t, svc, "u1")
	goal := mustCreateGoal(t, svc, "u1", plan.ID, 2026, shared.AreaSocial, "Reencontrar amigos")

	_, err := svc.CompleteGoal("u2", goal.ID)
	assert.Equal(t, http.StatusNotFound, appErrStatus(t, err))
}

func TestUncompleteGoalKeepsEarnedPoints(t *testing.T) {
	svc := newPlanTestService(t)
	plan := mustCreatePlan(t, svc, "u1")
	goal := mustCreateGoal(t, svc, "u1", plan.ID, 2026, shared.AreaFinancial, "Guardar 10%")

	_, err := svc.CompleteGoal("u1", goal.ID)
	require.NoError(t, err)

	reopened, err := svc.UncompleteGoal("u1", goal.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)

	streak, err := svc.gamificationSvc.GetStreak("u1")
	require.NoError(t, err)
	assert.Equal(t, DefaultPointsPerGoal, streak.TotalPoints)
	assert.Equal(t, 1, streak.TotalGoalsCompleted)

	// reopening an open goal is a conflict
	_, err = svc.UncompleteGoal("u1", goal.ID)
	assert.Equal(t, http.StatusConflict, appErrStatus(t, err))
}

func TestGetProgress(t *testing.T) {
	svc := newPlanTestService(t)
	plan := mustCreatePlan(t, svc, "u1")

	mustCreateGoal(t, svc, "u1", plan.ID, 2026, shared.AreaHealth, "Correr 5km")
	g2 := mustCreateGoal(t, svc, "u1", plan.ID, 2026, shared.AreaHealth, "Dormir 8h")
	mustCreateGoal(t, svc, "u1", plan.ID, 2027, shared.AreaSpiritual, "Ler um livro")

	_, err := svc.CompleteGoal("u1", g2.ID)
	require.NoError(t, err)

	progress, err := svc.GetProgress("u1", plan.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, progress.TotalGoals)
	assert.Equal(t, 1, progress.CompletedGoals)
	assert.InDelta(t, 33.33, progress.Percent, 0.01)

	// areas follow canonical display order: spiritual before health
	require.Len(t, progress.ByArea, 2)
	assert.Equal(t, shared.AreaSpiritual, progress.ByArea[0].Area)
	assert.Equal(t, shared.AreaHealth, progress.ByArea[1].Area)
	assert.Equal(t, 2, progress.ByArea[1].TotalGoals)
	assert.InDelta(t, 50.0, progress.ByArea[1].Percent, 0.01)

	require.Len(t, progress.ByYear, 2)
	assert.Equal(t, 2026, progress.ByYear[0].Year)
	assert.Equal(t, 2027, progress.ByYear[1].Year)
}

func TestCommitImport(t *testing.T) {
	svc := newPlanTestService(t)
	plan := mustCreatePlan(t, svc, "u1")

	resp, err := svc.CommitImport("u1", dto.CommitImportRequest{
		PlanID: plan.ID,
		Goals: []dto.ImportedGoal{
			{Year: 2026, Area: "Financeiro", GoalText: "Guardar 10%"},
			{Year: 2027, Area: "saúde", GoalText: "Correr 5km"},
			{Year: 2050, Area: "social", GoalText: "Fora do plano"},
			{Year: 2026, Area: "hobbies", GoalText: "Área desconhecida"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 2, resp.Skipped)

	goals, err := svc.ListGoals("u1", plan.ID)
	require.NoError(t, err)
	assert.Len(t, goals, 2)
}

func TestCommitImportWithNothingInRange(t *testing.T) {
	svc := newPlanTestService(t)
	plan := mustCreatePlan(t, svc, "u1")

	_, err := svc.CommitImport("u1", dto.CommitImportRequest{
		PlanID: plan.ID,
		Goals: []dto.ImportedGoal{
			{Year: 2050, Area: "social", GoalText: "Fora do plano"},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, appErrStatus(t, err))
}

func TestRenderPlanCSV(t *testing.T) {
	age := 30
	goals := []model.LifeGoal{
		{Year: 2026, Age: &age, Area: shared.AreaFinancial, Text: "Guardar 10%", Completed: true},
		{Year: 2027, Area: shared.AreaHealth, Text: "Correr 5km"},
	}

	out, err := renderPlanCSV(goals)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Ano,Idade,Área,Meta,Concluída", lines[0])
	assert.Equal(t, "2026,30,Financeiro,Guardar 10%,sim", lines[1])
	assert.Equal(t, "2027,,Saúde,Correr 5km,não", lines[2])
}
