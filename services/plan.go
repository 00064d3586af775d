package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/model"
	"github.com/plano-vida/plano_api/services/repositories"
	"github.com/plano-vida/plano_api/shared"
)

// PlanService owns life plans and their goals. Completing a goal feeds the
// gamification engine; exports land in object storage.
type PlanService struct {
	context.DefaultService

	sqlSvc          *SqlService
	gamificationSvc *GamificationService
	storageSvc      *StorageService
	monitoringSvc   *MonitoringService

	repo *repositories.PlanRepository
}

const PLAN_SVC = "plan_svc"

const exportURLExpiry = 1 * time.Hour

func (svc PlanService) Id() string {
	return PLAN_SVC
}

func (svc *PlanService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.gamificationSvc = svc.Service(GAMIFICATION_SVC).(*GamificationService)
	svc.storageSvc = svc.Service(STORAGE_SVC).(*StorageService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)
	svc.repo = repositories.NewPlanRepository(svc.sqlSvc.Db())
	return nil
}

// ==================== PLANS ====================

func (svc *PlanService) CreatePlan(userID string, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if req.EndYear < req.StartYear {
		return nil, shared.NewBadRequestError(nil, "End year must not be before start year")
	}

	plan := &model.LifePlan{
		UserID:    userID,
		Title:     req.Title,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
	}
	if err := svc.repo.CreatePlan(plan); err != nil {
		return nil, shared.NewPersistenceError(err, "Failed to create plan")
	}

	return svc.planResponse(plan)
}

func (svc *PlanService) GetPlan(userID, planID string) (*dto.PlanResponse, error) {
	plan, err := svc.loadPlan(userID, planID)
	if err != nil {
		return nil, err
	}
	return svc.planResponse(plan)
}

func (svc *PlanService) ListPlans(userID string) ([]dto.PlanResponse, error) {
	plans, err := svc.repo.ListPlans(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load plans")
	}

	out := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		resp, err := svc.planResponse(&plans[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (svc *PlanService) UpdatePlan(userID, planID string, req dto.UpdatePlanRequest) (*dto.PlanResponse, error) {
	plan, err := svc.loadPlan(userID, planID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		plan.Title = req.Title
	}
	if req.StartYear != 0 {
		plan.StartYear = req.StartYear
	}
	if req.EndYear != 0 {
		plan.EndYear = req.EndYear
	}
	if plan.EndYear < plan.StartYear {
		return nil, shared.NewBadRequestError(nil, "End year must not be before start year")
	}

	if err := svc.repo.UpdatePlan(plan); err != nil {
		return nil, shared.NewPersistenceError(err, "Failed to update plan")
	}
	return svc.planResponse(plan)
}

func (svc *PlanService) DeletePlan(userID, planID string) error {
	if _, err := svc.loadPlan(userID, planID); err != nil {
		return err
	}
	if err := svc.repo.DeletePlan(userID, planID); err != nil {
		return shared.NewPersistenceError(err, "Failed to delete plan")
	}
	return nil
}

func (svc *PlanService) loadPlan(userID, planID string) (*model.LifePlan, error) {
	plan, err := svc.repo.GetPlan(userID, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Plan not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load plan")
	}
	return plan, nil
}

func (svc *PlanService) planResponse(plan *model.LifePlan) (*dto.PlanResponse, error) {
	total, completed, err := svc.repo.CountGoals(plan.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to count goals")
	}
	return &dto.PlanResponse{
		ID:             plan.ID,
		Title:          plan.Title,
		StartYear:      plan.StartYear,
		EndYear:        plan.EndYear,
		TotalGoals:     int(total),
		CompletedGoals: int(completed),
		CreatedAt:      plan.CreatedAt,
	}, nil
}

// ==================== GOALS ====================

func (svc *PlanService) CreateGoal(userID, planID string, req dto.CreateGoalRequest) (*dto.GoalResponse, error) {
	plan, err := svc.loadPlan(userID, planID)
	if err != nil {
		return nil, err
	}
	if req.Year < plan.StartYear || req.Year > plan.EndYear {
		return nil, shared.NewBadRequestError(nil,
			fmt.Sprintf("Year must be between %d and %d", plan.StartYear, plan.EndYear))
	}

	goal := &model.LifeGoal{
		PlanID: planID,
		UserID: userID,
		Year:   req.Year,
		Age:    req.Age,
		Area:   req.Area,
		Text:   req.Text,
	}
	if err := svc.repo.CreateGoal(goal); err != nil {
		return nil, shared.NewPersistenceError(err, "Failed to create goal")
	}

	resp := goalResponse(goal)
	return &resp, nil
}

func (svc *PlanService) ListGoals(userID, planID string) ([]dto.GoalResponse, error) {
	if _, err := svc.loadPlan(userID, planID); err != nil {
		return nil, err
	}

	goals, err := svc.repo.ListGoals(userID, planID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load goals")
	}

	out := make([]dto.GoalResponse, 0, len(goals))
	for i := range goals {
		out = append(out, goalResponse(&goals[i]))
	}
	return out, nil
}

func (svc *PlanService) UpdateGoal(userID, goalID string, req dto.UpdateGoalRequest) (*dto.GoalResponse, error) {
	goal, err := svc.loadGoal(userID, goalID)
	if err != nil {
		return nil, err
	}

	if req.Year != nil {
		goal.Year = *req.Year
	}
	if req.Age != nil {
		goal.Age = req.Age
	}
	if req.Area != nil {
		goal.Area = *req.Area
	}
	if req.Text != nil {
		goal.Text = *req.Text
	}

	if err := svc.repo.UpdateGoal(goal); err != nil {
		return nil, shared.NewPersistenceError(err, "Failed to update goal")
	}

	resp := goalResponse(goal)
	return &resp, nil
}

func (svc *PlanService) DeleteGoal(userID, goalID string) error {
	if _, err := svc.loadGoal(userID, goalID); err != nil {
		return err
	}
	if err := svc.repo.DeleteGoal(userID, goalID); err != nil {
		return shared.NewPersistenceError(err, "Failed to delete goal")
	}
	return nil
}

// CompleteGoal marks a goal done and routes the completion through the
// gamification engine. Completing an already-completed goal neither awards
// points again nor touches the streak.
func (svc *PlanService) CompleteGoal(userID, goalID string) (*dto.CompleteGoalResponse, error) {
	goal, err := svc.loadGoal(userID, goalID)
	if err != nil {
		return nil, err
	}

	if goal.Completed {
		return nil, shared.NewConflictError(nil, "Goal is already completed")
	}

	now := time.Now()
	goal.Completed = true
	goal.CompletedAt = &now
	if err := svc.repo.UpdateGoal(goal); err != nil {
		return nil, shared.NewPersistenceError(err, "Failed to complete goal")
	}

	streak, unlocks, err := svc.gamificationSvc.RecordGoalCompletion(userID, now)
	if err != nil {
		// Roll the goal back so the user can retry and still earn the points.
		goal.Completed = false
		goal.CompletedAt = nil
		if rbErr := svc.repo.UpdateGoal(goal); rbErr != nil {
			log.WithError(rbErr).WithField("goal_id", goalID).Error("Failed to roll back goal completion")
		}
		return nil, err
	}

	if svc.monitoringSvc != nil {
		svc.monitoringSvc.RecordGoalCompleted()
	}

	resp := &dto.CompleteGoalResponse{
		Goal:         goalResponse(goal),
		PointsEarned: svc.gamificationSvc.pointsPerGoal,
		Streak: dto.StreakResponse{
			CurrentStreak:       streak.CurrentStreak,
			LongestStreak:       streak.LongestStreak,
			LastActivityDate:    streak.LastActivityDate,
			TotalGoalsCompleted: streak.TotalGoalsCompleted,
			TotalPoints:         streak.TotalPoints,
			Level:               streak.Level,
			PointsToNextLevel:   streak.Level*100 - streak.TotalPoints,
		},
	}
	for _, def := range unlocks {
		resp.NewUnlocks = append(resp.NewUnlocks, dto.AchievementResponse{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Type:        def.Type,
			Points:      def.Points,
			Requirement: def.Requirement,
			Unlocked:    true,
		})
	}

	return resp, nil
}

// UncompleteGoal reopens a goal. Points and streak history are kept; the
// engine only ever moves forward.
func (svc *PlanService) UncompleteGoal(userID, goalID string) (*dto.GoalResponse, error) {
	goal, err := svc.loadGoal(userID, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.Completed {
		return nil, shared.NewConflictError(nil, "Goal is not completed")
	}

	goal.Completed = false
	goal.CompletedAt = nil
	if err := svc.repo.UpdateGoal(goal); err != nil {
		return nil, shared.NewPersistenceError(err, "Failed to reopen goal")
	}

	resp := goalResponse(goal)
	return &resp, nil
}

func (svc *PlanService) loadGoal(userID, goalID string) (*model.LifeGoal, error) {
	goal, err := svc.repo.GetGoal(userID, goalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(err, "Goal not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load goal")
	}
	return goal, nil
}

func goalResponse(goal *model.LifeGoal) dto.GoalResponse {
	return dto.GoalResponse{
		ID:          goal.ID,
		PlanID:      goal.PlanID,
		Year:        goal.Year,
		Age:         goal.Age,
		Area:        goal.Area,
		Text:        goal.Text,
		Completed:   goal.Completed,
		CompletedAt: goal.CompletedAt,
		CreatedAt:   goal.CreatedAt,
	}
}

// ==================== NOTES ====================

func (svc *PlanService) CreateNote(userID, goalID string, req dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	if _, err := svc.loadGoal(userID, goalID); err != nil {
		return nil, err
	}

	note := &model.GoalNote{
		GoalID:  goalID,
		UserID:  userID,
		Content: req.Content,
	}
	if err := svc.repo.CreateNote(note); err != nil {
		return nil, shared.NewPersistenceError(err, "Failed to create note")
	}

	return &dto.NoteResponse{
		ID:        note.ID,
		GoalID:    note.GoalID,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
	}, nil
}

func (svc *PlanService) ListNotes(userID, goalID string) ([]dto.NoteResponse, error) {
	if _, err := svc.loadGoal(userID, goalID); err != nil {
		return nil, err
	}

	notes, err := svc.repo.ListNotes(userID, goalID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load notes")
	}

	out := make([]dto.NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, dto.NoteResponse{
			ID:        n.ID,
			GoalID:    n.GoalID,
			Content:   n.Content,
			CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}

func (svc *PlanService) DeleteNote(userID, noteID string) error {
	if err := svc.repo.DeleteNote(userID, noteID); err != nil {
		return shared.NewPersistenceError(err, "Failed to delete note")
	}
	return nil
}

// ==================== PROGRESS ====================

func (svc *PlanService) GetProgress(userID, planID string) (*dto.PlanProgressResponse, error) {
	plan, err := svc.loadPlan(userID, planID)
	if err != nil {
		return nil, err
	}

	goals, err := svc.repo.ListGoals(userID, planID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load goals")
	}

	resp := &dto.PlanProgressResponse{
		PlanID: plan.ID,
		Title:  plan.Title,
	}

	byArea := map[string]*dto.AreaProgress{}
	byYear := map[int]*dto.YearProgress{}

	for _, g := range goals {
		resp.TotalGoals++

		ap, ok := byArea[g.Area]
		if !ok {
			ap = &dto.AreaProgress{Area: g.Area}
			byArea[g.Area] = ap
		}
		yp, ok := byYear[g.Year]
		if !ok {
			yp = &dto.YearProgress{Year: g.Year}
			byYear[g.Year] = yp
		}

		ap.TotalGoals++
		yp.TotalGoals++
		if g.Completed {
			resp.CompletedGoals++
			ap.CompletedGoals++
			yp.CompletedGoals++
		}
	}

	if resp.TotalGoals > 0 {
		resp.Percent = percent(resp.CompletedGoals, resp.TotalGoals)
	}

	// Areas come back in canonical display order, skipping empty ones.
	for _, area := range shared.LifeAreas {
		if ap, ok := byArea[area]; ok {
			ap.Percent = percent(ap.CompletedGoals, ap.TotalGoals)
			resp.ByArea = append(resp.ByArea, *ap)
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		yp := byYear[y]
		yp.Percent = percent(yp.CompletedGoals, yp.TotalGoals)
		resp.ByYear = append(resp.ByYear, *yp)
	}

	return resp, nil
}

func percent(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// ==================== IMPORT COMMIT ====================

// CommitImport bulk-inserts reviewed import candidates into a plan. Goals
// whose year falls outside the plan range are skipped, not rejected.
func (svc *PlanService) CommitImport(userID string, req dto.CommitImportRequest) (*dto.CommitImportResponse, error) {
	plan, err := svc.loadPlan(userID, req.PlanID)
	if err != nil {
		return nil, err
	}

	goals := make([]model.LifeGoal, 0, len(req.Goals))
	skipped := 0
	for _, g := range req.Goals {
		if g.Year < plan.StartYear || g.Year > plan.EndYear {
			skipped++
			continue
		}
		area, ok := NormalizeArea(g.Area)
		if !ok {
			skipped++
			continue
		}
		goals = append(goals, model.LifeGoal{
			PlanID: plan.ID,
			UserID: userID,
			Year:   g.Year,
			Age:    g.Age,
			Area:   area,
			Text:   g.GoalText,
		})
	}

	if len(goals) == 0 {
		return nil, shared.NewNoValidDataError("No goals fit within the plan's year range")
	}

	if err := svc.repo.CreateGoals(goals); err != nil {
		return nil, shared.NewPersistenceError(err, "Failed to persist imported goals")
	}

	return &dto.CommitImportResponse{
		PlanID:   plan.ID,
		Imported: len(goals),
		Skipped:  skipped,
	}, nil
}

// ==================== EXPORT ====================

var areaLabels = map[string]string{
	shared.AreaSpiritual:    "Espiritual",
	shared.AreaIntellectual: "Intelectual",
	shared.AreaFamily:       "Família",
	shared.AreaSocial:       "Social",
	shared.AreaFinancial:    "Financeiro",
	shared.AreaProfessional: "Profissional",
	shared.AreaHealth:       "Saúde",
}

// ExportPlan renders the plan to csv or xlsx, uploads it and returns a
// presigned download URL.
func (svc *PlanService) ExportPlan(userID, planID, format string) (*dto.ExportResponse, error) {
	plan, err := svc.loadPlan(userID, planID)
	if err != nil {
		return nil, err
	}

	goals, err := svc.repo.ListGoals(userID, planID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load goals")
	}

	var content []byte
	var contentType string

	switch format {
	case "csv":
		content, err = renderPlanCSV(goals)
		contentType = "text/csv"
	case "xlsx":
		content, err = renderPlanXLSX(goals)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return nil, shared.NewBadRequestError(nil, "Format must be csv or xlsx")
	}
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to render export")
	}

	id, _ := uuid.NewV7()
	objectKey := fmt.Sprintf("%s%s/%s_%s.%s", ExportPrefix, userID, id.String(), plan.ID, format)

	_, err = svc.storageSvc.UploadFile(objectKey, bytes.NewReader(content), int64(len(content)), contentType)
	if err != nil {
		return nil, shared.NewExternalServiceError(err, "Failed to store export")
	}

	url, err := svc.storageSvc.GetFileURL(objectKey, exportURLExpiry)
	if err != nil {
		return nil, shared.NewExternalServiceError(err, "Failed to sign export URL")
	}

	return &dto.ExportResponse{
		Format:    format,
		ObjectKey: objectKey,
		URL:       url,
		ExpiresAt: time.Now().Add(exportURLExpiry),
	}, nil
}

func renderPlanCSV(goals []model.LifeGoal) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Ano", "Idade", "Área", "Meta", "Concluída"}); err != nil {
		return nil, err
	}
	for _, g := range goals {
		age := ""
		if g.Age != nil {
			age = fmt.Sprintf("%d", *g.Age)
		}
		done := "não"
		if g.Completed {
			done = "sim"
		}
		if err := w.Write([]string{
			fmt.Sprintf("%d", g.Year), age, areaLabels[g.Area], g.Text, done,
		}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderPlanXLSX(goals []model.LifeGoal) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Plano de Vida"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Ano", "Idade", "Área", "Meta", "Concluída"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, g := range goals {
		values := []interface{}{g.Year, nil, areaLabels[g.Area], g.Text, g.Completed}
		if g.Age != nil {
			values[1] = *g.Age
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
