package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plano-vida/plano_api/model"
)

// PlanRepository handles life plans, goals and goal notes.
type PlanRepository struct {
	BaseRepository
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *PlanRepository) CreatePlan(plan *model.LifePlan) error {
	if plan.ID == "" {
		id, _ := uuid.NewV7()
		plan.ID = id.String()
	}
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt
	return r.db.Create(plan).Error
}

func (r *PlanRepository) GetPlan(userID, planID string) (*model.LifePlan, error) {
	var plan model.LifePlan
	err := r.db.Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) ListPlans(userID string) ([]model.LifePlan, error) {
	var plans []model.LifePlan
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) UpdatePlan(plan *model.LifePlan) error {
	plan.UpdatedAt = time.Now()
	return r.db.Save(plan).Error
}

func (r *PlanRepository) DeletePlan(userID, planID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND goal_id IN (?)", userID,
			tx.Model(&model.LifeGoal{}).Select("id").Where("plan_id = ?", planID),
		).Delete(&model.GoalNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ? AND user_id = ?", planID, userID).
			Delete(&model.LifeGoal{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", planID, userID).
			Delete(&model.LifePlan{}).Error
	})
}

func (r *PlanRepository) CreateGoal(goal *model.LifeGoal) error {
	if goal.ID == "" {
		id, _ := uuid.NewV7()
		goal.ID = id.String()
	}
	goal.CreatedAt = time.Now()
	goal.UpdatedAt = goal.CreatedAt
	return r.db.Create(goal).Error
}

func (r *PlanRepository) CreateGoals(goals []model.LifeGoal) error {
	if len(goals) == 0 {
		return nil
	}
	now := time.Now()
	for i := range goals {
		if goals[i].ID == "" {
			id, _ := uuid.NewV7()
			goals[i].ID = id.String()
		}
		goals[i].CreatedAt = now
		goals[i].UpdatedAt = now
	}
	return r.db.CreateInBatches(goals, 100).Error
}

func (r *PlanRepository) GetGoal(userID, goalID string) (*model.LifeGoal, error) {
	var goal model.LifeGoal
	err := r.db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *PlanRepository) ListGoals(userID, planID string) ([]model.LifeGoal, error) {
	var goals []model.LifeGoal
	err := r.db.Where("plan_id = ? AND user_id = ?", planID, userID).
		Order("year ASC, area ASC, created_at ASC").Find(&goals).Error
	return goals, err
}

func (r *PlanRepository) UpdateGoal(goal *model.LifeGoal) error {
	goal.UpdatedAt = time.Now()
	return r.db.Save(goal).Error
}

func (r *PlanRepository) DeleteGoal(userID, goalID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ? AND user_id = ?", goalID, userID).
			Delete(&model.GoalNote{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", goalID, userID).
			Delete(&model.LifeGoal{}).Error
	})
}

func (r *PlanRepository) CountGoals(planID string) (total int64, completed int64, err error) {
	if err = r.db.Model(&model.LifeGoal{}).Where("plan_id = ?", planID).Count(&total).Error; err != nil {
		return
	}
	err = r.db.Model(&model.LifeGoal{}).Where("plan_id = ? AND completed = ?", planID, true).Count(&completed).Error
	return
}

// GoalsDueInYear returns a user's open goals for the given calendar year,
// used by the reminder scheduler.
func (r *PlanRepository) GoalsDueInYear(userID string, year int) ([]model.LifeGoal, error) {
	var goals []model.LifeGoal
	err := r.db.Where("user_id = ? AND year = ? AND completed = ?", userID, year, false).
		Find(&goals).Error
	return goals, err
}

func (r *PlanRepository) CreateNote(note *model.GoalNote) error {
	if note.ID == "" {
		id, _ := uuid.NewV7()
		note.ID = id.String()
	}
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	return r.db.Create(note).Error
}

func (r *PlanRepository) ListNotes(userID, goalID string) ([]model.GoalNote, error) {
	var notes []model.GoalNote
	err := r.db.Where("goal_id = ? AND user_id = ?", goalID, userID).
		Order("created_at DESC").Find(&notes).Error
	return notes, err
}

func (r *PlanRepository) DeleteNote(userID, noteID string) error {
	return r.db.Where("id = ? AND user_id = ?", noteID, userID).
		Delete(&model.GoalNote{}).Error
}
