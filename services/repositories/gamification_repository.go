package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plano-vida/plano_api/model"
)

// ErrVersionConflict signals a lost optimistic-concurrency race on the
// user_streaks row. Callers reload and retry.
var ErrVersionConflict = errors.New("streak row changed concurrently")

// GamificationRepository owns the user_streaks singleton row and the
// user_achievements unlock records.
type GamificationRepository struct {
	BaseRepository
}

func NewGamificationRepository(db *gorm.DB) *GamificationRepository {
	return &GamificationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// GetOrCreateStreak returns the per-user streak row, creating a zeroed one
// lazily on first read.
func (r *GamificationRepository) GetOrCreateStreak(userID string) (*model.UserStreak, error) {
	var streak model.UserStreak
	err := r.db.Where("user_id = ?", userID).First(&streak).Error
	if err == nil {
		return &streak, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id, _ := uuid.NewV7()
	streak = model.UserStreak{
		ID:        id.String(),
		UserID:    userID,
		Level:     1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	// Another request may create the row first; the unique index on user_id
	// turns that race into a reload.
	err = r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&streak).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Where("user_id = ?", userID).First(&streak).Error
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

// SaveStreak writes every counter in one conditional update keyed on the
// version column. RowsAffected == 0 means another writer got there first and
// the caller must reload and retry; nothing is partially applied.
func (r *GamificationRepository) SaveStreak(streak *model.UserStreak) error {
	res := r.db.Model(&model.UserStreak{}).
		Where("id = ? AND version = ?", streak.ID, streak.Version).
		Updates(map[string]interface{}{
			"current_streak":        streak.CurrentStreak,
			"longest_streak":        streak.LongestStreak,
			"last_activity_date":    streak.LastActivityDate,
			"total_goals_completed": streak.TotalGoalsCompleted,
			"total_points":          streak.TotalPoints,
			"level":                 streak.Level,
			"version":               streak.Version + 1,
			"updated_at":            time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	streak.Version++
	return nil
}

// RecordAchievement inserts an unlock exactly once. The composite unique
// index on (user_id, achievement_id) plus ON CONFLICT DO NOTHING makes a
// concurrent double-award collapse into a single row; the bool reports
// whether this call created it.
func (r *GamificationRepository) RecordAchievement(userID string, def model.Achievement) (bool, error) {
	id, _ := uuid.NewV7()
	now := time.Now()
	ua := model.UserAchievement{
		ID:            id.String(),
		UserID:        userID,
		AchievementID: def.ID,
		Name:          def.Name,
		Description:   def.Description,
		Type:          def.Type,
		Points:        def.Points,
		EarnedAt:      now,
		CreatedAt:     now,
	}

	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(&ua)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GamificationRepository) GetUserAchievements(userID string) ([]model.UserAchievement, error) {
	var earned []model.UserAchievement
	err := r.db.Where("user_id = ?", userID).Order("earned_at ASC").Find(&earned).Error
	return earned, err
}

func (r *GamificationRepository) EarnedAchievementIDs(userID string) (map[string]bool, error) {
	var ids []string
	err := r.db.Model(&model.UserAchievement{}).
		Where("user_id = ?", userID).Pluck("achievement_id", &ids).Error
	if err != nil {
		return nil, err
	}
	earned := make(map[string]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

func (r *GamificationRepository) TopStreaksByPoints(limit int) ([]model.UserStreak, error) {
	var rows []model.UserStreak
	err := r.db.Order("total_points DESC, updated_at ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *GamificationRepository) UserPointsRank(userID string) (int, error) {
	streak, err := r.GetOrCreateStreak(userID)
	if err != nil {
		return 0, err
	}
	var ahead int64
	err = r.db.Model(&model.UserStreak{}).
		Where("total_points > ?", streak.TotalPoints).Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}
