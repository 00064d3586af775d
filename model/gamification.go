package model

import (
	"time"

	"github.com/plano-vida/plano_api/shared"
)

// UserStreak is the per-user progress singleton. All counters are moved in a
// single conditional update keyed on Version so two tabs completing goals at
// the same time cannot lose an update.
type UserStreak struct {
	ID                  string     `json:"id" gorm:"primaryKey"`
	UserID              string     `json:"user_id" gorm:"uniqueIndex;not null"`
	CurrentStreak       int        `json:"current_streak" gorm:"default:0"`
	LongestStreak       int        `json:"longest_streak" gorm:"default:0"`
	LastActivityDate    *time.Time `json:"last_activity_date"`
	TotalGoalsCompleted int        `json:"total_goals_completed" gorm:"default:0"`
	TotalPoints         int        `json:"total_points" gorm:"default:0"`
	Level               int        `json:"level" gorm:"default:1"`
	Version             int64      `json:"-" gorm:"default:0"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Achievement is a static catalog entry. The catalog lives in code: changing
// a threshold is a code change, not a data migration.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"` // goals, streak, level
	Points      int    `json:"points"`
	Requirement int    `json:"requirement"`
}

// UserAchievement records a single unlock. The composite unique index makes
// unlocking idempotent at the storage layer.
type UserAchievement struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	AchievementID string    `json:"achievement_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	Points        int       `json:"points"`
	EarnedAt      time.Time `json:"earned_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// AchievementCatalog is the fixed set of unlockable achievements.
var AchievementCatalog = []Achievement{
	{ID: "first_goal", Name: "Primeira Meta", Description: "Complete sua primeira meta", Type: shared.AchievementTypeGoals, Points: 10, Requirement: 1},
	{ID: "goals_10", Name: "Dez Conquistas", Description: "Complete 10 metas", Type: shared.AchievementTypeGoals, Points: 25, Requirement: 10},
	{ID: "goals_50", Name: "Meio Caminho", Description: "Complete 50 metas", Type: shared.AchievementTypeGoals, Points: 50, Requirement: 50},
	{ID: "goals_100", Name: "Centenário", Description: "Complete 100 metas", Type: shared.AchievementTypeGoals, Points: 100, Requirement: 100},
	{ID: "streak_3", Name: "Aquecendo", Description: "Mantenha uma sequência de 3 dias", Type: shared.AchievementTypeStreak, Points: 15, Requirement: 3},
	{ID: "streak_7", Name: "Semana Perfeita", Description: "Mantenha uma sequência de 7 dias", Type: shared.AchievementTypeStreak, Points: 30, Requirement: 7},
	{ID: "streak_30", Name: "Mês Imparável", Description: "Mantenha uma sequência de 30 dias", Type: shared.AchievementTypeStreak, Points: 100, Requirement: 30},
	{ID: "level_5", Name: "Veterano", Description: "Alcance o nível 5", Type: shared.AchievementTypeLevel, Points: 50, Requirement: 5},
	{ID: "level_10", Name: "Mestre do Plano", Description: "Alcance o nível 10", Type: shared.AchievementTypeLevel, Points: 100, Requirement: 10},
}
