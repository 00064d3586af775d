package dto

import "time"

type StreakResponse struct {
	CurrentStreak       int        `json:"current_streak"`
	LongestStreak       int        `json:"longest_streak"`
	LastActivityDate    *time.Time `json:"last_activity_date"`
	TotalGoalsCompleted int        `json:"total_goals_completed"`
	TotalPoints         int        `json:"total_points"`
	Level               int        `json:"level"`
	PointsToNextLevel   int        `json:"points_to_next_level"`
}

type AchievementResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Points      int        `json:"points"`
	Requirement int        `json:"requirement"`
	Unlocked    bool       `json:"unlocked"`
	EarnedAt    *time.Time `json:"earned_at,omitempty"`
}

type AchievementListResponse struct {
	Achievements []AchievementResponse `json:"achievements"`
	Unlocked     int                   `json:"unlocked"`
	Total        int                   `json:"total"`
}

type LeaderboardEntry struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	TotalPoints int    `json:"total_points"`
	Level       int    `json:"level"`
	Rank        int    `json:"rank"`
}

type LeaderboardResponse struct {
	Period      string             `json:"period"`
	TopUsers    []LeaderboardEntry `json:"top_users"`
	CurrentUser *LeaderboardEntry  `json:"current_user,omitempty"`
}
