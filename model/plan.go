package model

import "time"

// LifePlan groups a user's goals over a multi-year period.
type LifePlan struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"not null;index"`
	Title     string    `json:"title" gorm:"not null"`
	StartYear int       `json:"start_year" gorm:"not null"`
	EndYear   int       `json:"end_year" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LifeGoal is a single goal inside a plan, classified into one of the seven
// life areas and pinned to a calendar year.
type LifeGoal struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	PlanID      string     `json:"plan_id" gorm:"not null;index"`
	UserID      string     `json:"user_id" gorm:"not null;index"`
	Year        int        `json:"year" gorm:"not null"`
	Age         *int       `json:"age"`
	Area        string     `json:"area" gorm:"not null"`
	Text        string     `json:"text" gorm:"type:text;not null"`
	Completed   bool       `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Plan LifePlan `json:"-" gorm:"foreignKey:PlanID"`
}

// GoalNote is a free-text note attached to a goal.
type GoalNote struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	GoalID    string    `json:"goal_id" gorm:"not null;index"`
	UserID    string    `json:"user_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Goal LifeGoal `json:"-" gorm:"foreignKey:GoalID"`
}
