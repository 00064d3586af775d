package dto

import "time"

type CreatePlanRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=200"`
	StartYear int    `json:"start_year" validate:"required,gte=1900,lte=2200"`
	EndYear   int    `json:"end_year" validate:"required,gte=1900,lte=2200"`
}

func (r CreatePlanRequest) Validate() error {
	return validate.Struct(r)
}

type UpdatePlanRequest struct {
	Title     string `json:"title" validate:"omitempty,min=1,max=200"`
	StartYear int    `json:"start_year" validate:"omitempty,gte=1900,lte=2200"`
	EndYear   int    `json:"end_year" validate:"omitempty,gte=1900,lte=2200"`
}

func (r UpdatePlanRequest) Validate() error {
	return validate.Struct(r)
}

type PlanResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	StartYear      int       `json:"start_year"`
	EndYear        int       `json:"end_year"`
	TotalGoals     int       `json:"total_goals"`
	CompletedGoals int       `json:"completed_goals"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateGoalRequest struct {
	Year int    `json:"year" validate:"required,gte=1900,lte=2200"`
	Age  *int   `json:"age" validate:"omitempty,gte=0,lte=150"`
	Area string `json:"area" validate:"required,life_area"`
	Text string `json:"text" validate:"required,min=1"`
}

func (r CreateGoalRequest) Validate() error {
	return validate.Struct(r)
}

type UpdateGoalRequest struct {
	Year *int    `json:"year" validate:"omitempty,gte=1900,lte=2200"`
	Age  *int    `json:"age" validate:"omitempty,gte=0,lte=150"`
	Area *string `json:"area" validate:"omitempty,life_area"`
	Text *string `json:"text" validate:"omitempty,min=1"`
}

func (r UpdateGoalRequest) Validate() error {
	return validate.Struct(r)
}

type GoalResponse struct {
	ID          string     `json:"id"`
	PlanID      string     `json:"plan_id"`
	Year        int        `json:"year"`
	Age         *int       `json:"age"`
	Area        string     `json:"area"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CompleteGoalResponse carries everything the UI needs to acknowledge a
// completion: the updated goal, the streak state and any fresh unlocks.
type CompleteGoalResponse struct {
	Goal         GoalResponse          `json:"goal"`
	Streak       StreakResponse        `json:"streak"`
	NewUnlocks   []AchievementResponse `json:"new_achievements"`
	PointsEarned int                   `json:"points_earned"`
}

type AreaProgress struct {
	Area           string  `json:"area"`
	TotalGoals     int     `json:"total_goals"`
	CompletedGoals int     `json:"completed_goals"`
	Percent        float64 `json:"percent"`
}

type YearProgress struct {
	Year           int     `json:"year"`
	TotalGoals     int     `json:"total_goals"`
	CompletedGoals int     `json:"completed_goals"`
	Percent        float64 `json:"percent"`
}

type PlanProgressResponse struct {
	PlanID         string         `json:"plan_id"`
	Title          string         `json:"title"`
	TotalGoals     int            `json:"total_goals"`
	CompletedGoals int            `json:"completed_goals"`
	Percent        float64        `json:"percent"`
	ByArea         []AreaProgress `json:"by_area"`
	ByYear         []YearProgress `json:"by_year"`
}

type CreateNoteRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

func (r CreateNoteRequest) Validate() error {
	return validate.Struct(r)
}

type NoteResponse struct {
	ID        string    `json:"id"`
	GoalID    string    `json:"goal_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ExportResponse struct {
	Format    string    `json:"format"`
	ObjectKey string    `json:"object_key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
