package dto

// ImportedGoal is a candidate goal produced by the import normalizer. It is
// not persisted by the normalizer itself; the caller commits it into a plan.
type ImportedGoal struct {
	Year     int    `json:"year"`
	Age      *int   `json:"age"`
	Area     string `json:"area"`
	GoalText string `json:"goalText"`
}

type ImportResult struct {
	Success  bool           `json:"success"`
	Goals    []ImportedGoal `json:"goals"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
	Source   string         `json:"source"` // ai, local
}

type CommitImportRequest struct {
	PlanID string         `json:"plan_id" validate:"required"`
	Goals  []ImportedGoal `json:"goals" validate:"required,min=1,dive"`
}

func (r CommitImportRequest) Validate() error {
	return validate.Struct(r)
}

type CommitImportResponse struct {
	PlanID   string `json:"plan_id"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}
