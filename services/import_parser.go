package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/shared"
)

// Year bounds accepted for imported goals. Anything outside is dropped with
// a warning rather than failing the whole import.
const (
	minGoalYear = 1900
	maxGoalYear = 2200
)

// defaultAgeOffset backfills a missing age as (year - currentYear) + 30.
const defaultAgeOffset = 30

// areaSynonyms maps lowercased Portuguese and English spellings (accented and
// plain) to the seven canonical area ids.
var areaSynonyms = map[string]string{
	"espiritual": shared.AreaSpiritual,
	"spiritual":  shared.AreaSpiritual,
	"fé":         shared.AreaSpiritual,
	"fe":         shared.AreaSpiritual,
	"religião":   shared.AreaSpiritual,
	"religiao":   shared.AreaSpiritual,

	"intelectual":  shared.AreaIntellectual,
	"intellectual": shared.AreaIntellectual,
	"estudos":      shared.AreaIntellectual,
	"educação":     shared.AreaIntellectual,
	"educacao":     shared.AreaIntellectual,
	"conhecimento": shared.AreaIntellectual,
	"aprendizado":  shared.AreaIntellectual,

	"família":  shared.AreaFamily,
	"familia":  shared.AreaFamily,
	"family":   shared.AreaFamily,
	"familiar": shared.AreaFamily,

	"social":   shared.AreaSocial,
	"amigos":   shared.AreaSocial,
	"amizades": shared.AreaSocial,
	"friends":  shared.AreaSocial,

	"financeiro": shared.AreaFinancial,
	"financeira": shared.AreaFinancial,
	"finanças":   shared.AreaFinancial,
	"financas":   shared.AreaFinancial,
	"financial":  shared.AreaFinancial,
	"dinheiro":   shared.AreaFinancial,
	"money":      shared.AreaFinancial,

	"profissional": shared.AreaProfessional,
	"professional": shared.AreaProfessional,
	"carreira":     shared.AreaProfessional,
	"career":       shared.AreaProfessional,
	"trabalho":     shared.AreaProfessional,
	"work":         shared.AreaProfessional,

	"saúde":          shared.AreaHealth,
	"saude":          shared.AreaHealth,
	"health":         shared.AreaHealth,
	"física":         shared.AreaHealth,
	"fisica":         shared.AreaHealth,
	"física e saúde": shared.AreaHealth,
	"fitness":        shared.AreaHealth,
	"corpo":          shared.AreaHealth,
}

// NormalizeArea resolves an area label to its canonical id. The boolean is
// false when the label is unknown.
func NormalizeArea(label string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return "", false
	}
	if shared.IsLifeArea(key) {
		return key, true
	}
	area, ok := areaSynonyms[key]
	return area, ok
}

// ValidateImportedGoals filters raw extracted goals down to the ones worth
// keeping. Blank goal text is dropped silently; unknown areas and
// out-of-range years are dropped with a warning. Missing ages are backfilled
// relative to the current year.
func ValidateImportedGoals(raw []dto.ImportedGoal, now time.Time) ([]dto.ImportedGoal, []string) {
	var valid []dto.ImportedGoal
	var warnings []string

	currentYear := now.Year()

	for _, g := range raw {
		text := strings.TrimSpace(g.GoalText)
		if text == "" {
			continue
		}

		area, ok := NormalizeArea(g.Area)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("Área desconhecida %q ignorada (meta: %s)", g.Area, truncateForLog(text, 60)))
			continue
		}

		if g.Year < minGoalYear || g.Year > maxGoalYear {
			warnings = append(warnings, fmt.Sprintf("Ano %d fora do intervalo permitido (meta: %s)", g.Year, truncateForLog(text, 60)))
			continue
		}

		age := g.Age
		if age == nil {
			backfilled := (g.Year - currentYear) + defaultAgeOffset
			age = &backfilled
		}

		valid = append(valid, dto.ImportedGoal{
			Year:     g.Year,
			Age:      age,
			Area:     area,
			GoalText: text,
		})
	}

	return valid, warnings
}

// ==================== LOCAL SPREADSHEET PARSER ====================

// headerColumns maps recognized header labels to logical columns.
var headerColumns = map[string]string{
	"ano":       "year",
	"year":      "year",
	"idade":     "age",
	"age":       "age",
	"área":      "area",
	"area":      "area",
	"meta":      "goal",
	"metas":     "goal",
	"objetivo":  "goal",
	"objetivos": "goal",
	"goal":      "goal",
	"goals":     "goal",
}

// ParseSpreadsheetRows recovers goals from flattened spreadsheet rows without
// calling the AI. It recognizes two layouts: a tabular sheet with a header
// row (year/age/area/goal columns in any order) and a matrix sheet where the
// first column is a year or an age and the header row names one area per
// column. Age-keyed rows anchor to now: the first listed age is the current
// year, each age above it one year later.
func ParseSpreadsheetRows(rows [][]string, now time.Time) []dto.ImportedGoal {
	headerIdx, layout, columns := detectLayout(rows)
	if headerIdx < 0 {
		return nil
	}

	switch layout {
	case "tabular":
		return parseTabular(rows[headerIdx+1:], columns)
	case "matrix":
		return parseMatrix(rows[headerIdx+1:], columns, now)
	}
	return nil
}

// detectLayout scans the first few rows for a recognizable header. columns
// maps column index to logical meaning ("year", "age", "area", "goal" for
// tabular; the canonical area id for matrix).
func detectLayout(rows [][]string) (headerIdx int, layout string, columns map[int]string) {
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}

	for i := 0; i < limit; i++ {
		row := rows[i]

		tabular := map[int]string{}
		matrix := map[int]string{}
		hasYearCol := false

		for col, cell := range row {
			key := strings.ToLower(strings.TrimSpace(cell))
			if key == "" {
				continue
			}
			if logical, ok := headerColumns[key]; ok {
				tabular[col] = logical
				if logical == "year" {
					hasYearCol = true
				}
				continue
			}
			if area, ok := NormalizeArea(key); ok {
				matrix[col] = area
			}
		}

		// A tabular header needs at least a year column and a goal column.
		if hasYearCol && containsValue(tabular, "goal") {
			return i, "tabular", tabular
		}
		// A matrix header needs at least two area columns; the year lives in
		// the first column of each data row.
		if len(matrix) >= 2 {
			return i, "matrix", matrix
		}
	}

	return -1, "", nil
}

func containsValue(m map[int]string, v string) bool {
	for _, x := range m {
		if x == v {
			return true
		}
	}
	return false
}

func parseTabular(rows [][]string, columns map[int]string) []dto.ImportedGoal {
	var goals []dto.ImportedGoal

	for _, row := range rows {
		var goal dto.ImportedGoal
		for col, logical := range columns {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			switch logical {
			case "year":
				if y, err := strconv.Atoi(cell); err == nil {
					goal.Year = y
				}
			case "age":
				if a, err := strconv.Atoi(cell); err == nil {
					goal.Age = &a
				}
			case "area":
				goal.Area = cell
			case "goal":
				goal.GoalText = cell
			}
		}

		if goal.Year != 0 && goal.GoalText != "" {
			goals = append(goals, goal)
		}
	}

	return goals
}

// maxHumanAge bounds first-column values read as an age instead of a year.
const maxHumanAge = 150

func parseMatrix(rows [][]string, areaByCol map[int]string, now time.Time) []dto.ImportedGoal {
	var goals []dto.ImportedGoal
	firstAge := -1

	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		key, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}

		var year int
		var age *int
		switch {
		case key >= minGoalYear && key <= maxGoalYear:
			year = key
		case key >= 0 && key <= maxHumanAge:
			if firstAge < 0 {
				firstAge = key
			}
			year = now.Year() + (key - firstAge)
			a := key
			age = &a
		default:
			continue
		}

		for col, area := range areaByCol {
			if col >= len(row) {
				continue
			}
			text := strings.TrimSpace(row[col])
			if text == "" {
				continue
			}
			goals = append(goals, dto.ImportedGoal{
				Year:     year,
				Age:      age,
				Area:     area,
				GoalText: text,
			})
		}
	}

	return goals
}
