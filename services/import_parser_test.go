package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/shared"
)

func TestNormalizeArea(t *testing.T) {
	cases := []struct {
		label string
		want  string
		ok    bool
	}{
		{"Família", shared.AreaFamily, true},
		{"familia", shared.AreaFamily, true},
		{"family", shared.AreaFamily, true},
		{"  Financeiro ", shared.AreaFinancial, true},
		{"Saúde", shared.AreaHealth, true},
		{"saude", shared.AreaHealth, true},
		{"spiritual", shared.AreaSpiritual, true},
		{"Carreira", shared.AreaProfessional, true},
		{"intellectual", shared.AreaIntellectual, true},
		{"health", shared.AreaHealth, true},
		{"Hobbies", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizeArea(tc.label)
		assert.Equal(t, tc.ok, ok, "label %q", tc.label)
		if tc.ok {
			assert.Equal(t, tc.want, got, "label %q", tc.label)
		}
	}
}

func TestValidateImportedGoals(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	age := 32

	raw := []dto.ImportedGoal{
		{Year: 2026, Age: &age, Area: "Financeiro", GoalText: " Economizar 10% da renda "},
		{Year: 2028, Area: "saúde", GoalText: "Correr uma maratona"},
		{Year: 2026, Area: "Hobbies", GoalText: "Aprender pintura"},
		{Year: 1492, Area: "família", GoalText: "Viagem ao Caribe"},
		{Year: 2026, Area: "social", GoalText: "   "},
	}

	valid, warnings := ValidateImportedGoals(raw, now)

	require.Len(t, valid, 2)

	assert.Equal(t, shared.AreaFinancial, valid[0].Area)
	assert.Equal(t, "Economizar 10% da renda", valid[0].GoalText)
	require.NotNil(t, valid[0].Age)
	assert.Equal(t, 32, *valid[0].Age)

	// missing age backfilled relative to the current year
	assert.Equal(t, shared.AreaHealth, valid[1].Area)
	require.NotNil(t, valid[1].Age)
	assert.Equal(t, 32, *valid[1].Age)

	// unknown area and out-of-range year each warn; blank text drops silently
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "Hobbies")
	assert.Contains(t, warnings[1], "1492")
}

func TestParseSpreadsheetRowsTabular(t *testing.T) {
	rows := [][]string{
		{"Plano de Vida 2026-2030", "", "", ""},
		{"Ano", "Idade", "Área", "Meta"},
		{"2026", "30", "Financeiro", "Economizar 10% da renda"},
		{"2026", "30", "Saúde", "Correr 5km"},
		{"2027", "31", "Carreira", "Mudar de emprego"},
		{"", "", "", ""},
		{"sem ano", "", "Social", "linha inválida"},
	}

	goals := ParseSpreadsheetRows(rows, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, goals, 3)

	assert.Equal(t, 2026, goals[0].Year)
	assert.Equal(t, "Financeiro", goals[0].Area)
	assert.Equal(t, "Economizar 10% da renda", goals[0].GoalText)
	require.NotNil(t, goals[0].Age)
	assert.Equal(t, 30, *goals[0].Age)

	assert.Equal(t, 2027, goals[2].Year)
	assert.Equal(t, "Mudar de emprego", goals[2].GoalText)
}

func TestParseSpreadsheetRowsMatrix(t *testing.T) {
	rows := [][]string{
		{"Ano", "Espiritual", "Família", "Financeiro"},
		{"2026", "Ler a bíblia", "Jantar semanal", "Quitar dívidas"},
		{"2027", "", "Viagem em família", ""},
	}

	goals := ParseSpreadsheetRows(rows, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, goals, 4)

	byText := make(map[string]dto.ImportedGoal, len(goals))
	for _, g := range goals {
		byText[g.GoalText] = g
	}

	g := byText["Ler a bíblia"]
	assert.Equal(t, 2026, g.Year)
	assert.Equal(t, shared.AreaSpiritual, g.Area)

	g = byText["Viagem em família"]
	assert.Equal(t, 2027, g.Year)
	assert.Equal(t, shared.AreaFamily, g.Area)

	g = byText["Quitar dívidas"]
	assert.Equal(t, shared.AreaFinancial, g.Area)
}

func TestParseSpreadsheetRowsMatrixKeyedByAge(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := [][]string{
		{"Idade", "Espiritual", "Financeiro"},
		{"30", "Ler a bíblia", "Quitar dívidas"},
		{"31", "", "Reserva de emergência"},
		{"35", "Retiro espiritual", ""},
	}

	goals := ParseSpreadsheetRows(rows, now)
	require.Len(t, goals, 4)

	byText := make(map[string]dto.ImportedGoal, len(goals))
	for _, g := range goals {
		byText[g.GoalText] = g
	}

	// the first listed age anchors to the current year
	g := byText["Quitar dívidas"]
	assert.Equal(t, 2026, g.Year)
	require.NotNil(t, g.Age)
	assert.Equal(t, 30, *g.Age)

	g = byText["Reserva de emergência"]
	assert.Equal(t, 2027, g.Year)

	g = byText["Retiro espiritual"]
	assert.Equal(t, 2031, g.Year)
	require.NotNil(t, g.Age)
	assert.Equal(t, 35, *g.Age)

	// every derived year survives validation
	valid, warnings := ValidateImportedGoals(goals, now)
	assert.Len(t, valid, 4)
	assert.Empty(t, warnings)
}

func TestParseSpreadsheetRowsNoHeader(t *testing.T) {
	rows := [][]string{
		{"apenas texto solto"},
		{"mais texto", "sem estrutura"},
	}
	assert.Nil(t, ParseSpreadsheetRows(rows, time.Now()))
}
