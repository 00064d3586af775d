package services

import (
	stdContext "context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/shared"
)

// fakeExtractor stands in for the AI client.
type fakeExtractor struct {
	goals []dto.ImportedGoal
	err   error
	calls int
}

func (f *fakeExtractor) ExtractGoals(_ stdContext.Context, _ string) ([]dto.ImportedGoal, error) {
	f.calls++
	return f.goals, f.err
}

func newImportTestService(extractor GoalExtractor) *ImportService {
	svc := &ImportService{extractTimeout: time.Second}
	svc.SetExtractor(extractor)
	return svc
}

func appErrStatus(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	return appErr.StatusCode
}

func TestProcessUploadRejectsUnknownFormat(t *testing.T) {
	svc := newImportTestService(&fakeExtractor{})

	_, err := svc.ProcessUpload("u1", "plano.docx", []byte("conteúdo"))
	assert.Equal(t, http.StatusBadRequest, appErrStatus(t, err))
}

func TestProcessUploadRejectsPDFWithGuidance(t *testing.T) {
	svc := newImportTestService(&fakeExtractor{})

	_, err := svc.ProcessUpload("u1", "plano.pdf", []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrStatus(t, err))
	assert.Contains(t, err.Error(), "PDF")
}

func TestProcessUploadRejectsEmptyFile(t *testing.T) {
	svc := newImportTestService(&fakeExtractor{})

	_, err := svc.ProcessUpload("u1", "plano.txt", []byte("   \n  "))
	assert.Equal(t, http.StatusBadRequest, appErrStatus(t, err))
}

func TestProcessUploadTextViaAI(t *testing.T) {
	age := 30
	extractor := &fakeExtractor{goals: []dto.ImportedGoal{
		{Year: 2026, Age: &age, Area: "financeiro", GoalText: "Economizar 10% da renda"},
		{Year: 2026, Area: "hobbies", GoalText: "Aprender pintura"},
	}}
	svc := newImportTestService(extractor)

	result, err := svc.ProcessUpload("u1", "plano.txt", []byte("meu plano de vida"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "ai", result.Source)
	require.Len(t, result.Goals, 1)
	assert.Equal(t, shared.AreaFinancial, result.Goals[0].Area)
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, 1, extractor.calls)
}

func TestProcessUploadTextAIFailureHasNoFallback(t *testing.T) {
	svc := newImportTestService(&fakeExtractor{err: shared.ErrAIRateLimited})

	_, err := svc.ProcessUpload("u1", "plano.txt", []byte("meu plano de vida"))
	assert.Equal(t, http.StatusTooManyRequests, appErrStatus(t, err))
}

func TestProcessUploadSpreadsheetFallsBackToLocalParser(t *testing.T) {
	svc := newImportTestService(&fakeExtractor{err: shared.ErrAIInsufficientCredits})

	csvData := []byte("Ano,Idade,Área,Meta\n2026,30,Financeiro,Economizar 10% da renda\n2027,31,Saúde,Correr 5km\n")
	result, err := svc.ProcessUpload("u1", "plano.csv", csvData)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "local", result.Source)
	require.Len(t, result.Goals, 2)
	assert.Equal(t, shared.AreaFinancial, result.Goals[0].Area)
	assert.Equal(t, shared.AreaHealth, result.Goals[1].Area)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "leitor de planilhas local")
}

func TestProcessUploadSpreadsheetRetriesLocallyOnEmptyAIResult(t *testing.T) {
	// the model answers but extracts nothing usable
	svc := newImportTestService(&fakeExtractor{goals: nil})

	csvData := []byte("Ano,Idade,Área,Meta\n2026,30,Financeiro,Economizar 10% da renda\n")
	result, err := svc.ProcessUpload("u1", "plano.csv", csvData)
	require.NoError(t, err)

	assert.Equal(t, "local", result.Source)
	require.Len(t, result.Goals, 1)
	assert.Equal(t, "Economizar 10% da renda", result.Goals[0].GoalText)
}

func TestProcessUploadReadsEveryWorkbookSheet(t *testing.T) {
	// multi-year plans often keep one sheet per year
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Ano"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Área"))
	require.NoError(t, f.SetCellValue("Sheet1", "C1", "Meta"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 2026))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "Financeiro"))
	require.NoError(t, f.SetCellValue("Sheet1", "C2", "Quitar dívidas"))

	_, err := f.NewSheet("Plano2027")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Plano2027", "A1", "Ano"))
	require.NoError(t, f.SetCellValue("Plano2027", "B1", "Área"))
	require.NoError(t, f.SetCellValue("Plano2027", "C1", "Meta"))
	require.NoError(t, f.SetCellValue("Plano2027", "A2", 2027))
	require.NoError(t, f.SetCellValue("Plano2027", "B2", "Saúde"))
	require.NoError(t, f.SetCellValue("Plano2027", "C2", "Correr 5km"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	svc := newImportTestService(&fakeExtractor{err: shared.ErrAIInsufficientCredits})
	result, err := svc.ProcessUpload("u1", "plano.xlsx", buf.Bytes())
	require.NoError(t, err)

	texts := make([]string, 0, len(result.Goals))
	for _, g := range result.Goals {
		texts = append(texts, g.GoalText)
	}
	assert.ElementsMatch(t, []string{"Quitar dívidas", "Correr 5km"}, texts)
}

func TestProcessUploadNoValidData(t *testing.T) {
	svc := newImportTestService(&fakeExtractor{goals: nil})

	_, err := svc.ProcessUpload("u1", "plano.txt", []byte("texto sem metas"))
	assert.Equal(t, http.StatusUnprocessableEntity, appErrStatus(t, err))
}

func TestProcessUploadNoValidDataReportsDroppedRows(t *testing.T) {
	// the AI answers, but every row is out of range
	svc := newImportTestService(&fakeExtractor{goals: []dto.ImportedGoal{
		{Year: 3050, Area: "financeiro", GoalText: "Meta no futuro distante"},
	}})

	_, err := svc.ProcessUpload("u1", "plano.txt", []byte("texto"))
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode)

	warnings, ok := appErr.Data.([]string)
	require.True(t, ok)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "3050")
}

func TestFlattenRows(t *testing.T) {
	rows := [][]string{
		{"Ano", "Meta"},
		{"", ""},
		{"2026", "Correr 5km"},
	}
	assert.Equal(t, "Ano | Meta\n2026 | Correr 5km\n", flattenRows(rows))
}

func TestUnwrapMarkdownFence(t *testing.T) {
	assert.Equal(t, `[{"year":2026}]`, unwrapMarkdownFence("```json\n[{\"year\":2026}]\n```"))
	assert.Equal(t, `[{"year":2026}]`, unwrapMarkdownFence("```\n[{\"year\":2026}]\n```"))
	assert.Equal(t, `[{"year":2026}]`, unwrapMarkdownFence(`[{"year":2026}]`))
}
