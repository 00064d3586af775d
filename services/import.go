package services

import (
	"bytes"
	stdContext "context"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/shared"
)

// ImportService turns an uploaded planning document into candidate life
// goals. Extraction prefers the AI model; spreadsheets fall back to a local
// header-matching parser when the model is unavailable.
type ImportService struct {
	context.DefaultService

	aiSvc         *AIService
	storageSvc    *StorageService
	monitoringSvc *MonitoringService

	extractor GoalExtractor

	extractTimeout time.Duration
}

const IMPORT_SVC = "import_svc"

// supportedExtensions is the upload whitelist. PDF is listed so the user
// gets targeted guidance instead of a generic rejection.
var supportedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
	".txt":  true,
	".pdf":  true,
}

func (svc ImportService) Id() string {
	return IMPORT_SVC
}

func (svc *ImportService) Configure(ctx *context.Context) error {
	svc.extractTimeout = 45 * time.Second
	return svc.DefaultService.Configure(ctx)
}

func (svc *ImportService) Start() error {
	svc.aiSvc = svc.Service(AI_SVC).(*AIService)
	svc.storageSvc = svc.Service(STORAGE_SVC).(*StorageService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)
	svc.extractor = svc.aiSvc
	return nil
}

// SetExtractor swaps the AI client, used by tests.
func (svc *ImportService) SetExtractor(e GoalExtractor) {
	svc.extractor = e
	if svc.extractTimeout == 0 {
		svc.extractTimeout = 45 * time.Second
	}
}

// ProcessUpload normalizes an uploaded file into candidate goals. The
// original file is archived to object storage; archive failures are logged
// but never fail the import.
func (svc *ImportService) ProcessUpload(userID, filename string, data []byte) (*dto.ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	if !supportedExtensions[ext] {
		return nil, shared.NewUnsupportedFormatError(fmt.Sprintf(
			"Formato %q não suportado. Envie um arquivo xlsx, xls, csv ou txt.", ext))
	}

	if ext == ".pdf" {
		return nil, shared.NewUnsupportedFormatError(
			"Arquivos PDF não podem ser lidos diretamente. Exporte seu plano como planilha (xlsx/csv) ou texto e envie novamente.")
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, shared.NewEmptyContentError("O arquivo enviado está vazio.")
	}

	svc.archiveUpload(userID, filename, data)

	text, rows, err := svc.flattenContent(ext, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, shared.NewEmptyContentError("O arquivo enviado não contém texto legível.")
	}

	isSpreadsheet := rows != nil

	result := &dto.ImportResult{Source: "ai"}

	raw, aiErr := svc.extractWithTimeout(text)
	if svc.monitoringSvc != nil {
		outcome := "success"
		if aiErr != nil {
			outcome = "error"
		}
		svc.monitoringSvc.RecordAIRequest(outcome)
	}
	if aiErr != nil {
		if !isSpreadsheet {
			return nil, svc.mapExtractionError(aiErr)
		}

		// Spreadsheets have enough structure for the deterministic parser.
		log.WithError(aiErr).Warn("AI extraction failed, using local spreadsheet parser")
		raw = ParseSpreadsheetRows(rows, time.Now())
		result.Source = "local"
		result.Warnings = append(result.Warnings,
			"A extração inteligente não está disponível no momento. O arquivo foi processado pelo leitor de planilhas local.")
	}

	valid, warnings := ValidateImportedGoals(raw, time.Now())
	result.Warnings = append(result.Warnings, warnings...)

	if len(valid) == 0 {
		// One more chance for spreadsheets: the model may have answered but
		// extracted nothing usable.
		if isSpreadsheet && result.Source == "ai" {
			localGoals, localWarnings := ValidateImportedGoals(ParseSpreadsheetRows(rows, time.Now()), time.Now())
			if len(localGoals) > 0 {
				result.Source = "local"
				result.Goals = localGoals
				result.Warnings = append(result.Warnings, localWarnings...)
				result.Success = true
				svc.recordImportMetric(result.Source, "success")
				return result, nil
			}
		}
		svc.recordImportMetric(result.Source, "no_valid_data")
		appErr := shared.NewNoValidDataError("Nenhuma meta válida foi encontrada no arquivo.")
		// Tell the user which rows were dropped and why.
		appErr.Data = result.Warnings
		return nil, appErr
	}

	result.Goals = valid
	result.Success = true
	svc.recordImportMetric(result.Source, "success")
	return result, nil
}

func (svc *ImportService) recordImportMetric(source, outcome string) {
	if svc.monitoringSvc != nil {
		svc.monitoringSvc.RecordImport(source, outcome)
	}
}

func (svc *ImportService) extractWithTimeout(text string) ([]dto.ImportedGoal, error) {
	if svc.extractor == nil {
		return nil, shared.NewExternalServiceError(nil, "AI extraction is not configured")
	}
	if ai, ok := svc.extractor.(*AIService); ok && !ai.Enabled() {
		return nil, shared.NewExternalServiceError(nil, "AI extraction is not configured")
	}

	ctx, cancel := stdContext.WithTimeout(stdContext.Background(), svc.extractTimeout)
	defer cancel()

	return svc.extractor.ExtractGoals(ctx, text)
}

// mapExtractionError translates AI sentinels into user-facing errors for
// formats that have no local fallback.
func (svc *ImportService) mapExtractionError(err error) error {
	switch {
	case errors.Is(err, shared.ErrAIRateLimited):
		return shared.NewTooManyRequestsError(err,
			"O serviço de extração está sobrecarregado. Tente novamente em alguns minutos.")
	case errors.Is(err, shared.ErrAIInsufficientCredits):
		return shared.NewExternalServiceError(err,
			"O serviço de extração está temporariamente indisponível.")
	default:
		return shared.NewExternalServiceError(err,
			"Não foi possível extrair metas do arquivo. Tente novamente ou envie uma planilha estruturada.")
	}
}

// flattenContent produces the pipe-delimited text fed to the model. For
// spreadsheet formats it also returns the raw rows for the local parser.
func (svc *ImportService) flattenContent(ext string, data []byte) (string, [][]string, error) {
	switch ext {
	case ".xlsx", ".xls":
		rows, err := readWorkbookRows(data)
		if err != nil {
			return "", nil, shared.NewUnsupportedFormatError(
				"Não foi possível ler a planilha. Salve o arquivo como xlsx e tente novamente.")
		}
		return flattenRows(rows), rows, nil

	case ".csv":
		reader := csv.NewReader(bytes.NewReader(data))
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		if err != nil {
			return "", nil, shared.NewUnsupportedFormatError(
				"Não foi possível ler o arquivo CSV. Verifique o formato e tente novamente.")
		}
		return flattenRows(records), records, nil

	case ".txt":
		return string(data), nil, nil
	}

	return "", nil, shared.NewUnsupportedFormatError("Formato de arquivo não suportado.")
}

func readWorkbookRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	// Flatten sheet by sheet; multi-year plans often keep one sheet per year.
	var all [][]string
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}

func flattenRows(rows [][]string) string {
	var sb strings.Builder
	for _, row := range rows {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (svc *ImportService) archiveUpload(userID, filename string, data []byte) {
	if svc.storageSvc == nil {
		return
	}

	id, _ := uuid.NewV7()
	objectName := fmt.Sprintf("%s%s/%s_%s", ImportPrefix, userID, id.String(), filepath.Base(filename))

	_, err := svc.storageSvc.UploadFile(objectName, bytes.NewReader(data), int64(len(data)), "application/octet-stream")
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to archive uploaded import file")
	}
}
