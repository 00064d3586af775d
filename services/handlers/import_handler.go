package handlers

import (
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/plano-vida/plano_api/dto"
	"github.com/plano-vida/plano_api/shared"
)

// maxImportFileSize bounds uploads to 10 MB.
const maxImportFileSize = 10 << 20

type ImportHandler struct {
	importSvc  ImportServiceInterface
	planSvc    PlanServiceInterface
	billingSvc BillingServiceInterface
}

func NewImportHandler(importSvc ImportServiceInterface, planSvc PlanServiceInterface, billingSvc BillingServiceInterface) *ImportHandler {
	return &ImportHandler{
		importSvc:  importSvc,
		planSvc:    planSvc,
		billingSvc: billingSvc,
	}
}

// @Summary Upload a planning document for extraction
// @Description Accepts xlsx, xls, csv or txt and returns candidate goals for review
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param file formData file true "Planning document"
// @Success 200 {object} shared.Response{data=dto.ImportResult}
// @Router /api/v1/import [post]
func (h *ImportHandler) Upload(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	if err := h.billingSvc.RequirePremium(userID); err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return shared.NewBadRequestError(err, "Missing file upload")
	}
	if fileHeader.Size > maxImportFileSize {
		return shared.NewBadRequestError(nil, "File exceeds the 10MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return shared.NewBadRequestError(err, "Failed to open uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportFileSize+1))
	if err != nil {
		return shared.NewInternalError(err, "Failed to read uploaded file")
	}
	if len(data) > maxImportFileSize {
		return shared.NewBadRequestError(nil, "File exceeds the 10MB limit")
	}

	resp, err := h.importSvc.ProcessUpload(userID, fileHeader.Filename, data)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "File processed", resp)
}

// @Summary Commit reviewed import candidates into a plan
// @Tags import
// @Accept json
// @Produce json
// @Security Bearer
// @Param commitRequest body dto.CommitImportRequest true "Plan id and goals to import"
// @Success 201 {object} shared.Response{data=dto.CommitImportResponse}
// @Router /api/v1/import/commit [post]
func (h *ImportHandler) Commit(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CommitImportRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.planSvc.CommitImport(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Goals imported", resp)
}
