package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/internal/service"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

// ReceiptHandler exposes receipt composition and download endpoints.
type ReceiptHandler struct {
	receipts *service.ReceiptService
}

// NewReceiptHandler constructs handler.
func NewReceiptHandler(receipts *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

type receiptOverrides struct {
	Institute *models.InstituteContext `json:"institute,omitempty"`
	Student   *models.StudentContext   `json:"student,omitempty"`
}

// Get godoc
// @Summary Compose receipt data for a paid record
// @Tags Receipts
// @Produce json
// @Param recordId path string true "Fee record ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope "Record not paid"
// @Router /receipts/{recordId} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	receipt, err := h.receipts.Compose(c.Request.Context(), c.Param("recordId"), nil, nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// RenderPDF godoc
// @Summary Render a receipt PDF and return a signed download link
// @Tags Receipts
// @Accept json
// @Produce json
// @Param recordId path string true "Fee record ID"
// @Param payload body receiptOverrides false "Optional display overrides"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope "Record not paid"
// @Router /receipts/{recordId}/pdf [post]
func (h *ReceiptHandler) RenderPDF(c *gin.Context) {
	var overrides receiptOverrides
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&overrides); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	download, err := h.receipts.RenderPDF(c.Request.Context(), c.Param("recordId"), overrides.Institute, overrides.Student)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, download, nil)
}

// Download godoc
// @Summary Stream a rendered receipt via signed token
// @Tags Receipts
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope "Invalid or expired token"
// @Router /receipts/download [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}
	file, filename, err := h.receipts.OpenSigned(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat receipt"))
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
