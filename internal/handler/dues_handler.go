package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/service"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

// DuesHandler exposes student-facing dues and payment history endpoints.
type DuesHandler struct {
	dues *service.DuesService
}

// NewDuesHandler constructs handler.
func NewDuesHandler(dues *service.DuesService) *DuesHandler {
	return &DuesHandler{dues: dues}
}

// PendingDues godoc
// @Summary A student's outstanding fee records
// @Tags Dues
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/dues [get]
func (h *DuesHandler) PendingDues(c *gin.Context) {
	dues, err := h.dues.PendingDues(c.Request.Context(), instituteFromContext(c), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dues, nil)
}

// PaymentHistory godoc
// @Summary A student's settled fee records
// @Tags Dues
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/payments [get]
func (h *DuesHandler) PaymentHistory(c *gin.Context) {
	history, err := h.dues.PaymentHistory(c.Request.Context(), instituteFromContext(c), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
