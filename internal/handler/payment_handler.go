package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/service"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

// PaymentHandler exposes the settlement endpoints.
type PaymentHandler struct {
	reconciler *service.ReconcileService
}

// NewPaymentHandler constructs handler.
func NewPaymentHandler(reconciler *service.ReconcileService) *PaymentHandler {
	return &PaymentHandler{reconciler: reconciler}
}

// VerifyOnline godoc
// @Summary Verify a gateway payment and settle the fee record
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.VerifyOnlineRequest true "Verification payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Record already paid"
// @Failure 502 {object} response.Envelope "Gateway verification failed"
// @Router /payments/verify [post]
func (h *PaymentHandler) VerifyOnline(c *gin.Context) {
	var req service.VerifyOnlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.reconciler.VerifyOnline(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// CollectCounter godoc
// @Summary Settle a fee record collected in cash at the counter
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CollectCounterRequest true "Collection payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Record already paid"
// @Router /payments/counter [post]
func (h *PaymentHandler) CollectCounter(c *gin.Context) {
	var req service.CollectCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.CollectedBy == "" {
		if claims := claimsFromContext(c); claims != nil {
			req.CollectedBy = claims.UserID
		}
	}
	record, err := h.reconciler.CollectCounter(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// CollectBatchMember godoc
// @Summary Settle one batch member's record collected at the counter
// @Tags Payments
// @Produce json
// @Param batchId path string true "Batch ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "No record for this batch and student"
// @Failure 409 {object} response.Envelope "Record already paid"
// @Router /payments/batches/{batchId}/students/{studentId} [post]
func (h *PaymentHandler) CollectBatchMember(c *gin.Context) {
	req := service.CollectBatchMemberRequest{
		BatchID:   c.Param("batchId"),
		StudentID: c.Param("studentId"),
	}
	if claims := claimsFromContext(c); claims != nil {
		req.CollectedBy = claims.UserID
	}
	record, err := h.reconciler.CollectBatchMember(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
