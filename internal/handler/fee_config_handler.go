package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/service"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

// FeeConfigHandler exposes monthly fee configuration endpoints.
type FeeConfigHandler struct {
	configs *service.FeeConfigService
}

// NewFeeConfigHandler constructs handler.
func NewFeeConfigHandler(configs *service.FeeConfigService) *FeeConfigHandler {
	return &FeeConfigHandler{configs: configs}
}

// ListMonths godoc
// @Summary List months with drafted fee configs
// @Tags Fee Configs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fee-configs [get]
func (h *FeeConfigHandler) ListMonths(c *gin.Context) {
	months, err := h.configs.ListMonths(c.Request.Context(), instituteFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, months, nil)
}

// Get godoc
// @Summary Get the fee config for a month
// @Tags Fee Configs
// @Produce json
// @Param monthYear path string true "Billing month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /fee-configs/{monthYear} [get]
func (h *FeeConfigHandler) Get(c *gin.Context) {
	config, err := h.configs.Get(c.Request.Context(), instituteFromContext(c), c.Param("monthYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// SetColumns godoc
// @Summary Replace the charge columns of a month's config
// @Tags Fee Configs
// @Accept json
// @Produce json
// @Param monthYear path string true "Billing month (YYYY-MM)"
// @Param payload body service.SetColumnsRequest true "Columns payload"
// @Success 200 {object} response.Envelope
// @Router /fee-configs/{monthYear}/columns [put]
func (h *FeeConfigHandler) SetColumns(c *gin.Context) {
	var req service.SetColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.InstituteID = instituteFromContext(c)
	req.MonthYear = c.Param("monthYear")
	config, err := h.configs.SetColumns(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// SetClassAmount godoc
// @Summary Assign the amount a class pays for a column
// @Tags Fee Configs
// @Accept json
// @Produce json
// @Param monthYear path string true "Billing month (YYYY-MM)"
// @Param payload body service.SetClassAmountRequest true "Class amount payload"
// @Success 200 {object} response.Envelope
// @Router /fee-configs/{monthYear}/class-amounts [put]
func (h *FeeConfigHandler) SetClassAmount(c *gin.Context) {
	var req service.SetClassAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.InstituteID = instituteFromContext(c)
	req.MonthYear = c.Param("monthYear")
	config, err := h.configs.SetClassAmount(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// RemoveColumn godoc
// @Summary Remove a charge column and its class amounts
// @Tags Fee Configs
// @Produce json
// @Param monthYear path string true "Billing month (YYYY-MM)"
// @Param column path string true "Column label"
// @Success 200 {object} response.Envelope
// @Router /fee-configs/{monthYear}/columns/{column} [delete]
func (h *FeeConfigHandler) RemoveColumn(c *gin.Context) {
	config, err := h.configs.RemoveColumn(c.Request.Context(), service.RemoveColumnRequest{
		InstituteID: instituteFromContext(c),
		MonthYear:   c.Param("monthYear"),
		Column:      c.Param("column"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, config, nil)
}

// Publish godoc
// @Summary Materialize fee records from the month's config
// @Tags Fee Configs
// @Produce json
// @Param monthYear path string true "Billing month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /fee-configs/{monthYear}/publish [post]
func (h *FeeConfigHandler) Publish(c *gin.Context) {
	result, err := h.configs.Publish(c.Request.Context(), service.PublishRequest{
		InstituteID: instituteFromContext(c),
		MonthYear:   c.Param("monthYear"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
