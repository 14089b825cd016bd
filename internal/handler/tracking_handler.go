package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/internal/service"
	"github.com/noah-isme/school-fees-api/pkg/export"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

// TrackingHandler exposes collection dashboards and defaulter exports.
type TrackingHandler struct {
	tracking *service.TrackingService
	metrics  *service.MetricsService
	exporter *export.CSVExporter
}

// NewTrackingHandler constructs handler.
func NewTrackingHandler(tracking *service.TrackingService, metrics *service.MetricsService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking, metrics: metrics, exporter: export.NewCSVExporter()}
}

// TrackClasses godoc
// @Summary Per-class collection progress for a billing month
// @Tags Tracking
// @Produce json
// @Param monthYear query string true "Billing month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /tracking/classes [get]
func (h *TrackingHandler) TrackClasses(c *gin.Context) {
	rows, err := h.tracking.TrackClasses(c.Request.Context(), instituteFromContext(c), c.Query("monthYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Defaulters godoc
// @Summary Unpaid records for a month or batch
// @Tags Tracking
// @Produce json
// @Param monthYear query string false "Billing month (YYYY-MM)"
// @Param batchId query string false "Batch ID"
// @Param class query string false "Class filter, ALL for every class"
// @Success 200 {object} response.Envelope
// @Router /tracking/defaulters [get]
func (h *TrackingHandler) Defaulters(c *gin.Context) {
	records, err := h.tracking.Defaulters(c.Request.Context(), h.defaulterFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ExportDefaulters godoc
// @Summary Download the defaulter list as CSV
// @Tags Tracking
// @Produce text/csv
// @Param monthYear query string false "Billing month (YYYY-MM)"
// @Param batchId query string false "Batch ID"
// @Param class query string false "Class filter, ALL for every class"
// @Success 200 {file} file
// @Router /tracking/defaulters/export [get]
func (h *TrackingHandler) ExportDefaulters(c *gin.Context) {
	dataset, filename, err := h.tracking.DefaultersCSV(c.Request.Context(), h.defaulterFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.exporter.Render(dataset)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// Metrics godoc
// @Summary Service instrumentation snapshot
// @Tags Tracking
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tracking/metrics [get]
func (h *TrackingHandler) Metrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

func (h *TrackingHandler) defaulterFilter(c *gin.Context) models.DefaulterFilter {
	return models.DefaulterFilter{
		InstituteID: instituteFromContext(c),
		MonthYear:   c.Query("monthYear"),
		BatchID:     c.Query("batchId"),
		ClassFilter: c.Query("class"),
	}
}
