package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/middleware"
	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/internal/service"
)

type trackingRepoMock struct {
	rows       []models.ClassTrackingRow
	defaulters []models.FeeRecord
}

func (m *trackingRepoMock) TrackClasses(ctx context.Context, instituteID, monthYear string) ([]models.ClassTrackingRow, error) {
	return m.rows, nil
}

func (m *trackingRepoMock) Defaulters(ctx context.Context, filter models.DefaulterFilter) ([]models.FeeRecord, error) {
	return m.defaulters, nil
}

func newTrackingTestContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, InstituteID: "inst-1"})
	return c, w
}

func TestTrackingHandlerExportDefaultersRendersCSV(t *testing.T) {
	record := models.NewMonthlyFeeRecord("s1", "inst-1", "2025-04",
		models.Breakdown{{Label: "Tuition Fee", Amount: decimal.RequireFromString("1200.5")}})
	record.StudentName = "Student One"
	record.ClassName = "10-A"

	repo := &trackingRepoMock{defaulters: []models.FeeRecord{*record}}
	tracking := service.NewTrackingService(repo, nil, time.Minute, zap.NewNop())
	handler := NewTrackingHandler(tracking, service.NewMetricsService())

	c, w := newTrackingTestContext(t, "/tracking/defaulters/export?monthYear=2025-04")
	handler.ExportDefaulters(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "defaulters_2025-04")
	body := w.Body.String()
	assert.Contains(t, body, "Student,Class,Period,Outstanding")
	assert.Contains(t, body, "Student One,10-A,2025-04,1200.50")
}

func TestTrackingHandlerTrackClassesRejectsBadPeriod(t *testing.T) {
	tracking := service.NewTrackingService(&trackingRepoMock{}, nil, time.Minute, zap.NewNop())
	handler := NewTrackingHandler(tracking, service.NewMetricsService())

	c, w := newTrackingTestContext(t, "/tracking/classes?monthYear=April")
	handler.TrackClasses(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
