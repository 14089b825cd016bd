package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
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

type paymentRepoMock struct {
	records map[string]*models.FeeRecord
}

func (m *paymentRepoMock) FindByID(ctx context.Context, id string) (*models.FeeRecord, error) {
	if record, ok := m.records[id]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *paymentRepoMock) FindByBatchAndStudent(ctx context.Context, batchID, studentID string) (*models.FeeRecord, error) {
	for _, record := range m.records {
		if record.BatchID != nil && *record.BatchID == batchID && record.StudentID == studentID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *paymentRepoMock) MarkPaid(ctx context.Context, id string, paidAt time.Time, paymentID string, collectedBy *string) (bool, error) {
	record, ok := m.records[id]
	if !ok || record.Status != models.FeeStatusUnpaid {
		return false, nil
	}
	record.Status = models.FeeStatusPaid
	record.PaidAt = &paidAt
	record.PaymentID = &paymentID
	record.CollectedBy = collectedBy
	return true, nil
}

func newPaymentTestContext(t *testing.T, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/payments/counter", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-7", Role: models.RoleStaff, InstituteID: "inst-1"})
	return c, w
}

func TestPaymentHandlerCollectCounterSettles(t *testing.T) {
	record := models.NewMonthlyFeeRecord("s1", "inst-1", "2025-04",
		models.Breakdown{{Label: "Tuition Fee", Amount: decimal.RequireFromString("1200")}})
	record.ID = "fee-1"
	repo := &paymentRepoMock{records: map[string]*models.FeeRecord{"fee-1": record}}
	reconciler := service.NewReconcileService(repo, nil, nil, nil, nil, nil, zap.NewNop())
	handler := NewPaymentHandler(reconciler)

	body, _ := json.Marshal(map[string]string{"record_id": "fee-1"})
	c, w := newPaymentTestContext(t, body)

	handler.CollectCounter(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.CounterPaymentPrefix)
	assert.Contains(t, w.Body.String(), `"collected_by":"staff-7"`)
}

func TestPaymentHandlerCollectCounterConflictOnPaidRecord(t *testing.T) {
	record := models.NewMonthlyFeeRecord("s1", "inst-1", "2025-04",
		models.Breakdown{{Label: "Tuition Fee", Amount: decimal.RequireFromString("1200")}})
	record.ID = "fee-1"
	record.Status = models.FeeStatusPaid
	repo := &paymentRepoMock{records: map[string]*models.FeeRecord{"fee-1": record}}
	reconciler := service.NewReconcileService(repo, nil, nil, nil, nil, nil, zap.NewNop())
	handler := NewPaymentHandler(reconciler)

	body, _ := json.Marshal(map[string]string{"record_id": "fee-1"})
	c, w := newPaymentTestContext(t, body)

	handler.CollectCounter(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaymentHandlerCollectBatchMemberResolvesPair(t *testing.T) {
	record := models.NewBatchFeeRecord("s1", "inst-1", "batch-1",
		models.Breakdown{{Label: "Sports Fee", Amount: decimal.RequireFromString("500")}})
	record.ID = "fee-7"
	repo := &paymentRepoMock{records: map[string]*models.FeeRecord{"fee-7": record}}
	reconciler := service.NewReconcileService(repo, nil, nil, nil, nil, nil, zap.NewNop())
	handler := NewPaymentHandler(reconciler)

	c, w := newPaymentTestContext(t, nil)
	c.Params = gin.Params{{Key: "batchId", Value: "batch-1"}, {Key: "studentId", Value: "s1"}}

	handler.CollectBatchMember(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.CounterPaymentPrefix)
	assert.Contains(t, w.Body.String(), `"collected_by":"staff-7"`)
}

func TestPaymentHandlerCollectBatchMemberUnknownPair(t *testing.T) {
	reconciler := service.NewReconcileService(&paymentRepoMock{}, nil, nil, nil, nil, nil, zap.NewNop())
	handler := NewPaymentHandler(reconciler)

	c, w := newPaymentTestContext(t, nil)
	c.Params = gin.Params{{Key: "batchId", Value: "batch-1"}, {Key: "studentId", Value: "ghost"}}

	handler.CollectBatchMember(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentHandlerVerifyOnlineInvalidBody(t *testing.T) {
	reconciler := service.NewReconcileService(&paymentRepoMock{}, nil, nil, nil, nil, nil, zap.NewNop())
	handler := NewPaymentHandler(reconciler)

	c, w := newPaymentTestContext(t, []byte(`not-json`))
	handler.VerifyOnline(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
