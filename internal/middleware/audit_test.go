package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/school-fees-api/internal/repository"
)

func newAuditRouter(t *testing.T, logger *zap.Logger) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.NewAuditRepository(sqlx.NewDb(db, "sqlmock"))

	r := gin.New()
	r.POST("/collect", Audit(repo, logger, "FEE_COLLECT", "fee_record"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"settled": true})
	})
	return r, mock
}

func TestAuditMiddlewareWritesEntryAfterSuccess(t *testing.T) {
	r, mock := newAuditRouter(t, zap.NewNop())
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/collect", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditMiddlewareLogsAndSwallowsWriteFailure(t *testing.T) {
	core, observed := observer.New(zap.WarnLevel)
	r, mock := newAuditRouter(t, zap.New(core))
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(errors.New("connection reset"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/collect", nil))

	// Request outcome is unaffected, the failure is only logged.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, observed.FilterMessage("failed to write audit entry").Len())
}
