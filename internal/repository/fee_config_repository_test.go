package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-fees-api/internal/models"
)

func newFeeConfigRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFeeConfigRepositoryUpsertSerializesDocuments(t *testing.T) {
	db, mock, cleanup := newFeeConfigRepoMock(t)
	defer cleanup()
	repo := NewFeeConfigRepository(db)

	config := &models.MonthlyFeeConfig{
		InstituteID: "inst-1",
		MonthYear:   "2025-04",
		Columns:     []string{"Tuition Fee", "Transport"},
	}
	config.SetClassAmount("10-A", "Tuition Fee", decimal.RequireFromString("1200"))

	mock.ExpectExec("INSERT INTO monthly_fee_configs").
		WithArgs(sqlmock.AnyArg(), "inst-1", "2025-04",
			`["Tuition Fee","Transport"]`,
			`{"10-A":{"Tuition Fee":"1200"}}`,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Upsert(context.Background(), config))
	assert.NotEmpty(t, config.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeConfigRepositoryFindByKeyRestoresDocuments(t *testing.T) {
	db, mock, cleanup := newFeeConfigRepoMock(t)
	defer cleanup()
	repo := NewFeeConfigRepository(db)

	rows := sqlmock.NewRows([]string{"id", "institute_id", "month_year", "columns", "class_data", "created_at", "updated_at"}).
		AddRow("cfg-1", "inst-1", "2025-04",
			`["Tuition Fee","Transport"]`,
			`{"10-A":{"Transport":"300","Tuition Fee":"1200"}}`,
			time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, institute_id, month_year").
		WithArgs("inst-1", "2025-04").
		WillReturnRows(rows)

	config, err := repo.FindByKey(context.Background(), "inst-1", "2025-04")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tuition Fee", "Transport"}, config.Columns)

	breakdown := config.ClassBreakdown("10-A")
	require.Len(t, breakdown, 2)
	assert.Equal(t, "Tuition Fee", breakdown[0].Label)
	assert.True(t, breakdown.Total().Equal(decimal.RequireFromString("1500")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
