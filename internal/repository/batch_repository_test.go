package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-fees-api/internal/models"
)

func newBatchRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBatchRepositoryCreateWithMembersCommitsAtomically(t *testing.T) {
	db, mock, cleanup := newBatchRepoMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	batch := &models.OccasionalBatch{
		InstituteID: "inst-1",
		Reasons:     "Annual Sports Day",
		LineItems: []models.BatchLineItem{
			{Label: "Sports Fee", Amount: decimal.RequireFromString("500")},
			{Label: "Kit", Amount: decimal.RequireFromString("250")},
		},
	}
	records := []models.FeeRecord{
		{StudentID: "s1", InstituteID: "inst-1", FeeType: models.FeeTypeOccasional, Status: models.FeeStatusUnpaid},
		{StudentID: "s2", InstituteID: "inst-1", FeeType: models.FeeTypeOccasional, Status: models.FeeStatusUnpaid},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO occasional_batches").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO batch_line_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO batch_line_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO fee_records").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO fee_records").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithMembers(context.Background(), batch, records))
	assert.NotEmpty(t, batch.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryCreateWithMembersRollsBackOnMemberFailure(t *testing.T) {
	db, mock, cleanup := newBatchRepoMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	batch := &models.OccasionalBatch{
		InstituteID: "inst-1",
		Reasons:     "Lab Breakage",
		LineItems:   []models.BatchLineItem{{Label: "Lab Fee", Amount: decimal.RequireFromString("120")}},
	}
	records := []models.FeeRecord{
		{StudentID: "s1", InstituteID: "inst-1", FeeType: models.FeeTypeOccasional, Status: models.FeeStatusUnpaid},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO occasional_batches").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO batch_line_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO fee_records").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	require.Error(t, repo.CreateWithMembers(context.Background(), batch, records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositorySummaries(t *testing.T) {
	db, mock, cleanup := newBatchRepoMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	rows := sqlmock.NewRows([]string{"batch_id", "reasons", "created_at", "student_count", "paid_count", "total_expected", "total_collected"}).
		AddRow("batch-1", "Annual Sports Day", time.Now(), 40, 25, "30000", "18750")
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN fee_records f ON f.batch_id = b.id")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	summaries, err := repo.Summaries(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 25, summaries[0].PaidCount)
	assert.True(t, summaries[0].TotalExpected.Equal(decimal.RequireFromString("30000")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
