package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-fees-api/internal/models"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "institute_id", "full_name", "roll", "class_name", "section", "guardian_name", "guardian_phone", "active", "created_at", "updated_at"}).
		AddRow("s1", "inst-1", "Student One", "10A-01", "10-A", "A", "Guardian One", "0812000001", true, now, now)
}

func TestStudentRepositoryListFiltersByClassAndActive(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE institute_id = $1 AND class_name = $2 AND active = $3 ORDER BY class_name, full_name")).
		WithArgs("inst-1", "10-A", true).
		WillReturnRows(studentRows())

	students, err := repo.List(context.Background(), models.StudentFilter{
		InstituteID: "inst-1", ClassName: "10-A", Active: &active,
	})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Student One", students[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryActiveIDsByClasses(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "class_name"}).
		AddRow("s1", "10-A").
		AddRow("s2", "10-A").
		AddRow("s3", "10-B")
	mock.ExpectQuery("SELECT id, class_name FROM students").
		WithArgs("inst-1", "10-A", "10-B").
		WillReturnRows(rows)

	byClass, err := repo.ActiveIDsByClasses(context.Background(), "inst-1", []string{"10-A", "10-B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, byClass["10-A"])
	assert.Equal(t, []string{"s3"}, byClass["10-B"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistingIDs(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT id FROM students").
		WithArgs("inst-1", "s1", "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s1"))

	existing, err := repo.ExistingIDs(context.Background(), "inst-1", []string{"s1", "ghost"})
	require.NoError(t, err)
	assert.True(t, existing["s1"])
	assert.False(t, existing["ghost"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
