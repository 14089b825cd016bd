package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-fees-api/internal/models"
)

// StudentRepository reads the institute roster. Roster maintenance lives in a
// separate admissions system; this service only bills against it.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, institute_id, full_name, roll, class_name, section, guardian_name, guardian_phone, active, created_at, updated_at`

// List returns roster students matching the filter, ordered by class then
// name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE institute_id = $1`, studentColumns)
	args := []interface{}{filter.InstituteID}

	if filter.ClassName != "" && filter.ClassName != models.ClassFilterAll {
		query += fmt.Sprintf(" AND class_name = $%d", len(args)+1)
		args = append(args, filter.ClassName)
	}
	if filter.Section != "" {
		query += fmt.Sprintf(" AND section = $%d", len(args)+1)
		args = append(args, filter.Section)
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (LOWER(full_name) LIKE $%d OR LOWER(roll) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Active != nil {
		query += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	query += " ORDER BY class_name, full_name"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// ActiveIDsByClasses returns the ids of active students in the given classes.
// Publish uses it to materialize fee records class by class.
func (r *StudentRepository) ActiveIDsByClasses(ctx context.Context, instituteID string, classNames []string) (map[string][]string, error) {
	if len(classNames) == 0 {
		return map[string][]string{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, class_name FROM students
        WHERE institute_id = ? AND active = true AND class_name IN (?)
        ORDER BY class_name, full_name`, instituteID, classNames)
	if err != nil {
		return nil, fmt.Errorf("build class roster query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []struct {
		ID        string `db:"id"`
		ClassName string `db:"class_name"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list class rosters: %w", err)
	}
	byClass := make(map[string][]string, len(classNames))
	for _, row := range rows {
		byClass[row.ClassName] = append(byClass[row.ClassName], row.ID)
	}
	return byClass, nil
}

// FindByID fetches one student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistingIDs filters the given ids down to those present on the institute
// roster. Batch creation uses it to reject charges against unknown students.
func (r *StudentRepository) ExistingIDs(ctx context.Context, instituteID string, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}
	query, args, err := sqlx.In(`SELECT id FROM students WHERE institute_id = ? AND id IN (?)`, instituteID, ids)
	if err != nil {
		return nil, fmt.Errorf("build roster check query: %w", err)
	}
	query = r.db.Rebind(query)

	var found []string
	if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, fmt.Errorf("check roster ids: %w", err)
	}
	existing := make(map[string]bool, len(found))
	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}
