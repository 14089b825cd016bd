package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-fees-api/internal/models"
)

// FeeRecordRepository handles fee ledger persistence.
type FeeRecordRepository struct {
	db *sqlx.DB
}

// NewFeeRecordRepository creates a new fee record repository.
func NewFeeRecordRepository(db *sqlx.DB) *FeeRecordRepository {
	return &FeeRecordRepository{db: db}
}

const feeRecordColumns = `f.id, f.student_id, f.institute_id, f.fee_type, f.month_year, f.batch_id,
        f.breakdown, f.total_amount, f.status, f.paid_at, f.payment_id, f.collected_by, f.created_at, f.updated_at`

// Insert stores a single fee record.
func (r *FeeRecordRepository) Insert(ctx context.Context, record *models.FeeRecord) error {
	prepareFeeRecord(record)
	const query = `INSERT INTO fee_records (id, student_id, institute_id, fee_type, month_year, batch_id, breakdown, total_amount, status, created_at, updated_at)
        VALUES (:id, :student_id, :institute_id, :fee_type, :month_year, :batch_id, :breakdown, :total_amount, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert fee record: %w", err)
	}
	return nil
}

// BulkInsert stores multiple fee records in one transaction; either every
// record lands or none does.
func (r *FeeRecordRepository) BulkInsert(ctx context.Context, records []models.FeeRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO fee_records (id, student_id, institute_id, fee_type, month_year, batch_id, breakdown, total_amount, status, created_at, updated_at)
        VALUES (:id, :student_id, :institute_id, :fee_type, :month_year, :batch_id, :breakdown, :total_amount, :status, :created_at, :updated_at)`
	for i := range records {
		prepareFeeRecord(&records[i])
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk insert fee record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fee records: %w", err)
	}
	return nil
}

// FindByID loads one record.
func (r *FeeRecordRepository) FindByID(ctx context.Context, id string) (*models.FeeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_records f WHERE f.id = $1`, feeRecordColumns)
	var record models.FeeRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, fmt.Errorf("find fee record: %w", err)
	}
	return &record, nil
}

// FindByBatchAndStudent loads the single member record a batch holds for one
// student.
func (r *FeeRecordRepository) FindByBatchAndStudent(ctx context.Context, batchID, studentID string) (*models.FeeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_records f WHERE f.batch_id = $1 AND f.student_id = $2`, feeRecordColumns)
	var record models.FeeRecord
	if err := r.db.GetContext(ctx, &record, query, batchID, studentID); err != nil {
		return nil, fmt.Errorf("find batch member record: %w", err)
	}
	return &record, nil
}

// List returns fee records matching the filter, joined with roster display
// fields.
func (r *FeeRecordRepository) List(ctx context.Context, filter models.FeeFilter) ([]models.FeeRecord, error) {
	query := fmt.Sprintf(`SELECT %s, s.full_name AS student_name, s.class_name
        FROM fee_records f
        JOIN students s ON s.id = f.student_id
        WHERE f.institute_id = $1`, feeRecordColumns)
	args := []interface{}{filter.InstituteID}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND f.student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.MonthYear != "" {
		query += fmt.Sprintf(" AND f.month_year = $%d", len(args)+1)
		args = append(args, filter.MonthYear)
	}
	if filter.BatchID != "" {
		query += fmt.Sprintf(" AND f.batch_id = $%d", len(args)+1)
		args = append(args, filter.BatchID)
	}
	if filter.ClassName != "" && filter.ClassName != models.ClassFilterAll {
		query += fmt.Sprintf(" AND s.class_name = $%d", len(args)+1)
		args = append(args, filter.ClassName)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND f.status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.FeeType != "" {
		query += fmt.Sprintf(" AND f.fee_type = $%d", len(args)+1)
		args = append(args, filter.FeeType)
	}
	query += " ORDER BY f.created_at DESC"
	var records []models.FeeRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list fee records: %w", err)
	}
	return records, nil
}

// MarkPaid performs the conditional unpaid→paid update. It returns false when
// no row transitioned, meaning the record was already paid or does not exist;
// under concurrent collection attempts exactly one caller sees true.
func (r *FeeRecordRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time, paymentID string, collectedBy *string) (bool, error) {
	const query = `UPDATE fee_records
        SET status = 'paid', paid_at = $2, payment_id = $3, collected_by = $4, updated_at = $5
        WHERE id = $1 AND status = 'unpaid'`
	result, err := r.db.ExecContext(ctx, query, id, paidAt, paymentID, collectedBy, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark fee record paid: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark fee record paid: %w", err)
	}
	return affected == 1, nil
}

// StudentIDsWithMonthlyRecord returns the set of students who already hold a
// record for the billing period. Publish uses it to create missing records
// only.
func (r *FeeRecordRepository) StudentIDsWithMonthlyRecord(ctx context.Context, instituteID, monthYear string) (map[string]bool, error) {
	const query = `SELECT student_id FROM fee_records WHERE institute_id = $1 AND fee_type = 'monthly' AND month_year = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, instituteID, monthYear); err != nil {
		return nil, fmt.Errorf("list billed students: %w", err)
	}
	existing := make(map[string]bool, len(ids))
	for _, id := range ids {
		existing[id] = true
	}
	return existing, nil
}

// TrackClasses aggregates expected and collected totals per class for one
// monthly period. Classes without any record for the period do not appear.
func (r *FeeRecordRepository) TrackClasses(ctx context.Context, instituteID, monthYear string) ([]models.ClassTrackingRow, error) {
	const query = `SELECT s.class_name,
            COUNT(*) AS total_students,
            COUNT(*) FILTER (WHERE f.status = 'paid') AS paid_count,
            COALESCE(SUM(f.total_amount), 0) AS total_expected,
            COALESCE(SUM(f.total_amount) FILTER (WHERE f.status = 'paid'), 0) AS total_collected
        FROM fee_records f
        JOIN students s ON s.id = f.student_id
        WHERE f.institute_id = $1 AND f.fee_type = 'monthly' AND f.month_year = $2
        GROUP BY s.class_name
        ORDER BY s.class_name`
	var rows []models.ClassTrackingRow
	if err := r.db.SelectContext(ctx, &rows, query, instituteID, monthYear); err != nil {
		return nil, fmt.Errorf("track classes: %w", err)
	}
	return rows, nil
}

// Defaulters returns unpaid records for a monthly period or an open batch,
// optionally restricted to one class.
func (r *FeeRecordRepository) Defaulters(ctx context.Context, filter models.DefaulterFilter) ([]models.FeeRecord, error) {
	query := fmt.Sprintf(`SELECT %s, s.full_name AS student_name, s.class_name
        FROM fee_records f
        JOIN students s ON s.id = f.student_id
        WHERE f.institute_id = $1 AND f.status = 'unpaid'`, feeRecordColumns)
	args := []interface{}{filter.InstituteID}
	if filter.BatchID != "" {
		query += fmt.Sprintf(" AND f.batch_id = $%d", len(args)+1)
		args = append(args, filter.BatchID)
	} else {
		query += fmt.Sprintf(" AND f.fee_type = 'monthly' AND f.month_year = $%d", len(args)+1)
		args = append(args, filter.MonthYear)
	}
	if filter.ClassFilter != "" && filter.ClassFilter != models.ClassFilterAll {
		query += fmt.Sprintf(" AND s.class_name = $%d", len(args)+1)
		args = append(args, filter.ClassFilter)
	}
	query += " ORDER BY s.class_name, s.full_name"
	var records []models.FeeRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list defaulters: %w", err)
	}
	return records, nil
}

func prepareFeeRecord(record *models.FeeRecord) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
}
