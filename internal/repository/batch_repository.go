package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-fees-api/internal/models"
)

// BatchRepository persists occasional charge batches. A batch and its member
// fee records are created in one transaction and never mutated afterwards.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository creates a new batch repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// CreateWithMembers inserts the batch, its line items and one unpaid fee
// record per member atomically. A failure on any row rolls back the whole
// batch so no student carries a charge from a batch that does not exist.
func (r *BatchRepository) CreateWithMembers(ctx context.Context, batch *models.OccasionalBatch, records []models.FeeRecord) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const batchQuery = `INSERT INTO occasional_batches (id, institute_id, reasons, created_at)
        VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, batchQuery, batch.ID, batch.InstituteID, batch.Reasons, batch.CreatedAt); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert batch: %w", err)
	}

	const itemQuery = `INSERT INTO batch_line_items (batch_id, position, label, amount)
        VALUES ($1, $2, $3, $4)`
	for i, item := range batch.LineItems {
		if _, err := tx.ExecContext(ctx, itemQuery, batch.ID, i, item.Label, item.Amount); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert batch line item: %w", err)
		}
	}

	const recordQuery = `INSERT INTO fee_records (id, student_id, institute_id, fee_type, month_year, batch_id, breakdown, total_amount, status, created_at, updated_at)
        VALUES (:id, :student_id, :institute_id, :fee_type, :month_year, :batch_id, :breakdown, :total_amount, :status, :created_at, :updated_at)`
	for i := range records {
		records[i].BatchID = &batch.ID
		prepareFeeRecord(&records[i])
		if _, err := tx.NamedExecContext(ctx, recordQuery, records[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert batch member record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// FindByID loads a batch with its line items and member student ids.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.OccasionalBatch, error) {
	const query = `SELECT id, institute_id, reasons, created_at FROM occasional_batches WHERE id = $1`
	var batch models.OccasionalBatch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, fmt.Errorf("find batch: %w", err)
	}

	const itemQuery = `SELECT label, amount FROM batch_line_items WHERE batch_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &batch.LineItems, itemQuery, id); err != nil {
		return nil, fmt.Errorf("load batch line items: %w", err)
	}

	const memberQuery = `SELECT student_id FROM fee_records WHERE batch_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &batch.MemberStudentIDs, memberQuery, id); err != nil {
		return nil, fmt.Errorf("load batch members: %w", err)
	}
	return &batch, nil
}

// ListByInstitute returns all batches for an institute, newest first, without
// line items or members.
func (r *BatchRepository) ListByInstitute(ctx context.Context, instituteID string) ([]models.OccasionalBatch, error) {
	const query = `SELECT id, institute_id, reasons, created_at FROM occasional_batches
        WHERE institute_id = $1 ORDER BY created_at DESC`
	var batches []models.OccasionalBatch
	if err := r.db.SelectContext(ctx, &batches, query, instituteID); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// Summaries aggregates collection figures per batch from the member records.
func (r *BatchRepository) Summaries(ctx context.Context, instituteID string) ([]models.BatchSummary, error) {
	const query = `SELECT b.id AS batch_id, b.reasons, b.created_at,
            COUNT(f.id) AS student_count,
            COUNT(f.id) FILTER (WHERE f.status = 'paid') AS paid_count,
            COALESCE(SUM(f.total_amount), 0) AS total_expected,
            COALESCE(SUM(f.total_amount) FILTER (WHERE f.status = 'paid'), 0) AS total_collected
        FROM occasional_batches b
        LEFT JOIN fee_records f ON f.batch_id = b.id
        WHERE b.institute_id = $1
        GROUP BY b.id, b.reasons, b.created_at
        ORDER BY b.created_at DESC`
	var summaries []models.BatchSummary
	if err := r.db.SelectContext(ctx, &summaries, query, instituteID); err != nil {
		return nil, fmt.Errorf("summarize batches: %w", err)
	}
	return summaries, nil
}
