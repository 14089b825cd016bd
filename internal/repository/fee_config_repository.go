package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/school-fees-api/internal/models"
)

// FeeConfigRepository persists monthly fee configs. Columns and per-class
// amounts are stored as JSON documents since their shape is institute-defined.
type FeeConfigRepository struct {
	db *sqlx.DB
}

// NewFeeConfigRepository creates a new fee config repository.
func NewFeeConfigRepository(db *sqlx.DB) *FeeConfigRepository {
	return &FeeConfigRepository{db: db}
}

type feeConfigRow struct {
	ID          string    `db:"id"`
	InstituteID string    `db:"institute_id"`
	MonthYear   string    `db:"month_year"`
	Columns     string    `db:"columns"`
	ClassData   string    `db:"class_data"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Upsert stores the config, replacing any previous draft for the same
// institute and month.
func (r *FeeConfigRepository) Upsert(ctx context.Context, config *models.MonthlyFeeConfig) error {
	if config.ID == "" {
		config.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now

	columns, err := json.Marshal(config.Columns)
	if err != nil {
		return fmt.Errorf("encode config columns: %w", err)
	}
	classData, err := json.Marshal(config.ClassData)
	if err != nil {
		return fmt.Errorf("encode config class data: %w", err)
	}

	const query = `INSERT INTO monthly_fee_configs (id, institute_id, month_year, columns, class_data, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (institute_id, month_year)
        DO UPDATE SET columns = EXCLUDED.columns, class_data = EXCLUDED.class_data, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, config.ID, config.InstituteID, config.MonthYear,
		string(columns), string(classData), config.CreatedAt, config.UpdatedAt); err != nil {
		return fmt.Errorf("upsert fee config: %w", err)
	}
	return nil
}

// FindByKey loads the config for one institute and month.
func (r *FeeConfigRepository) FindByKey(ctx context.Context, instituteID, monthYear string) (*models.MonthlyFeeConfig, error) {
	const query = `SELECT id, institute_id, month_year, columns, class_data, created_at, updated_at
        FROM monthly_fee_configs WHERE institute_id = $1 AND month_year = $2`
	var row feeConfigRow
	if err := r.db.GetContext(ctx, &row, query, instituteID, monthYear); err != nil {
		return nil, fmt.Errorf("find fee config: %w", err)
	}

	config := &models.MonthlyFeeConfig{
		ID:          row.ID,
		InstituteID: row.InstituteID,
		MonthYear:   row.MonthYear,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.Columns != "" {
		if err := json.Unmarshal([]byte(row.Columns), &config.Columns); err != nil {
			return nil, fmt.Errorf("decode config columns: %w", err)
		}
	}
	if row.ClassData != "" {
		config.ClassData = make(map[string]map[string]decimal.Decimal)
		if err := json.Unmarshal([]byte(row.ClassData), &config.ClassData); err != nil {
			return nil, fmt.Errorf("decode config class data: %w", err)
		}
	}
	return config, nil
}

// ListMonths returns the months an institute has drafted configs for, newest
// first.
func (r *FeeConfigRepository) ListMonths(ctx context.Context, instituteID string) ([]string, error) {
	const query = `SELECT month_year FROM monthly_fee_configs WHERE institute_id = $1 ORDER BY month_year DESC`
	var months []string
	if err := r.db.SelectContext(ctx, &months, query, instituteID); err != nil {
		return nil, fmt.Errorf("list config months: %w", err)
	}
	return months, nil
}
