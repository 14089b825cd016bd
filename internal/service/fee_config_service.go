package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

type feeConfigRepository interface {
	Upsert(ctx context.Context, config *models.MonthlyFeeConfig) error
	FindByKey(ctx context.Context, instituteID, monthYear string) (*models.MonthlyFeeConfig, error)
	ListMonths(ctx context.Context, instituteID string) ([]string, error)
}

type rosterReader interface {
	ActiveIDsByClasses(ctx context.Context, instituteID string, classNames []string) (map[string][]string, error)
}

type feeRecordWriter interface {
	BulkInsert(ctx context.Context, records []models.FeeRecord) error
	StudentIDsWithMonthlyRecord(ctx context.Context, instituteID, monthYear string) (map[string]bool, error)
}

// SetColumnsRequest replaces the charge columns of a monthly config.
type SetColumnsRequest struct {
	InstituteID string   `json:"institute_id" validate:"required"`
	MonthYear   string   `json:"month_year" validate:"required"`
	Columns     []string `json:"columns" validate:"required,min=1,dive,required"`
}

// SetClassAmountRequest assigns the amount one class pays for one column.
type SetClassAmountRequest struct {
	InstituteID string          `json:"institute_id" validate:"required"`
	MonthYear   string          `json:"month_year" validate:"required"`
	ClassName   string          `json:"class_name" validate:"required"`
	Column      string          `json:"column" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

// RemoveColumnRequest drops a column and its class amounts.
type RemoveColumnRequest struct {
	InstituteID string `json:"institute_id" validate:"required"`
	MonthYear   string `json:"month_year" validate:"required"`
	Column      string `json:"column" validate:"required"`
}

// PublishRequest materializes fee records from a drafted config.
type PublishRequest struct {
	InstituteID string `json:"institute_id" validate:"required"`
	MonthYear   string `json:"month_year" validate:"required"`
}

// PublishResult reports what a publish run actually did.
type PublishResult struct {
	MonthYear      string `json:"month_year"`
	CreatedCount   int    `json:"created_count"`
	SkippedBilled  int    `json:"skipped_billed"`
	SkippedNoFees  int    `json:"skipped_no_fees"`
	ClassesCovered int    `json:"classes_covered"`
}

// FeeConfigService maintains monthly fee configs and publishes them into the
// ledger.
type FeeConfigService struct {
	configs   feeConfigRepository
	roster    rosterReader
	records   feeRecordWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeConfigService constructs service.
func NewFeeConfigService(configs feeConfigRepository, roster rosterReader, records feeRecordWriter, validate *validator.Validate, logger *zap.Logger) *FeeConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeConfigService{configs: configs, roster: roster, records: records, validator: validate, logger: logger}
}

// Get returns the drafted config for an institute and month.
func (s *FeeConfigService) Get(ctx context.Context, instituteID, monthYear string) (*models.MonthlyFeeConfig, error) {
	if err := validateMonthYear(monthYear); err != nil {
		return nil, err
	}
	config, err := s.configs.FindByKey(ctx, instituteID, monthYear)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee config not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee config")
	}
	return config, nil
}

// ListMonths returns the months an institute has drafted configs for.
func (s *FeeConfigService) ListMonths(ctx context.Context, instituteID string) ([]string, error) {
	months, err := s.configs.ListMonths(ctx, instituteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list config months")
	}
	return months, nil
}

// SetColumns replaces the charge columns of the month's config, creating the
// draft if absent. Amounts keyed by a removed column are dropped with it.
func (s *FeeConfigService) SetColumns(ctx context.Context, req SetColumnsRequest) (*models.MonthlyFeeConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid columns payload")
	}
	if err := validateMonthYear(req.MonthYear); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(req.Columns))
	for _, column := range req.Columns {
		if _, ok := seen[column]; ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate column %q", column))
		}
		seen[column] = struct{}{}
	}

	config, err := s.loadOrCreate(ctx, req.InstituteID, req.MonthYear)
	if err != nil {
		return nil, err
	}
	previous := append([]string(nil), config.Columns...)
	for _, column := range previous {
		if _, ok := seen[column]; !ok {
			config.RemoveColumn(column)
		}
	}
	config.Columns = nil
	for _, column := range req.Columns {
		config.AddColumn(column)
	}
	if err := s.configs.Upsert(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save fee config")
	}
	return config, nil
}

// SetClassAmount assigns the amount a class pays for an existing column.
func (s *FeeConfigService) SetClassAmount(ctx context.Context, req SetClassAmountRequest) (*models.MonthlyFeeConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class amount payload")
	}
	if err := validateMonthYear(req.MonthYear); err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must not be negative")
	}

	config, err := s.loadOrCreate(ctx, req.InstituteID, req.MonthYear)
	if err != nil {
		return nil, err
	}
	if !config.HasColumn(req.Column) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown column %q", req.Column))
	}
	config.SetClassAmount(req.ClassName, req.Column, req.Amount)
	if err := s.configs.Upsert(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save fee config")
	}
	return config, nil
}

// RemoveColumn drops a column and cascades the delete through every class's
// amounts.
func (s *FeeConfigService) RemoveColumn(ctx context.Context, req RemoveColumnRequest) (*models.MonthlyFeeConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remove column payload")
	}
	config, err := s.Get(ctx, req.InstituteID, req.MonthYear)
	if err != nil {
		return nil, err
	}
	if !config.HasColumn(req.Column) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("column %q not found", req.Column))
	}
	config.RemoveColumn(req.Column)
	if err := s.configs.Upsert(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save fee config")
	}
	return config, nil
}

// Publish materializes unpaid fee records for every active student whose
// class has a non-empty breakdown. Re-running a publish only creates records
// for students not yet billed for the month, so it is safe to retry after a
// roster change.
func (s *FeeConfigService) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publish payload")
	}
	config, err := s.Get(ctx, req.InstituteID, req.MonthYear)
	if err != nil {
		return nil, err
	}

	classNames := make([]string, 0, len(config.ClassData))
	breakdowns := make(map[string]models.Breakdown, len(config.ClassData))
	skippedNoFees := 0
	for className := range config.ClassData {
		breakdown := config.ClassBreakdown(className)
		if len(breakdown) == 0 || breakdown.Total().IsZero() {
			skippedNoFees++
			continue
		}
		classNames = append(classNames, className)
		breakdowns[className] = breakdown
	}
	if len(classNames) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no class has configured amounts to publish")
	}

	rosters, err := s.roster.ActiveIDsByClasses(ctx, req.InstituteID, classNames)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class rosters")
	}
	billed, err := s.records.StudentIDsWithMonthlyRecord(ctx, req.InstituteID, req.MonthYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load billed students")
	}

	var records []models.FeeRecord
	skippedBilled := 0
	for _, className := range classNames {
		breakdown := breakdowns[className]
		for _, studentID := range rosters[className] {
			if billed[studentID] {
				skippedBilled++
				continue
			}
			records = append(records, *models.NewMonthlyFeeRecord(studentID, req.InstituteID, req.MonthYear, breakdown))
		}
	}
	if err := s.records.BulkInsert(ctx, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to materialize fee records")
	}

	s.logger.Info("monthly fees published",
		zap.String("institute_id", req.InstituteID),
		zap.String("month_year", req.MonthYear),
		zap.Int("created", len(records)),
		zap.Int("skipped_billed", skippedBilled))

	return &PublishResult{
		MonthYear:      req.MonthYear,
		CreatedCount:   len(records),
		SkippedBilled:  skippedBilled,
		SkippedNoFees:  skippedNoFees,
		ClassesCovered: len(classNames),
	}, nil
}

func (s *FeeConfigService) loadOrCreate(ctx context.Context, instituteID, monthYear string) (*models.MonthlyFeeConfig, error) {
	config, err := s.configs.FindByKey(ctx, instituteID, monthYear)
	if err != nil {
		if isNoRows(err) {
			return &models.MonthlyFeeConfig{InstituteID: instituteID, MonthYear: monthYear}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee config")
	}
	return config, nil
}

func validateMonthYear(monthYear string) error {
	if _, err := time.Parse("2006-01", monthYear); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid month_year %q, expected YYYY-MM", monthYear))
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
