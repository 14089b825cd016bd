package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

type batchRepository interface {
	CreateWithMembers(ctx context.Context, batch *models.OccasionalBatch, records []models.FeeRecord) error
	FindByID(ctx context.Context, id string) (*models.OccasionalBatch, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]models.OccasionalBatch, error)
	Summaries(ctx context.Context, instituteID string) ([]models.BatchSummary, error)
}

type batchRosterReader interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	ExistingIDs(ctx context.Context, instituteID string, ids []string) (map[string]bool, error)
}

// BatchLineItemRequest is one proposed charge line. Items with a blank label
// or non-positive amount are silently dropped rather than failing the batch.
type BatchLineItemRequest struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateBatchRequest creates an occasional charge batch. Either an explicit
// student id list or a roster filter selects the members.
type CreateBatchRequest struct {
	InstituteID string                 `json:"institute_id" validate:"required"`
	Reasons     string                 `json:"reasons" validate:"required"`
	LineItems   []BatchLineItemRequest `json:"line_items" validate:"required,min=1"`
	StudentIDs  []string               `json:"student_ids"`
	ClassName   string                 `json:"class_name"`
	Section     string                 `json:"section"`
	SelectAll   bool                   `json:"select_all"`
}

// BatchService creates and reads occasional charge batches.
type BatchService struct {
	batches   batchRepository
	roster    batchRosterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBatchService constructs service.
func NewBatchService(batches batchRepository, roster batchRosterReader, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{batches: batches, roster: roster, validator: validate, logger: logger}
}

// Create validates the request, resolves the member set and persists batch
// plus member records atomically.
func (s *BatchService) Create(ctx context.Context, req CreateBatchRequest) (*models.OccasionalBatch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	items := make([]models.BatchLineItem, 0, len(req.LineItems))
	dropped := 0
	for _, item := range req.LineItems {
		if item.Label == "" || !item.Amount.IsPositive() {
			dropped++
			continue
		}
		items = append(items, models.BatchLineItem{Label: item.Label, Amount: item.Amount})
	}
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no valid line items in batch")
	}
	if dropped > 0 {
		s.logger.Warn("dropped invalid batch line items",
			zap.String("institute_id", req.InstituteID), zap.Int("dropped", dropped))
	}

	memberIDs, err := s.resolveMembers(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(memberIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch has no member students")
	}

	batch := &models.OccasionalBatch{
		InstituteID:      req.InstituteID,
		Reasons:          req.Reasons,
		LineItems:        items,
		MemberStudentIDs: memberIDs,
	}
	breakdown := batch.Breakdown()
	records := make([]models.FeeRecord, 0, len(memberIDs))
	for _, studentID := range memberIDs {
		records = append(records, *models.NewBatchFeeRecord(studentID, req.InstituteID, "", breakdown))
	}

	if err := s.batches.CreateWithMembers(ctx, batch, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}

	s.logger.Info("occasional batch created",
		zap.String("institute_id", req.InstituteID),
		zap.String("batch_id", batch.ID),
		zap.Int("members", len(memberIDs)),
		zap.Int("line_items", len(items)))
	return batch, nil
}

// Get loads a batch with line items and members.
func (s *BatchService) Get(ctx context.Context, id string) (*models.OccasionalBatch, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

// List returns batches for an institute, newest first.
func (s *BatchService) List(ctx context.Context, instituteID string) ([]models.OccasionalBatch, error) {
	batches, err := s.batches.ListByInstitute(ctx, instituteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, nil
}

// Summaries returns derived collection figures per batch.
func (s *BatchService) Summaries(ctx context.Context, instituteID string) ([]models.BatchSummary, error) {
	summaries, err := s.batches.Summaries(ctx, instituteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize batches")
	}
	return summaries, nil
}

// resolveMembers turns the request's selection into the final member id set.
// With select_all the filtered roster is toggled against the ids the caller
// already holds; toggling a fully-selected filter set deselects it, anything
// outside the active filter is preserved as-is.
func (s *BatchService) resolveMembers(ctx context.Context, req CreateBatchRequest) ([]string, error) {
	candidates := req.StudentIDs
	if req.SelectAll {
		active := true
		students, err := s.roster.List(ctx, models.StudentFilter{
			InstituteID: req.InstituteID,
			ClassName:   req.ClassName,
			Section:     req.Section,
			Active:      &active,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		filtered := make([]string, 0, len(students))
		for _, student := range students {
			filtered = append(filtered, student.ID)
		}
		candidates = models.SelectAllFiltered(req.StudentIDs, filtered)
		if len(candidates) == 0 {
			return nil, nil
		}
	} else if len(candidates) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_ids required unless select_all is set")
	}

	existing, err := s.roster.ExistingIDs(ctx, req.InstituteID, candidates)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify students")
	}
	seen := make(map[string]struct{}, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !existing[id] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student not on institute roster: "+id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
