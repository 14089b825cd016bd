package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

type duesRecordRepository interface {
	List(ctx context.Context, filter models.FeeFilter) ([]models.FeeRecord, error)
}

// StudentDues is a student's outstanding position: every unpaid record plus
// the summed amount.
type StudentDues struct {
	StudentID        string             `json:"student_id"`
	Records          []models.FeeRecord `json:"records"`
	TotalOutstanding decimal.Decimal    `json:"total_outstanding"`
}

// PaymentHistoryEntry is one settled record annotated with the payment
// channel derived from its payment id.
type PaymentHistoryEntry struct {
	Record      models.FeeRecord   `json:"record"`
	PaymentKind models.PaymentKind `json:"payment_kind"`
}

// DuesService answers the guardian-facing questions: what does a student owe,
// and what have they paid.
type DuesService struct {
	records duesRecordRepository
	logger  *zap.Logger
}

// NewDuesService constructs service.
func NewDuesService(records duesRecordRepository, logger *zap.Logger) *DuesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuesService{records: records, logger: logger}
}

// PendingDues returns a student's unpaid records across monthly periods and
// batches with the total outstanding amount.
func (s *DuesService) PendingDues(ctx context.Context, instituteID, studentID string) (*StudentDues, error) {
	records, err := s.records.List(ctx, models.FeeFilter{
		InstituteID: instituteID,
		StudentID:   studentID,
		Status:      models.FeeStatusUnpaid,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending dues")
	}

	dues := &StudentDues{StudentID: studentID, Records: records, TotalOutstanding: decimal.Zero}
	for i := range dues.Records {
		dues.Records[i].Breakdown = models.DecodeBreakdown(dues.Records[i].BreakdownRaw, s.logger)
		dues.TotalOutstanding = dues.TotalOutstanding.Add(dues.Records[i].TotalAmount)
	}
	return dues, nil
}

// PaymentHistory returns a student's settled records, newest first, labelled
// with the payment channel.
func (s *DuesService) PaymentHistory(ctx context.Context, instituteID, studentID string) ([]PaymentHistoryEntry, error) {
	records, err := s.records.List(ctx, models.FeeFilter{
		InstituteID: instituteID,
		StudentID:   studentID,
		Status:      models.FeeStatusPaid,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment history")
	}

	history := make([]PaymentHistoryEntry, 0, len(records))
	for _, record := range records {
		record.Breakdown = models.DecodeBreakdown(record.BreakdownRaw, s.logger)
		history = append(history, PaymentHistoryEntry{Record: record, PaymentKind: record.PaymentKind()})
	}
	return history, nil
}
