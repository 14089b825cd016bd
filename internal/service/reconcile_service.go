package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/events"
	"github.com/noah-isme/school-fees-api/pkg/gateway"
)

type reconcileRecordRepository interface {
	FindByID(ctx context.Context, id string) (*models.FeeRecord, error)
	FindByBatchAndStudent(ctx context.Context, batchID, studentID string) (*models.FeeRecord, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time, paymentID string, collectedBy *string) (bool, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// VerifyOnlineRequest settles a record against a gateway transaction.
type VerifyOnlineRequest struct {
	RecordID string `json:"record_id" validate:"required"`
	OrderID  string `json:"order_id" validate:"required"`
}

// CollectCounterRequest settles a record paid in cash at the office counter.
type CollectCounterRequest struct {
	RecordID    string `json:"record_id" validate:"required"`
	CollectedBy string `json:"collected_by" validate:"required"`
}

// CollectBatchMemberRequest settles one batch member's record, addressed by
// the batch and student rather than the record id.
type CollectBatchMemberRequest struct {
	BatchID     string `json:"batch_id" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	CollectedBy string `json:"collected_by" validate:"required"`
}

// ReconcileService owns the unpaid→paid transition. Every settlement path
// funnels through the repository's conditional update so a record can never
// be collected twice, regardless of how many verification attempts race.
type ReconcileService struct {
	records   reconcileRecordRepository
	verifier  gateway.Verifier
	bus       events.Bus
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReconcileService constructs service. bus, cache and metrics may be nil
// when the deployment runs without Redis or instrumentation.
func NewReconcileService(records reconcileRecordRepository, verifier gateway.Verifier, bus events.Bus, cache cacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReconcileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{records: records, verifier: verifier, bus: bus, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// VerifyOnline confirms a gateway payment and settles the record with the
// gateway transaction id. An unsettled or unknown gateway status never
// mutates the ledger.
func (s *ReconcileService) VerifyOnline(ctx context.Context, req VerifyOnlineRequest) (*models.FeeRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}
	if s.verifier == nil {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "payment gateway not configured")
	}

	record, err := s.loadUnpaid(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}

	verification, err := s.verifier.Verify(ctx, req.OrderID)
	if err != nil {
		s.logger.Warn("gateway verification failed",
			zap.String("record_id", req.RecordID), zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, err
	}

	return s.settle(ctx, record, verification.TransactionID, nil)
}

// CollectCounter settles a record collected in cash. The synthesized payment
// id carries the counter prefix so receipts can label the payment channel.
func (s *ReconcileService) CollectCounter(ctx context.Context, req CollectCounterRequest) (*models.FeeRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collection payload")
	}

	record, err := s.loadUnpaid(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}

	paymentID := models.CounterPaymentPrefix + record.ID
	return s.settle(ctx, record, paymentID, &req.CollectedBy)
}

// CollectBatchMember resolves the (batch, student) pair to its member record
// and settles it like a counter collection.
func (s *ReconcileService) CollectBatchMember(ctx context.Context, req CollectBatchMemberRequest) (*models.FeeRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collection payload")
	}

	record, err := s.records.FindByBatchAndStudent(ctx, req.BatchID, req.StudentID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch member record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch member record")
	}
	if record.Status == models.FeeStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrAlreadyPaid, "fee record already paid")
	}

	paymentID := models.CounterPaymentPrefix + record.ID
	return s.settle(ctx, record, paymentID, &req.CollectedBy)
}

func (s *ReconcileService) loadUnpaid(ctx context.Context, id string) (*models.FeeRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee record")
	}
	if record.Status == models.FeeStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrAlreadyPaid, "fee record already paid")
	}
	return record, nil
}

func (s *ReconcileService) settle(ctx context.Context, record *models.FeeRecord, paymentID string, collectedBy *string) (*models.FeeRecord, error) {
	paidAt := time.Now().UTC()
	ok, err := s.records.MarkPaid(ctx, record.ID, paidAt, paymentID, collectedBy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle fee record")
	}
	if !ok {
		// Lost the race to a concurrent settlement between load and update.
		return nil, appErrors.Clone(appErrors.ErrAlreadyPaid, "fee record already paid")
	}

	record.Status = models.FeeStatusPaid
	record.PaidAt = &paidAt
	record.PaymentID = &paymentID
	record.CollectedBy = collectedBy

	s.metrics.RecordReconciliation(record.PaymentKind())
	s.logger.Info("fee record settled",
		zap.String("record_id", record.ID),
		zap.String("institute_id", record.InstituteID),
		zap.String("payment_kind", string(record.PaymentKind())))

	s.afterSettle(ctx, record)
	return record, nil
}

// afterSettle fans out the settlement: tracking caches are invalidated and a
// reconciliation event is published. Both are best-effort; the ledger update
// already committed.
func (s *ReconcileService) afterSettle(ctx context.Context, record *models.FeeRecord) {
	if s.cache != nil {
		pattern := trackingCachePattern(record.InstituteID)
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("failed to invalidate tracking cache",
				zap.String("pattern", pattern), zap.Error(err))
		}
	}
	if s.bus != nil {
		event := events.Event{
			StudentFeeID: record.ID,
			InstituteID:  record.InstituteID,
			Period:       record.Period(),
		}
		if err := s.bus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish reconciliation event",
				zap.String("record_id", record.ID), zap.Error(err))
		}
	}
}
