package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/events"
	"github.com/noah-isme/school-fees-api/pkg/export"
	"github.com/noah-isme/school-fees-api/pkg/jobs"
)

type trackingRecordRepository interface {
	TrackClasses(ctx context.Context, instituteID, monthYear string) ([]models.ClassTrackingRow, error)
	Defaulters(ctx context.Context, filter models.DefaulterFilter) ([]models.FeeRecord, error)
}

type trackingCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

func trackingCacheKey(instituteID, monthYear string) string {
	return fmt.Sprintf("tracking:%s:%s", instituteID, monthYear)
}

func trackingCachePattern(instituteID string) string {
	return fmt.Sprintf("tracking:%s:*", instituteID)
}

// TrackingService serves collection dashboards: per-class tracking grids and
// defaulter lists. Tracking reads are cache-aside; reconciliation events
// trigger background recomputes so dashboards converge without polling the
// database on every request.
type TrackingService struct {
	records  trackingRecordRepository
	cache    trackingCache
	cacheTTL time.Duration
	queue    *jobs.Queue
	logger   *zap.Logger
}

// NewTrackingService constructs service. cache may be nil; tracking then
// reads straight through.
func NewTrackingService(records trackingRecordRepository, cache trackingCache, cacheTTL time.Duration, logger *zap.Logger) *TrackingService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{records: records, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// StartRecomputeWorker subscribes to reconciliation events and warms the
// tracking cache in the background. Worker count bounds concurrent recomputes.
func (s *TrackingService) StartRecomputeWorker(ctx context.Context, bus events.Bus, workers int) error {
	s.queue = jobs.NewQueue("tracking-recompute", s.recomputeJob, jobs.QueueConfig{
		Workers: workers,
		Logger:  s.logger,
	})
	s.queue.Start(ctx)

	return bus.Subscribe(ctx, events.InstituteAll, func(event events.Event) {
		job := jobs.Job{
			ID:      fmt.Sprintf("%s:%s", event.InstituteID, event.Period),
			Type:    "tracking.recompute",
			Payload: event,
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue tracking recompute", zap.Error(err))
		}
	})
}

// StopRecomputeWorker drains the worker pool.
func (s *TrackingService) StopRecomputeWorker() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

func (s *TrackingService) recomputeJob(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(events.Event)
	if !ok {
		return errors.New("unexpected recompute payload")
	}
	// Occasional settlements carry a batch id as period; only monthly periods
	// have a tracking grid to warm.
	if _, err := time.Parse("2006-01", event.Period); err != nil {
		return nil
	}
	_, err := s.computeAndCache(ctx, event.InstituteID, event.Period)
	return err
}

// TrackClasses returns the per-class collection grid for one monthly period.
func (s *TrackingService) TrackClasses(ctx context.Context, instituteID, monthYear string) ([]models.ClassTrackingRow, error) {
	if err := validateMonthYear(monthYear); err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached []models.ClassTrackingRow
		if hit, err := s.cache.Get(ctx, trackingCacheKey(instituteID, monthYear), &cached); err == nil && hit {
			return cached, nil
		}
	}

	return s.computeAndCache(ctx, instituteID, monthYear)
}

func (s *TrackingService) computeAndCache(ctx context.Context, instituteID, monthYear string) ([]models.ClassTrackingRow, error) {
	rows, err := s.records.TrackClasses(ctx, instituteID, monthYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute class tracking")
	}
	for i := range rows {
		rows[i].ComputeRate()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, trackingCacheKey(instituteID, monthYear), rows, s.cacheTTL); err != nil {
			s.logger.Warn("tracking cache write failed", zap.Error(err))
		}
	}
	return rows, nil
}

// Defaulters lists unpaid records for a monthly period or a batch, optionally
// restricted to one class. The ALL class filter is the identity.
func (s *TrackingService) Defaulters(ctx context.Context, filter models.DefaulterFilter) ([]models.FeeRecord, error) {
	if filter.BatchID == "" {
		if err := validateMonthYear(filter.MonthYear); err != nil {
			return nil, err
		}
	}
	records, err := s.records.Defaulters(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list defaulters")
	}
	for i := range records {
		records[i].Breakdown = models.DecodeBreakdown(records[i].BreakdownRaw, s.logger)
	}
	return records, nil
}

// DefaultersCSV renders the defaulter list as a CSV export dataset together
// with a timestamped attachment filename.
func (s *TrackingService) DefaultersCSV(ctx context.Context, filter models.DefaulterFilter) (export.Dataset, string, error) {
	records, err := s.Defaulters(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}

	scope := filter.MonthYear
	if filter.BatchID != "" {
		scope = filter.BatchID
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Class", "Period", "Outstanding"},
	}
	for _, record := range records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":     record.StudentName,
			"Class":       record.ClassName,
			"Period":      record.Period(),
			"Outstanding": record.TotalAmount.StringFixed(2),
		})
	}
	filename := export.Filename("defaulters_"+scope, "csv", time.Now().UTC())
	return dataset, filename, nil
}
