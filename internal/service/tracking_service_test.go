package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/models"
)

type mockTrackingRepo struct {
	rows       []models.ClassTrackingRow
	defaulters []models.FeeRecord
	queries    int
}

func (m *mockTrackingRepo) TrackClasses(ctx context.Context, instituteID, monthYear string) ([]models.ClassTrackingRow, error) {
	m.queries++
	return m.rows, nil
}

func (m *mockTrackingRepo) Defaulters(ctx context.Context, filter models.DefaulterFilter) ([]models.FeeRecord, error) {
	var matched []models.FeeRecord
	for _, record := range m.defaulters {
		if filter.ClassFilter != "" && filter.ClassFilter != models.ClassFilterAll && record.ClassName != filter.ClassFilter {
			continue
		}
		matched = append(matched, record)
	}
	return matched, nil
}

type mapCache struct {
	values map[string][]byte
}

func (c *mapCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.values == nil {
		c.values = make(map[string][]byte)
	}
	c.values[key] = raw
	return nil
}

func TestTrackingServiceTrackClassesComputesRatesAndCaches(t *testing.T) {
	repo := &mockTrackingRepo{rows: []models.ClassTrackingRow{
		{ClassName: "10-A", TotalStudents: 30, PaidCount: 18,
			TotalExpected: decimal.RequireFromString("45000"), TotalCollected: decimal.RequireFromString("27000")},
		{ClassName: "10-B", TotalStudents: 10, PaidCount: 0,
			TotalExpected: decimal.Zero, TotalCollected: decimal.Zero},
	}}
	cache := &mapCache{}
	svc := NewTrackingService(repo, cache, time.Minute, zap.NewNop())

	rows, err := svc.TrackClasses(context.Background(), "inst-1", "2025-04")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 0.6, rows[0].CollectionRate, 0.0001)
	// Zero expected never divides by zero.
	assert.Equal(t, 0.0, rows[1].CollectionRate)

	// Second read is served from cache.
	rows, err = svc.TrackClasses(context.Background(), "inst-1", "2025-04")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, repo.queries)
}

func TestTrackingServiceTrackClassesRejectsBadPeriod(t *testing.T) {
	svc := NewTrackingService(&mockTrackingRepo{}, nil, time.Minute, zap.NewNop())
	_, err := svc.TrackClasses(context.Background(), "inst-1", "nope")
	require.Error(t, err)
}

func TestTrackingServiceDefaultersDecodesBreakdownAndFilters(t *testing.T) {
	record := models.NewMonthlyFeeRecord("s1", "inst-1", "2025-04",
		models.Breakdown{{Label: "Tuition Fee", Amount: decimal.RequireFromString("1200")}})
	record.ID = "fee-1"
	record.ClassName = "10-A"
	record.StudentName = "Student One"
	record.Breakdown = nil

	other := models.NewMonthlyFeeRecord("s2", "inst-1", "2025-04",
		models.Breakdown{{Label: "Tuition Fee", Amount: decimal.RequireFromString("1200")}})
	other.ClassName = "10-B"

	repo := &mockTrackingRepo{defaulters: []models.FeeRecord{*record, *other}}
	svc := NewTrackingService(repo, nil, time.Minute, zap.NewNop())

	defaulters, err := svc.Defaulters(context.Background(), models.DefaulterFilter{
		InstituteID: "inst-1", MonthYear: "2025-04", ClassFilter: "10-A",
	})
	require.NoError(t, err)
	require.Len(t, defaulters, 1)
	require.Len(t, defaulters[0].Breakdown, 1)
	assert.Equal(t, "Tuition Fee", defaulters[0].Breakdown[0].Label)

	// The ALL filter is the identity.
	all, err := svc.Defaulters(context.Background(), models.DefaulterFilter{
		InstituteID: "inst-1", MonthYear: "2025-04", ClassFilter: models.ClassFilterAll,
	})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTrackingServiceDefaultersCSV(t *testing.T) {
	record := models.NewMonthlyFeeRecord("s1", "inst-1", "2025-04",
		models.Breakdown{{Label: "Tuition Fee", Amount: decimal.RequireFromString("1200.5")}})
	record.StudentName = "Student One"
	record.ClassName = "10-A"

	repo := &mockTrackingRepo{defaulters: []models.FeeRecord{*record}}
	svc := NewTrackingService(repo, nil, time.Minute, zap.NewNop())

	dataset, filename, err := svc.DefaultersCSV(context.Background(), models.DefaulterFilter{
		InstituteID: "inst-1", MonthYear: "2025-04",
	})
	require.NoError(t, err)
	assert.Contains(t, filename, "defaulters_2025-04")
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, "Student One", dataset.Rows[0]["Student"])
	assert.Equal(t, "1200.50", dataset.Rows[0]["Outstanding"])
}
