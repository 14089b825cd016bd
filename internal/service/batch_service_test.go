package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/models"
)

type mockBatchRepo struct {
	created *models.OccasionalBatch
	records []models.FeeRecord
}

func (m *mockBatchRepo) CreateWithMembers(ctx context.Context, batch *models.OccasionalBatch, records []models.FeeRecord) error {
	batch.ID = "batch-1"
	for i := range records {
		records[i].BatchID = &batch.ID
	}
	m.created = batch
	m.records = records
	return nil
}

func (m *mockBatchRepo) FindByID(ctx context.Context, id string) (*models.OccasionalBatch, error) {
	if m.created != nil && m.created.ID == id {
		return m.created, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBatchRepo) ListByInstitute(ctx context.Context, instituteID string) ([]models.OccasionalBatch, error) {
	if m.created == nil {
		return nil, nil
	}
	return []models.OccasionalBatch{*m.created}, nil
}

func (m *mockBatchRepo) Summaries(ctx context.Context, instituteID string) ([]models.BatchSummary, error) {
	return nil, nil
}

type mockBatchRoster struct {
	students []models.Student
}

func (m *mockBatchRoster) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	var matched []models.Student
	for _, student := range m.students {
		if filter.ClassName != "" && filter.ClassName != models.ClassFilterAll && student.ClassName != filter.ClassName {
			continue
		}
		matched = append(matched, student)
	}
	return matched, nil
}

func (m *mockBatchRoster) ExistingIDs(ctx context.Context, instituteID string, ids []string) (map[string]bool, error) {
	known := make(map[string]bool)
	for _, student := range m.students {
		known[student.ID] = true
	}
	result := make(map[string]bool)
	for _, id := range ids {
		if known[id] {
			result[id] = true
		}
	}
	return result, nil
}

func newBatchService(repo *mockBatchRepo, roster *mockBatchRoster) *BatchService {
	return NewBatchService(repo, roster, validator.New(), zap.NewNop())
}

func TestBatchServiceCreateDropsInvalidItemsSilently(t *testing.T) {
	repo := &mockBatchRepo{}
	roster := &mockBatchRoster{students: []models.Student{{ID: "s1", ClassName: "10-A"}}}
	svc := newBatchService(repo, roster)

	batch, err := svc.Create(context.Background(), CreateBatchRequest{
		InstituteID: "inst-1",
		Reasons:     "Sports Day",
		LineItems: []BatchLineItemRequest{
			{Label: "Sports Fee", Amount: decimal.RequireFromString("500")},
			{Label: "", Amount: decimal.RequireFromString("100")},
			{Label: "Negative", Amount: decimal.RequireFromString("-5")},
		},
		StudentIDs: []string{"s1"},
	})
	require.NoError(t, err)
	require.Len(t, batch.LineItems, 1)
	assert.Equal(t, "Sports Fee", batch.LineItems[0].Label)

	require.Len(t, repo.records, 1)
	assert.True(t, repo.records[0].TotalAmount.Equal(decimal.RequireFromString("500")))
	require.NotNil(t, repo.records[0].BatchID)
	assert.Equal(t, "batch-1", *repo.records[0].BatchID)
	assert.Equal(t, models.FeeTypeOccasional, repo.records[0].FeeType)
}

func TestBatchServiceCreateFailsWhenAllItemsInvalid(t *testing.T) {
	svc := newBatchService(&mockBatchRepo{}, &mockBatchRoster{students: []models.Student{{ID: "s1"}}})

	_, err := svc.Create(context.Background(), CreateBatchRequest{
		InstituteID: "inst-1",
		Reasons:     "Sports Day",
		LineItems:   []BatchLineItemRequest{{Label: "", Amount: decimal.Zero}},
		StudentIDs:  []string{"s1"},
	})
	require.Error(t, err)
}

func TestBatchServiceCreateRejectsUnknownStudent(t *testing.T) {
	svc := newBatchService(&mockBatchRepo{}, &mockBatchRoster{students: []models.Student{{ID: "s1"}}})

	_, err := svc.Create(context.Background(), CreateBatchRequest{
		InstituteID: "inst-1",
		Reasons:     "Sports Day",
		LineItems:   []BatchLineItemRequest{{Label: "Sports Fee", Amount: decimal.RequireFromString("500")}},
		StudentIDs:  []string{"s1", "ghost"},
	})
	require.Error(t, err)
}

func TestBatchServiceCreateSelectAllFiltersByClass(t *testing.T) {
	repo := &mockBatchRepo{}
	roster := &mockBatchRoster{students: []models.Student{
		{ID: "s1", ClassName: "10-A"},
		{ID: "s2", ClassName: "10-A"},
		{ID: "s3", ClassName: "10-B"},
	}}
	svc := newBatchService(repo, roster)

	batch, err := svc.Create(context.Background(), CreateBatchRequest{
		InstituteID: "inst-1",
		Reasons:     "Class Picnic",
		LineItems:   []BatchLineItemRequest{{Label: "Picnic", Amount: decimal.RequireFromString("350")}},
		SelectAll:   true,
		ClassName:   "10-A",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, batch.MemberStudentIDs)
	assert.Len(t, repo.records, 2)
}

func TestBatchServiceCreateSelectAllTogglesAgainstCurrentSelection(t *testing.T) {
	repo := &mockBatchRepo{}
	roster := &mockBatchRoster{students: []models.Student{
		{ID: "s1", ClassName: "10-A"},
		{ID: "s2", ClassName: "10-A"},
		{ID: "s3", ClassName: "10-B"},
	}}
	svc := newBatchService(repo, roster)

	// s1 is already selected, so select-all on 10-A only adds s2; the 10-B
	// pick made under an earlier filter stays.
	batch, err := svc.Create(context.Background(), CreateBatchRequest{
		InstituteID: "inst-1",
		Reasons:     "Class Picnic",
		LineItems:   []BatchLineItemRequest{{Label: "Picnic", Amount: decimal.RequireFromString("350")}},
		SelectAll:   true,
		ClassName:   "10-A",
		StudentIDs:  []string{"s3", "s1"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2", "s3"}, batch.MemberStudentIDs)
}

func TestBatchServiceCreateSelectAllDeselectsFullySelectedFilter(t *testing.T) {
	roster := &mockBatchRoster{students: []models.Student{
		{ID: "s1", ClassName: "10-A"},
		{ID: "s2", ClassName: "10-A"},
	}}
	svc := newBatchService(&mockBatchRepo{}, roster)

	// Every 10-A student is already selected; the toggle empties the
	// selection, leaving no members to charge.
	_, err := svc.Create(context.Background(), CreateBatchRequest{
		InstituteID: "inst-1",
		Reasons:     "Class Picnic",
		LineItems:   []BatchLineItemRequest{{Label: "Picnic", Amount: decimal.RequireFromString("350")}},
		SelectAll:   true,
		ClassName:   "10-A",
		StudentIDs:  []string{"s1", "s2"},
	})
	require.Error(t, err)
}

func TestBatchServiceCreateRequiresMembers(t *testing.T) {
	svc := newBatchService(&mockBatchRepo{}, &mockBatchRoster{})

	_, err := svc.Create(context.Background(), CreateBatchRequest{
		InstituteID: "inst-1",
		Reasons:     "Sports Day",
		LineItems:   []BatchLineItemRequest{{Label: "Sports Fee", Amount: decimal.RequireFromString("500")}},
	})
	require.Error(t, err)
}
