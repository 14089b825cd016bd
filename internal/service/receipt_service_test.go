package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

type mockReceiptRecords struct {
	records map[string]*models.FeeRecord
}

func (m *mockReceiptRecords) FindByID(ctx context.Context, id string) (*models.FeeRecord, error) {
	if record, ok := m.records[id]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

type mockReceiptStudents struct {
	students map[string]*models.Student
}

func (m *mockReceiptStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type mockInstitutes struct {
	institutes map[string]*models.Institute
}

func (m *mockInstitutes) FindByID(ctx context.Context, id string) (*models.Institute, error) {
	if institute, ok := m.institutes[id]; ok {
		return institute, nil
	}
	return nil, sql.ErrNoRows
}

type mockRenderer struct {
	rendered []models.ReceiptData
}

func (m *mockRenderer) Render(receipt models.ReceiptData) ([]byte, error) {
	m.rendered = append(m.rendered, receipt)
	return []byte("%PDF"), nil
}

type mockStore struct {
	saved map[string][]byte
}

func (m *mockStore) Save(filename string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	return filename, nil
}

func (m *mockStore) Open(filename string) (*os.File, error) {
	if _, ok := m.saved[filename]; !ok {
		return nil, os.ErrNotExist
	}
	return os.Open(os.DevNull)
}

type mockSigner struct{}

func (m *mockSigner) Generate(recordID, relPath string) (string, time.Time, error) {
	return recordID + "|" + relPath, time.Now().Add(time.Hour), nil
}

func (m *mockSigner) Parse(token string) (string, string, time.Time, error) {
	for i := 0; i < len(token); i++ {
		if token[i] == '|' {
			return token[:i], token[i+1:], time.Now().Add(time.Hour), nil
		}
	}
	return "", "", time.Time{}, errors.New("bad token")
}

func paidRecord(id string) *models.FeeRecord {
	record := models.NewMonthlyFeeRecord("s1", "inst-1", "2025-04", models.Breakdown{
		{Label: "Tuition Fee", Amount: decimal.RequireFromString("1200")},
		{Label: "Transport", Amount: decimal.RequireFromString("300")},
	})
	record.ID = id
	paidAt := time.Date(2025, 4, 12, 9, 30, 0, 0, time.UTC)
	paymentID := "txn-42"
	record.Status = models.FeeStatusPaid
	record.PaidAt = &paidAt
	record.PaymentID = &paymentID
	return record
}

func newReceiptService(records *mockReceiptRecords, students *mockReceiptStudents, institutes *mockInstitutes) (*ReceiptService, *mockRenderer, *mockStore) {
	renderer := &mockRenderer{}
	store := &mockStore{}
	svc := NewReceiptService(records, students, institutes, renderer, store, &mockSigner{}, zap.NewNop())
	return svc, renderer, store
}

func TestReceiptServiceComposeResolvesContextThenProfileThenPlaceholder(t *testing.T) {
	records := &mockReceiptRecords{records: map[string]*models.FeeRecord{"fee-1": paidRecord("fee-1")}}
	students := &mockReceiptStudents{students: map[string]*models.Student{
		"s1": {ID: "s1", FullName: "Roster Name", Roll: "17", ClassName: "10-A", Section: "B"},
	}}
	institutes := &mockInstitutes{institutes: map[string]*models.Institute{
		"inst-1": {ID: "inst-1", Name: "Profile School", Address: "12 Hill Road"},
	}}
	svc, _, _ := newReceiptService(records, students, institutes)

	receipt, err := svc.Compose(context.Background(), "fee-1",
		&models.InstituteContext{Name: "Context School"},
		nil)
	require.NoError(t, err)

	// Caller context wins, profile fills the rest.
	assert.Equal(t, "Context School", receipt.InstituteName)
	assert.Equal(t, "12 Hill Road", receipt.InstituteAddress)
	assert.Equal(t, "Roster Name", receipt.StudentName)
	assert.Equal(t, "10-A", receipt.StudentClass)

	assert.Equal(t, "2025-04", receipt.Period)
	require.Len(t, receipt.Items, 2)
	assert.Equal(t, "Tuition Fee", receipt.Items[0].Label)
	assert.True(t, receipt.TotalAmount.Equal(decimal.RequireFromString("1500")))
	assert.Equal(t, models.PaymentKindOnline, receipt.PaymentType)
	assert.NotEmpty(t, receipt.ReceiptNo)
}

func TestReceiptServiceComposeRecordDisplayFieldsWinOverProfile(t *testing.T) {
	record := paidRecord("fee-1")
	record.StudentName = "Joined Name"
	record.ClassName = "11-C"
	records := &mockReceiptRecords{records: map[string]*models.FeeRecord{"fee-1": record}}
	students := &mockReceiptStudents{students: map[string]*models.Student{
		"s1": {ID: "s1", FullName: "Roster Name", Roll: "17", ClassName: "10-A"},
	}}
	svc, _, _ := newReceiptService(records, students, &mockInstitutes{})

	receipt, err := svc.Compose(context.Background(), "fee-1",
		nil, &models.StudentContext{Name: "Context Name"})
	require.NoError(t, err)
	assert.Equal(t, "Joined Name", receipt.StudentName)
	assert.Equal(t, "11-C", receipt.StudentClass)
	// Roll is never carried on the record, so the roster fills it.
	assert.Equal(t, "17", receipt.StudentRoll)
}

func TestReceiptServiceComposePlaceholdersWhenNothingResolves(t *testing.T) {
	records := &mockReceiptRecords{records: map[string]*models.FeeRecord{"fee-1": paidRecord("fee-1")}}
	svc, _, _ := newReceiptService(records, &mockReceiptStudents{}, &mockInstitutes{})

	receipt, err := svc.Compose(context.Background(), "fee-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, placeholderInstitute, receipt.InstituteName)
	assert.Equal(t, placeholderValue, receipt.StudentName)
	assert.Equal(t, placeholderValue, receipt.StudentRoll)
}

func TestReceiptServiceComposeIsDeterministic(t *testing.T) {
	records := &mockReceiptRecords{records: map[string]*models.FeeRecord{"fee-1": paidRecord("fee-1")}}
	svc, _, _ := newReceiptService(records, &mockReceiptStudents{}, &mockInstitutes{})

	first, err := svc.Compose(context.Background(), "fee-1", nil, nil)
	require.NoError(t, err)
	second, err := svc.Compose(context.Background(), "fee-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReceiptServiceRejectsUnpaidRecord(t *testing.T) {
	unpaid := models.NewMonthlyFeeRecord("s1", "inst-1", "2025-04",
		models.Breakdown{{Label: "Tuition Fee", Amount: decimal.RequireFromString("1200")}})
	unpaid.ID = "fee-2"
	records := &mockReceiptRecords{records: map[string]*models.FeeRecord{"fee-2": unpaid}}
	svc, _, _ := newReceiptService(records, &mockReceiptStudents{}, &mockInstitutes{})

	_, err := svc.Compose(context.Background(), "fee-2", nil, nil)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrReceiptNotAvailable.Code, appErr.Code)
}

func TestReceiptServiceCounterReceiptCarriesCollector(t *testing.T) {
	record := paidRecord("fee-3")
	counterID := models.CounterPaymentPrefix + "fee-3"
	collector := "staff-7"
	record.PaymentID = &counterID
	record.CollectedBy = &collector
	records := &mockReceiptRecords{records: map[string]*models.FeeRecord{"fee-3": record}}
	svc, _, _ := newReceiptService(records, &mockReceiptStudents{}, &mockInstitutes{})

	receipt, err := svc.Compose(context.Background(), "fee-3", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentKindCounter, receipt.PaymentType)
	assert.Equal(t, "staff-7", receipt.CollectedBy)
}

func TestReceiptServiceRenderPDFStoresAndSigns(t *testing.T) {
	records := &mockReceiptRecords{records: map[string]*models.FeeRecord{"fee-1": paidRecord("fee-1")}}
	svc, renderer, store := newReceiptService(records, &mockReceiptStudents{}, &mockInstitutes{})

	download, err := svc.RenderPDF(context.Background(), "fee-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "fee-1", download.RecordID)
	assert.NotEmpty(t, download.Token)
	assert.Len(t, renderer.rendered, 1)
	assert.Contains(t, store.saved, "fee-1.pdf")

	file, filename, err := svc.OpenSigned(context.Background(), download.Token)
	require.NoError(t, err)
	defer file.Close()
	assert.Contains(t, filename, ".pdf")
}
