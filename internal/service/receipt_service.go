package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

type receiptRecordReader interface {
	FindByID(ctx context.Context, id string) (*models.FeeRecord, error)
}

type receiptStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type instituteReader interface {
	FindByID(ctx context.Context, id string) (*models.Institute, error)
}

type receiptRenderer interface {
	Render(receipt models.ReceiptData) ([]byte, error)
}

type receiptStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type receiptSigner interface {
	Generate(recordID, relPath string) (string, time.Time, error)
	Parse(token string) (recordID, relPath string, expiresAt time.Time, err error)
}

// placeholder values used when neither the caller context nor the stored
// profile supplies a display field.
const (
	placeholderInstitute = "Institute"
	placeholderValue     = "N/A"
)

// ReceiptDownload is a signed, time-limited reference to a rendered receipt.
type ReceiptDownload struct {
	RecordID  string    `json:"record_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReceiptService composes receipts from paid fee records. A receipt is a
// projection, not a stored document: composing twice for the same record
// yields the same content.
type ReceiptService struct {
	records    receiptRecordReader
	students   receiptStudentReader
	institutes instituteReader
	renderer   receiptRenderer
	store      receiptStore
	signer     receiptSigner
	logger     *zap.Logger
}

// NewReceiptService constructs service.
func NewReceiptService(records receiptRecordReader, students receiptStudentReader, institutes instituteReader, renderer receiptRenderer, store receiptStore, signer receiptSigner, logger *zap.Logger) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{records: records, students: students, institutes: institutes, renderer: renderer, store: store, signer: signer, logger: logger}
}

// Compose builds receipt data for a paid record. Display fields resolve the
// record's own joined fields first, then caller context, then the stored
// profile, then a placeholder; an unpaid record has no receipt.
func (s *ReceiptService) Compose(ctx context.Context, recordID string, instituteCtx *models.InstituteContext, studentCtx *models.StudentContext) (*models.ReceiptData, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee record")
	}
	if record.Status != models.FeeStatusPaid || record.PaidAt == nil {
		return nil, appErrors.Clone(appErrors.ErrReceiptNotAvailable, "receipt available only for paid records")
	}

	receipt := &models.ReceiptData{
		ReceiptNo:   receiptNo(record.ID),
		FeeType:     record.FeeType,
		Period:      record.Period(),
		Items:       models.DecodeBreakdown(record.BreakdownRaw, s.logger),
		TotalAmount: record.TotalAmount,
		PaymentType: record.PaymentKind(),
		PaidAt:      *record.PaidAt,
	}
	if record.PaymentID != nil {
		receipt.PaymentID = *record.PaymentID
	}
	if record.CollectedBy != nil {
		receipt.CollectedBy = *record.CollectedBy
	}

	s.resolveInstitute(ctx, receipt, record.InstituteID, instituteCtx)
	s.resolveStudent(ctx, receipt, record, studentCtx)
	return receipt, nil
}

// RenderPDF composes the receipt, renders it and stores the document, then
// returns a signed download reference.
func (s *ReceiptService) RenderPDF(ctx context.Context, recordID string, instituteCtx *models.InstituteContext, studentCtx *models.StudentContext) (*ReceiptDownload, error) {
	receipt, err := s.Compose(ctx, recordID, instituteCtx, studentCtx)
	if err != nil {
		return nil, err
	}

	data, err := s.renderer.Render(*receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	relPath := recordID + ".pdf"
	if _, err := s.store.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store receipt")
	}

	token, expiresAt, err := s.signer.Generate(recordID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign receipt url")
	}

	s.logger.Info("receipt rendered",
		zap.String("record_id", recordID), zap.Time("expires_at", expiresAt))
	return &ReceiptDownload{RecordID: recordID, Token: token, ExpiresAt: expiresAt}, nil
}

// OpenSigned validates a download token and opens the referenced document.
func (s *ReceiptService) OpenSigned(ctx context.Context, token string) (*os.File, string, error) {
	recordID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid receipt token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "receipt document not found")
	}
	return file, receiptNo(recordID) + ".pdf", nil
}

func (s *ReceiptService) resolveInstitute(ctx context.Context, receipt *models.ReceiptData, instituteID string, override *models.InstituteContext) {
	var profile *models.Institute
	if s.institutes != nil {
		loaded, err := s.institutes.FindByID(ctx, instituteID)
		if err != nil {
			if !isNoRows(err) {
				s.logger.Warn("failed to load institute profile",
					zap.String("institute_id", instituteID), zap.Error(err))
			}
		} else {
			profile = loaded
		}
	}

	var ctxName, ctxLogo, ctxAddress, ctxAffiliation string
	if override != nil {
		ctxName, ctxLogo = override.Name, override.LogoURL
		ctxAddress, ctxAffiliation = override.Address, override.Affiliation
	}
	var profName, profLogo, profAddress, profAffiliation string
	if profile != nil {
		profName, profLogo = profile.Name, profile.LogoURL
		profAddress, profAffiliation = profile.Address, profile.Affiliation
	}

	receipt.InstituteName = firstNonEmpty(ctxName, profName, placeholderInstitute)
	receipt.InstituteLogoURL = firstNonEmpty(ctxLogo, profLogo, "")
	receipt.InstituteAddress = firstNonEmpty(ctxAddress, profAddress, "")
	receipt.InstituteAffiliation = firstNonEmpty(ctxAffiliation, profAffiliation, "")
}

func (s *ReceiptService) resolveStudent(ctx context.Context, receipt *models.ReceiptData, record *models.FeeRecord, override *models.StudentContext) {
	var student *models.Student
	if s.students != nil {
		loaded, err := s.students.FindByID(ctx, record.StudentID)
		if err != nil {
			if !isNoRows(err) {
				s.logger.Warn("failed to load roster entry",
					zap.String("student_id", record.StudentID), zap.Error(err))
			}
		} else {
			student = loaded
		}
	}

	var ctxName, ctxRoll, ctxClass, ctxSection string
	if override != nil {
		ctxName, ctxRoll = override.Name, override.Roll
		ctxClass, ctxSection = override.Class, override.Section
	}
	var rosterName, rosterRoll, rosterClass, rosterSection string
	if student != nil {
		rosterName, rosterRoll = student.FullName, student.Roll
		rosterClass, rosterSection = student.ClassName, student.Section
	}

	// The record's joined display fields win when the list query populated
	// them; roll and section are never carried on the record.
	receipt.StudentName = firstNonEmpty(record.StudentName, ctxName, rosterName, placeholderValue)
	receipt.StudentRoll = firstNonEmpty(ctxRoll, rosterRoll, placeholderValue)
	receipt.StudentClass = firstNonEmpty(record.ClassName, ctxClass, rosterClass, placeholderValue)
	receipt.StudentSection = firstNonEmpty(ctxSection, rosterSection, "")
}

// receiptNo derives a stable human-facing receipt number from the record id.
func receiptNo(recordID string) string {
	compact := strings.ReplaceAll(recordID, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return fmt.Sprintf("RCP-%s", strings.ToUpper(compact))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
