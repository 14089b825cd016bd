package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeeType classifies the billing cycle a record belongs to.
type FeeType string

const (
	// FeeTypeMonthly records originate from a published monthly fee config.
	FeeTypeMonthly FeeType = "monthly"
	// FeeTypeOccasional records originate from an ad hoc batch charge.
	FeeTypeOccasional FeeType = "occasional"
)

// FeeStatus is the payment state of a record.
type FeeStatus string

const (
	FeeStatusUnpaid FeeStatus = "unpaid"
	FeeStatusPaid   FeeStatus = "paid"
)

// CounterPaymentPrefix marks payment ids synthesized for manual counter
// collections, as opposed to gateway-issued transaction ids.
const CounterPaymentPrefix = "COUNTER_"

// PaymentKind is the presentational discriminator derived from a payment id.
type PaymentKind string

const (
	PaymentKindOnline  PaymentKind = "online"
	PaymentKindCounter PaymentKind = "counter"
)

// FeeRecord is one student's billing obligation for a monthly period or an
// occasional batch. Status is mutated exclusively through the reconciler's
// conditional update.
type FeeRecord struct {
	ID           string          `db:"id" json:"id"`
	StudentID    string          `db:"student_id" json:"student_id"`
	InstituteID  string          `db:"institute_id" json:"institute_id"`
	FeeType      FeeType         `db:"fee_type" json:"fee_type"`
	MonthYear    string          `db:"month_year" json:"month_year,omitempty"`
	BatchID      *string         `db:"batch_id" json:"batch_id,omitempty"`
	BreakdownRaw string          `db:"breakdown" json:"-"`
	Breakdown    Breakdown       `db:"-" json:"breakdown"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status       FeeStatus       `db:"status" json:"status"`
	PaidAt       *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	PaymentID    *string         `db:"payment_id" json:"payment_id,omitempty"`
	CollectedBy  *string         `db:"collected_by" json:"collected_by,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`

	// joined display fields, populated by list queries.
	StudentName string `db:"student_name" json:"student_name,omitempty"`
	ClassName   string `db:"class_name" json:"class_name,omitempty"`
}

// NewMonthlyFeeRecord builds an unpaid monthly obligation with its total
// derived from the breakdown.
func NewMonthlyFeeRecord(studentID, instituteID, monthYear string, breakdown Breakdown) *FeeRecord {
	record := &FeeRecord{
		StudentID:   studentID,
		InstituteID: instituteID,
		FeeType:     FeeTypeMonthly,
		MonthYear:   monthYear,
		Breakdown:   breakdown.Clone(),
		Status:      FeeStatusUnpaid,
	}
	record.RecomputeTotal()
	return record
}

// NewBatchFeeRecord builds an unpaid occasional obligation for one batch
// member.
func NewBatchFeeRecord(studentID, instituteID, batchID string, breakdown Breakdown) *FeeRecord {
	record := &FeeRecord{
		StudentID:   studentID,
		InstituteID: instituteID,
		FeeType:     FeeTypeOccasional,
		BatchID:     &batchID,
		Breakdown:   breakdown.Clone(),
		Status:      FeeStatusUnpaid,
	}
	record.RecomputeTotal()
	return record
}

// RecomputeTotal derives the total from the current breakdown. Idempotent;
// the total never drifts from the itemized charges.
func (r *FeeRecord) RecomputeTotal() {
	r.TotalAmount = r.Breakdown.Total()
	r.BreakdownRaw = EncodeBreakdown(r.Breakdown)
}

// PaymentKind derives the presentational payment type from the payment id
// prefix. Records without a payment id default to the online label.
func (r *FeeRecord) PaymentKind() PaymentKind {
	if r.PaymentID != nil && strings.HasPrefix(*r.PaymentID, CounterPaymentPrefix) {
		return PaymentKindCounter
	}
	return PaymentKindOnline
}

// Period labels the scope the record is collected under: the billing month
// for monthly fees, the batch id for occasional ones.
func (r *FeeRecord) Period() string {
	if r.FeeType == FeeTypeOccasional && r.BatchID != nil {
		return *r.BatchID
	}
	return r.MonthYear
}

// FeeFilter scopes fee record queries.
type FeeFilter struct {
	InstituteID string
	StudentID   string
	MonthYear   string
	BatchID     string
	ClassName   string
	Status      FeeStatus
	FeeType     FeeType
}
