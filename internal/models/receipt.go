package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstituteContext carries institute display fields supplied explicitly by a
// caller, overriding the stored profile.
type InstituteContext struct {
	Name        string `json:"name,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
	Address     string `json:"address,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
}

// StudentContext carries student display fields supplied explicitly by a
// caller, overriding the stored roster entry.
type StudentContext struct {
	Name    string `json:"name,omitempty"`
	Roll    string `json:"roll,omitempty"`
	Class   string `json:"class,omitempty"`
	Section string `json:"section,omitempty"`
}

// ReceiptData is the canonical receipt shape consumed by the rendering
// layer. It is a value object composed from a paid fee record at request
// time, never persisted.
type ReceiptData struct {
	ReceiptNo string `json:"receipt_no"`

	InstituteName        string `json:"institute_name"`
	InstituteLogoURL     string `json:"institute_logo_url"`
	InstituteAddress     string `json:"institute_address"`
	InstituteAffiliation string `json:"institute_affiliation"`

	StudentName    string `json:"student_name"`
	StudentRoll    string `json:"student_roll"`
	StudentClass   string `json:"student_class"`
	StudentSection string `json:"student_section"`

	FeeType     FeeType         `json:"fee_type"`
	Period      string          `json:"period"`
	Items       Breakdown       `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaymentType PaymentKind     `json:"payment_type"`
	PaymentID   string          `json:"payment_id"`
	CollectedBy string          `json:"collected_by,omitempty"`
	PaidAt      time.Time       `json:"paid_at"`
}
