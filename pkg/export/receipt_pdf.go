package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/school-fees-api/internal/models"
)

// ReceiptPDF renders receipt data into a printable A5 document. Rendering is
// deterministic for a given receipt: same input, same layout.
type ReceiptPDF struct{}

// NewReceiptPDF constructs a receipt renderer.
func NewReceiptPDF() *ReceiptPDF {
	return &ReceiptPDF{}
}

// Render produces the PDF bytes for a composed receipt.
func (e *ReceiptPDF) Render(receipt models.ReceiptData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, receipt.InstituteName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if receipt.InstituteAddress != "" {
		pdf.CellFormat(0, 5, receipt.InstituteAddress, "", 1, "C", false, 0, "")
	}
	if receipt.InstituteAffiliation != "" {
		pdf.CellFormat(0, 5, receipt.InstituteAffiliation, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "FEE RECEIPT", "T", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(64, 6, fmt.Sprintf("Receipt No: %s", receipt.ReceiptNo), "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Date: %s", receipt.PaidAt.Format("02 Jan 2006")), "", 1, "R", false, 0, "")
	pdf.CellFormat(64, 6, fmt.Sprintf("Student: %s", receipt.StudentName), "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Roll: %s", receipt.StudentRoll), "", 1, "R", false, 0, "")
	pdf.CellFormat(64, 6, fmt.Sprintf("Class: %s %s", receipt.StudentClass, receipt.StudentSection), "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s", receipt.Period), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(96, 7, "Particulars", "1", 0, "", false, 0, "")
	pdf.CellFormat(0, 7, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, item := range receipt.Items {
		pdf.CellFormat(96, 6, item.Label, "1", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, item.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(96, 7, "Total", "1", 0, "", false, 0, "")
	pdf.CellFormat(0, 7, receipt.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 9)
	switch receipt.PaymentType {
	case models.PaymentKindCounter:
		pdf.CellFormat(0, 6, fmt.Sprintf("Paid at counter, collected by %s", receipt.CollectedBy), "", 1, "", false, 0, "")
	default:
		pdf.CellFormat(0, 6, "Paid online", "", 1, "", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
