package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchLineItem is one named charge applied to every member of a batch.
type BatchLineItem struct {
	Label  string          `db:"label" json:"label"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
}

// OccasionalBatch is an ad hoc charge applied to a selected student subset,
// independent of the monthly cycle. It is created atomically with its full
// membership and line items and is immutable afterwards; only the member
// records' payment state changes.
type OccasionalBatch struct {
	ID               string          `db:"id" json:"id"`
	InstituteID      string          `db:"institute_id" json:"institute_id"`
	Reasons          string          `db:"reasons" json:"reasons"`
	LineItems        []BatchLineItem `json:"line_items"`
	MemberStudentIDs []string        `json:"member_student_ids"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// Breakdown renders the line items as the member records' charge breakdown.
func (b *OccasionalBatch) Breakdown() Breakdown {
	breakdown := Breakdown{}
	for _, item := range b.LineItems {
		breakdown = breakdown.Set(item.Label, item.Amount)
	}
	return breakdown
}

// SelectAllFiltered toggles membership of the filtered id set within the
// current selection. When every filtered id is already selected the whole
// filtered set is deselected; otherwise the missing ids are added. Ids outside
// the filter are never touched, so selections made under a previous filter
// survive a filter change. Applying the toggle twice with the same filtered
// set restores the original selection.
func SelectAllFiltered(current, filtered []string) []string {
	selected := make(map[string]struct{}, len(current))
	for _, id := range current {
		selected[id] = struct{}{}
	}
	allSelected := true
	for _, id := range filtered {
		if _, ok := selected[id]; !ok {
			allSelected = false
			break
		}
	}

	if allSelected {
		inFilter := make(map[string]struct{}, len(filtered))
		for _, id := range filtered {
			inFilter[id] = struct{}{}
		}
		kept := make([]string, 0, len(current))
		for _, id := range current {
			if _, ok := inFilter[id]; ok {
				continue
			}
			kept = append(kept, id)
		}
		return kept
	}

	result := append([]string(nil), current...)
	for _, id := range filtered {
		if _, ok := selected[id]; !ok {
			result = append(result, id)
			selected[id] = struct{}{}
		}
	}
	return result
}

// BatchSummary carries the derived collection figures for one batch.
type BatchSummary struct {
	BatchID        string          `db:"batch_id" json:"batch_id"`
	Reasons        string          `db:"reasons" json:"reasons"`
	StudentCount   int             `db:"student_count" json:"student_count"`
	PaidCount      int             `db:"paid_count" json:"paid_count"`
	TotalExpected  decimal.Decimal `db:"total_expected" json:"total_expected"`
	TotalCollected decimal.Decimal `db:"total_collected" json:"total_collected"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
