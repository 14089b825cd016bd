package models

import "github.com/shopspring/decimal"

// ClassFilterAll is the identity class filter for defaulter queries.
const ClassFilterAll = "ALL"

// ClassTrackingRow summarises collection progress for one class within a
// billing period. Classes without any fee record for the period are absent
// from tracking output entirely.
type ClassTrackingRow struct {
	ClassName      string          `db:"class_name" json:"class_name"`
	TotalStudents  int             `db:"total_students" json:"total_students"`
	PaidCount      int             `db:"paid_count" json:"paid_count"`
	TotalExpected  decimal.Decimal `db:"total_expected" json:"total_expected"`
	TotalCollected decimal.Decimal `db:"total_collected" json:"total_collected"`
	CollectionRate float64         `json:"collection_rate"`
}

// ComputeRate derives the collection rate, reporting 0 when nothing is
// expected rather than dividing by zero.
func (r *ClassTrackingRow) ComputeRate() {
	if r.TotalExpected.IsZero() {
		r.CollectionRate = 0
		return
	}
	rate, _ := r.TotalCollected.Div(r.TotalExpected).Float64()
	r.CollectionRate = rate
}

// DefaulterFilter scopes defaulter queries: monthly records by period, or
// occasional records by batch.
type DefaulterFilter struct {
	InstituteID string
	MonthYear   string
	BatchID     string
	ClassFilter string
}

// SystemMetrics is a lightweight snapshot of service instrumentation exposed
// through the tracking API.
type SystemMetrics struct {
	CacheHitRatio        float64 `json:"cache_hit_ratio"`
	AvgResponseTimeMs    float64 `json:"avg_response_time_ms"`
	AvgDBQueryTimeMs     float64 `json:"avg_db_query_time_ms"`
	TotalRequests        uint64  `json:"total_requests"`
	TotalReconciliations uint64  `json:"total_reconciliations"`
	GoroutineCount       int     `json:"goroutine_count"`
}
