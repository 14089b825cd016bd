package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyFeeConfig is the draft fee structure for one institute and month:
// the ordered set of charge columns and the per-class amounts keyed by column.
// Publishing it materializes FeeRecords for students whose class has amounts.
type MonthlyFeeConfig struct {
	ID          string                                `db:"id" json:"id"`
	InstituteID string                                `db:"institute_id" json:"institute_id"`
	MonthYear   string                                `db:"month_year" json:"month_year"`
	Columns     []string                              `json:"columns"`
	ClassData   map[string]map[string]decimal.Decimal `json:"class_data"`
	CreatedAt   time.Time                             `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time                             `db:"updated_at" json:"updated_at"`
}

// HasColumn reports whether the column is part of the config.
func (c *MonthlyFeeConfig) HasColumn(label string) bool {
	for _, column := range c.Columns {
		if column == label {
			return true
		}
	}
	return false
}

// AddColumn appends a new charge column. Adding an existing column is a
// no-op.
func (c *MonthlyFeeConfig) AddColumn(label string) {
	if c.HasColumn(label) {
		return
	}
	c.Columns = append(c.Columns, label)
}

// RemoveColumn drops the column and every class amount keyed by it, so no
// orphaned amounts survive.
func (c *MonthlyFeeConfig) RemoveColumn(label string) {
	columns := c.Columns[:0]
	for _, column := range c.Columns {
		if column != label {
			columns = append(columns, column)
		}
	}
	c.Columns = columns
	for _, amounts := range c.ClassData {
		delete(amounts, label)
	}
}

// SetClassAmount assigns the amount a class pays for a column. The column
// must already exist.
func (c *MonthlyFeeConfig) SetClassAmount(className, column string, amount decimal.Decimal) {
	if c.ClassData == nil {
		c.ClassData = make(map[string]map[string]decimal.Decimal)
	}
	if c.ClassData[className] == nil {
		c.ClassData[className] = make(map[string]decimal.Decimal)
	}
	c.ClassData[className][column] = amount
}

// ClassBreakdown resolves the breakdown a class is charged, following column
// order. Classes without configured amounts yield an empty breakdown.
func (c *MonthlyFeeConfig) ClassBreakdown(className string) Breakdown {
	amounts := c.ClassData[className]
	breakdown := Breakdown{}
	for _, column := range c.Columns {
		amount, ok := amounts[column]
		if !ok {
			continue
		}
		breakdown = breakdown.Set(column, amount)
	}
	return breakdown
}
