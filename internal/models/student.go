package models

import "time"

// Student represents a learner on the institute roster.
type Student struct {
	ID            string    `db:"id" json:"id"`
	InstituteID   string    `db:"institute_id" json:"institute_id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Roll          string    `db:"roll" json:"roll"`
	ClassName     string    `db:"class_name" json:"class_name"`
	Section       string    `db:"section" json:"section"`
	GuardianName  string    `db:"guardian_name" json:"guardian_name"`
	GuardianPhone string    `db:"guardian_phone" json:"guardian_phone"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates search parameters for listing students.
type StudentFilter struct {
	InstituteID string
	ClassName   string
	Section     string
	Search      string
	Active      *bool
}
