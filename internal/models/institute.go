package models

import "time"

// Institute is the stored profile of a school, consumed by the receipt
// composer's fallback chain. Fields may be blank when the profile was
// imported from an external roster rather than self-served.
type Institute struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	LogoURL     string    `db:"logo_url" json:"logo_url"`
	Address     string    `db:"address" json:"address"`
	Affiliation string    `db:"affiliation" json:"affiliation"`
	Phone       string    `db:"phone" json:"phone"`
	Email       string    `db:"email" json:"email"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
