package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-fees-api/internal/models"
)

// InstituteRepository reads institute profiles used on receipts.
type InstituteRepository struct {
	db *sqlx.DB
}

// NewInstituteRepository constructs an InstituteRepository.
func NewInstituteRepository(db *sqlx.DB) *InstituteRepository {
	return &InstituteRepository{db: db}
}

// FindByID fetches one institute profile.
func (r *InstituteRepository) FindByID(ctx context.Context, id string) (*models.Institute, error) {
	const query = `SELECT id, name, logo_url, address, affiliation, phone, email, created_at, updated_at
        FROM institutes WHERE id = $1`
	var institute models.Institute
	if err := r.db.GetContext(ctx, &institute, query, id); err != nil {
		return nil, fmt.Errorf("find institute: %w", err)
	}
	return &institute, nil
}
