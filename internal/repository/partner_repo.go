package repository

import (
	"context"
	"errors"

	"github.com/arkx-app/odoo-matchmaker/internal/db"
	apperr "github.com/arkx-app/odoo-matchmaker/internal/errors"

	"gorm.io/gorm"
)

// PartnerRepository provides data access for partner profiles.
type PartnerRepository struct {
	db *gorm.DB
}

// NewPartnerRepository creates a new repository bound to the given DB connection.
func NewPartnerRepository(database *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: database}
}

// List returns all partner profiles, used by the match generator.
func (r *PartnerRepository) List(ctx context.Context) ([]db.Partner, error) {
	var partners []db.Partner
	err := r.db.WithContext(ctx).Order("id ASC").Find(&partners).Error
	return partners, err
}

// GetByID loads a single partner profile.
func (r *PartnerRepository) GetByID(ctx context.Context, partnerID uint64) (*db.Partner, error) {
	var p db.Partner
	err := r.db.WithContext(ctx).First(&p, partnerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("partner")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserID loads the partner profile owned by a user.
func (r *PartnerRepository) GetByUserID(ctx context.Context, userID uint64) (*db.Partner, error) {
	var p db.Partner
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("partner")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs loads partner profiles keyed by id, for read-side joins.
func (r *PartnerRepository) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]db.Partner, error) {
	out := make(map[uint64]db.Partner, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var partners []db.Partner
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&partners).Error; err != nil {
		return nil, err
	}
	for _, p := range partners {
		out[p.ID] = p
	}
	return out, nil
}

// Unswiped returns partners with no Match row for this client, in original
// partner order. A partner disappears from the discovery queue as soon as
// any match exists for the pair, whatever its state.
func (r *PartnerRepository) Unswiped(ctx context.Context, clientID uint64) ([]db.Partner, error) {
	var partners []db.Partner
	err := r.db.WithContext(ctx).
		Table("partners p").
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE m.client_id = ?
				  AND m.partner_id = p.id
			)`, clientID).
		Order("p.id ASC").
		Find(&partners).Error
	return partners, err
}
