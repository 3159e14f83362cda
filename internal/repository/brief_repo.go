package repository

import (
	"context"
	"errors"

	"github.com/arkx-app/odoo-matchmaker/internal/db"
	apperr "github.com/arkx-app/odoo-matchmaker/internal/errors"

	"gorm.io/gorm"
)

// BriefRepository provides data access for client briefs.
type BriefRepository struct {
	db *gorm.DB
}

// NewBriefRepository creates a new repository bound to the given DB connection.
func NewBriefRepository(database *gorm.DB) *BriefRepository {
	return &BriefRepository{db: database}
}

// Create persists a new brief.
func (r *BriefRepository) Create(ctx context.Context, brief *db.Brief) error {
	return r.db.WithContext(ctx).Create(brief).Error
}

// GetByID loads a single brief.
func (r *BriefRepository) GetByID(ctx context.Context, briefID uint64) (*db.Brief, error) {
	var b db.Brief
	err := r.db.WithContext(ctx).First(&b, briefID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("brief")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByIDs loads briefs keyed by id, for read-side joins.
func (r *BriefRepository) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]db.Brief, error) {
	out := make(map[uint64]db.Brief, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var briefs []db.Brief
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&briefs).Error; err != nil {
		return nil, err
	}
	for _, b := range briefs {
		out[b.ID] = b
	}
	return out, nil
}

// LatestByClient returns the client's most recent non-archived brief, or
// gorm.ErrRecordNotFound wrapped as a domain NotFound when none exists.
// Used to attach scoring context to client-initiated swipes.
func (r *BriefRepository) LatestByClient(ctx context.Context, clientID uint64) (*db.Brief, error) {
	var b db.Brief
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND status <> ?", clientID, db.BriefArchived).
		Order("id DESC").
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("brief")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SetStatus moves a brief through its external lifecycle.
func (r *BriefRepository) SetStatus(ctx context.Context, briefID uint64, status string) error {
	res := r.db.WithContext(ctx).
		Model(&db.Brief{}).
		Where("id = ?", briefID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("brief")
	}
	return nil
}
