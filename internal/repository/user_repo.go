package repository

import (
	"context"
	"errors"

	"github.com/arkx-app/odoo-matchmaker/internal/db"
	apperr "github.com/arkx-app/odoo-matchmaker/internal/errors"

	"gorm.io/gorm"
)

// UserRepository provides read access to user accounts. Account creation
// and auth live outside this service.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByIDs loads users keyed by id, for read-side joins.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]db.User, error) {
	out := make(map[uint64]db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// GetByID loads a single user.
func (r *UserRepository) GetByID(ctx context.Context, userID uint64) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
