// Package usercontext persists per-user conversation state.
package usercontext

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

type contextRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed context store
func NewRepository(db *gorm.DB) interfaces.ContextStore {
	return &contextRepository{db: db}
}

// Get returns the stored context for a user, or types.ErrNotFound
func (r *contextRepository) Get(ctx context.Context, userID string) (*types.UserContext, error) {
	var uc types.UserContext
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&uc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load user context: %v", types.ErrStoreUnavailable, err)
	}
	return &uc, nil
}

// Put upserts the context for its user
func (r *contextRepository) Put(ctx context.Context, uc *types.UserContext) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(uc).Error
	if err != nil {
		return fmt.Errorf("%w: failed to save user context: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}
