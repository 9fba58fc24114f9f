// Package history persists the append-only log of message/response pairs.
package history

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

type historyRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed history store
func NewRepository(db *gorm.DB) interfaces.HistoryStore {
	return &historyRepository{db: db}
}

// Append writes entries in one batch
func (r *historyRepository) Append(ctx context.Context, entries []*types.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(entries).Error; err != nil {
		return fmt.Errorf("%w: failed to append history entries: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}

// Query fetches the newest entries for a user, optionally narrowed to one
// session, and returns them in chronological order.
func (r *historyRepository) Query(ctx context.Context, userID, sessionID string, limit int) ([]*types.HistoryEntry, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}

	var entries []*types.HistoryEntry
	if err := query.Order("timestamp DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to query history: %v", types.ErrStoreUnavailable, err)
	}

	// Newest-first fetch, chronological return
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
