package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/relaydesk/relaydesk/internal/types"
	"github.com/relaydesk/relaydesk/internal/types/interfaces"
)

func newTestStore(t *testing.T) interfaces.HistoryStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.HistoryEntry{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return NewRepository(db)
}

func entry(userID, sessionID string, msgType types.MessageType, ts time.Time) *types.HistoryEntry {
	return &types.HistoryEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		SessionID:   sessionID,
		Message:     "hello",
		MessageType: msgType,
		Intent:      types.IntentGeneral,
		Confidence:  0.6,
		Channel:     types.ChannelWeb,
		Timestamp:   ts,
		Metadata:    types.JSONMap{"k": "v"},
	}
}

func TestAppendAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, []*types.HistoryEntry{
		entry("u1", "s1", types.MessageTypeUser, base),
		entry("u1", "s1", types.MessageTypeBot, base.Add(time.Millisecond)),
	}))

	entries, err := store.Query(ctx, "u1", "s1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, types.MessageTypeUser, entries[0].MessageType)
	assert.Equal(t, types.MessageTypeBot, entries[1].MessageType)
}

func TestQueryChronologicalOrderWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	var batch []*types.HistoryEntry
	for i := 0; i < 6; i++ {
		e := entry("u1", "s1", types.MessageTypeUser, base.Add(time.Duration(i)*time.Second))
		e.Message = fmt.Sprintf("message %d", i)
		batch = append(batch, e)
	}
	require.NoError(t, store.Append(ctx, batch))

	// The newest entries win the limit, returned oldest-first
	entries, err := store.Query(ctx, "u1", "s1", 4)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "message 2", entries[0].Message)
	assert.Equal(t, "message 5", entries[3].Message)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i].Timestamp.After(entries[i-1].Timestamp))
	}
}

func TestQuerySessionFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, []*types.HistoryEntry{
		entry("u1", "s1", types.MessageTypeUser, base),
		entry("u1", "s2", types.MessageTypeUser, base.Add(time.Second)),
		entry("u2", "s1", types.MessageTypeUser, base.Add(2*time.Second)),
	}))

	entries, err := store.Query(ctx, "u1", "s2", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s2", entries[0].SessionID)

	entries, err = store.Query(ctx, "u1", "", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAppendEmptyBatch(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Append(context.Background(), nil))
}

func TestMetadataRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := entry("u1", "s1", types.MessageTypeBot, time.Now().UTC())
	e.Metadata = types.JSONMap{"response_time_ms": float64(42)}
	require.NoError(t, store.Append(ctx, []*types.HistoryEntry{e}))

	entries, err := store.Query(ctx, "u1", "s1", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(42), entries[0].Metadata["response_time_ms"])
}
