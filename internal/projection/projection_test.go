package projection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_SetAndGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	err := store.Set(ctx, "k1", []byte("hello"), 0)
	require.NoError(t, err)

	val, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), val)
}

func TestInMemoryStore_KeyNotFound(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.Error(t, err)
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "k1", []byte("data"), 0)
	_ = store.Delete(ctx, "k1")

	_, err := store.Get(ctx, "k1")
	assert.Error(t, err)
}

func TestInMemoryStore_TTLExpiry(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "k1", []byte("data"), 1*time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "k1")
	assert.Error(t, err)
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "shared", []byte("v"), 0)
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	val, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestLeaderboardSnapshot_RoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	s := LeaderboardSnapshot{
		OrderedBy: "gems",
		Limit:     10,
		Rows: []LeaderboardRow{
			{Username: "alice", Gems: 5000, XP: 1200, Level: 2},
			{Username: "bob", Gems: 3000, XP: 400, Level: 1},
		},
	}

	err := UpdateLeaderboard(ctx, store, s)
	require.NoError(t, err)

	got, err := GetLeaderboard(ctx, store, "gems", 10)
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "alice", got.Rows[0].Username)
	assert.Equal(t, int64(5000), got.Rows[0].Gems)
	assert.NotEmpty(t, got.GeneratedAt)
}

func TestLeaderboardSnapshot_KeyedByOrderAndLimit(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = UpdateLeaderboard(ctx, store, LeaderboardSnapshot{OrderedBy: "gems", Limit: 10})

	_, err := GetLeaderboard(ctx, store, "xp", 10)
	assert.Error(t, err)

	_, err = GetLeaderboard(ctx, store, "gems", 25)
	assert.Error(t, err)
}

func TestWinsFeedSnapshot_Invalidate(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = UpdateWinsFeed(ctx, store, WinsFeedSnapshot{Limit: 20})
	_ = InvalidateWinsFeed(ctx, store, 20)

	_, err := GetWinsFeed(ctx, store, 20)
	assert.Error(t, err)
}
