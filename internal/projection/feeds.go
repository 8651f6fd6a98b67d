package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/gemcade/platform/internal/domain"
)

// LeaderboardRow is one cached leaderboard entry. Only the public fields
// of an account make it into the cache.
type LeaderboardRow struct {
	Username string `json:"username"`
	Gems     int64  `json:"gems"`
	XP       int64  `json:"xp"`
	Level    int    `json:"level"`
}

// LeaderboardSnapshot is a cached leaderboard page.
type LeaderboardSnapshot struct {
	OrderedBy   string           `json:"ordered_by"`
	Limit       int              `json:"limit"`
	Rows        []LeaderboardRow `json:"rows"`
	GeneratedAt string           `json:"generated_at"`
}

// WinsFeedSnapshot is a cached page of the public recent-wins feed.
type WinsFeedSnapshot struct {
	Limit       int               `json:"limit"`
	Wins        []domain.WagerWin `json:"wins"`
	GeneratedAt string            `json:"generated_at"`
}

const (
	leaderboardTTL = 60 * time.Second
	winsFeedTTL    = 15 * time.Second
)

// UpdateLeaderboard caches a leaderboard snapshot.
func UpdateLeaderboard(ctx context.Context, store Store, s LeaderboardSnapshot) error {
	s.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	key := fmt.Sprintf("projection:leaderboard:%s:%d", s.OrderedBy, s.Limit)
	return SetJSON(ctx, store, key, s, leaderboardTTL)
}

// GetLeaderboard retrieves a cached leaderboard snapshot.
func GetLeaderboard(ctx context.Context, store Store, orderedBy string, limit int) (*LeaderboardSnapshot, error) {
	key := fmt.Sprintf("projection:leaderboard:%s:%d", orderedBy, limit)
	var s LeaderboardSnapshot
	if err := GetJSON(ctx, store, key, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateWinsFeed caches a recent-wins snapshot.
func UpdateWinsFeed(ctx context.Context, store Store, s WinsFeedSnapshot) error {
	s.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	key := fmt.Sprintf("projection:wins:%d", s.Limit)
	return SetJSON(ctx, store, key, s, winsFeedTTL)
}

// GetWinsFeed retrieves a cached recent-wins snapshot.
func GetWinsFeed(ctx context.Context, store Store, limit int) (*WinsFeedSnapshot, error) {
	key := fmt.Sprintf("projection:wins:%d", limit)
	var s WinsFeedSnapshot
	if err := GetJSON(ctx, store, key, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// InvalidateWinsFeed removes a cached wins page so the next read refreshes.
func InvalidateWinsFeed(ctx context.Context, store Store, limit int) error {
	key := fmt.Sprintf("projection:wins:%d", limit)
	return store.Delete(ctx, key)
}
