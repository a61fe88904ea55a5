// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pad-games/backend/internal/models"
)

// latestTTL bounds how long a cached sample is trusted before the service
// falls back to the history table.
const latestTTL = 5 * time.Minute

// ErrCacheMiss is returned when no cached sample exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// Connect initializes a Redis client and verifies it with a short ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// LocationCache keeps the latest location sample per (lobby, user) so the
// hot latest-position lookup skips the history table.
type LocationCache struct {
	rdb *redis.Client
}

// NewLocationCache wraps a connected Redis client.
func NewLocationCache(rdb *redis.Client) *LocationCache {
	return &LocationCache{rdb: rdb}
}

func latestKey(lobbyID, userID string) string {
	return fmt.Sprintf("location:latest:%s:%s", lobbyID, userID)
}

// SetLatest stores the sample as the latest for its (lobby, user) key.
func (c *LocationCache) SetLatest(ctx context.Context, s *models.LocationSample) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal location sample: %w", err)
	}
	if err := c.rdb.Set(ctx, latestKey(s.LobbyID, s.UserID), data, latestTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache latest location: %w", err)
	}
	return nil
}

// GetLatest returns the cached latest sample, or ErrCacheMiss.
func (c *LocationCache) GetLatest(ctx context.Context, lobbyID, userID string) (*models.LocationSample, error) {
	data, err := c.rdb.Get(ctx, latestKey(lobbyID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached location: %w", err)
	}
	var s models.LocationSample
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached location: %w", err)
	}
	return &s, nil
}
