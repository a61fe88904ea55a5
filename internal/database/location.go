// internal/database/location.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pad-games/backend/internal/models"
)

const locationSchema = `
CREATE TABLE IF NOT EXISTS location_history (
	id SERIAL PRIMARY KEY,
	user_id VARCHAR(36) NOT NULL,
	lobby_id VARCHAR(36) NOT NULL,
	room_id VARCHAR(36) NOT NULL,
	is_speaking BOOLEAN DEFAULT FALSE,
	group_users JSONB DEFAULT '[]',
	is_hiding BOOLEAN DEFAULT FALSE,
	recorded_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_location_user_lobby ON location_history (user_id, lobby_id);
CREATE INDEX IF NOT EXISTS idx_location_lobby ON location_history (lobby_id);
CREATE INDEX IF NOT EXISTS idx_location_recorded_at ON location_history (recorded_at DESC);
`

// ErrNoLocation is returned when a user has no samples in a lobby.
var ErrNoLocation = errors.New("no location data found for user in this lobby")

// LocationRepo is the append-only Postgres location history.
type LocationRepo struct {
	pool *pgxpool.Pool
}

// NewLocationRepo bootstraps the location_history table and returns the repo.
func NewLocationRepo(ctx context.Context, pool *pgxpool.Pool) (*LocationRepo, error) {
	if _, err := pool.Exec(ctx, locationSchema); err != nil {
		return nil, fmt.Errorf("location schema init: %w", err)
	}
	return &LocationRepo{pool: pool}, nil
}

// Track appends one sample.
func (r *LocationRepo) Track(ctx context.Context, s *models.LocationSample) error {
	groupRaw, err := json.Marshal(s.Group)
	if err != nil {
		return fmt.Errorf("encode group: %w", err)
	}
	q := `
	INSERT INTO location_history (user_id, lobby_id, room_id, is_speaking, group_users, is_hiding, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.pool.Exec(ctx, q, s.UserID, s.LobbyID, s.RoomID, s.IsSpeaking, groupRaw, s.IsHiding, s.RecordedAt); err != nil {
		return fmt.Errorf("track location: %w", err)
	}
	return nil
}

// Latest returns the newest sample for a user in a lobby, or ErrNoLocation.
func (r *LocationRepo) Latest(ctx context.Context, lobbyID, userID string) (*models.LocationSample, error) {
	q := `
	SELECT user_id, lobby_id, room_id, is_speaking, group_users, is_hiding, recorded_at
	FROM location_history
	WHERE user_id = $1 AND lobby_id = $2
	ORDER BY recorded_at DESC
	LIMIT 1
	`
	var (
		s        models.LocationSample
		groupRaw []byte
	)
	err := r.pool.QueryRow(ctx, q, userID, lobbyID).Scan(
		&s.UserID, &s.LobbyID, &s.RoomID, &s.IsSpeaking, &groupRaw, &s.IsHiding, &s.RecordedAt,
	)
	if isNoRows(err) {
		return nil, ErrNoLocation
	}
	if err != nil {
		return nil, fmt.Errorf("latest location: %w", err)
	}
	if err := json.Unmarshal(groupRaw, &s.Group); err != nil {
		return nil, fmt.Errorf("decode group: %w", err)
	}
	return &s, nil
}

// History returns up to limit recent samples for a user in a lobby, newest
// first.
func (r *LocationRepo) History(ctx context.Context, lobbyID, userID string, limit int) ([]models.LocationSample, error) {
	q := `
	SELECT user_id, lobby_id, room_id, is_speaking, group_users, is_hiding, recorded_at
	FROM location_history
	WHERE user_id = $1 AND lobby_id = $2
	ORDER BY recorded_at DESC
	LIMIT $3
	`
	rows, err := r.pool.Query(ctx, q, userID, lobbyID, limit)
	if err != nil {
		return nil, fmt.Errorf("location history: %w", err)
	}
	defer rows.Close()

	var history []models.LocationSample
	for rows.Next() {
		var (
			s        models.LocationSample
			groupRaw []byte
		)
		if err := rows.Scan(&s.UserID, &s.LobbyID, &s.RoomID, &s.IsSpeaking, &groupRaw, &s.IsHiding, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan location sample: %w", err)
		}
		if err := json.Unmarshal(groupRaw, &s.Group); err != nil {
			return nil, fmt.Errorf("decode group: %w", err)
		}
		history = append(history, s)
	}
	return history, rows.Err()
}

// LobbyLatest returns the newest sample per user in a lobby.
func (r *LocationRepo) LobbyLatest(ctx context.Context, lobbyID string) ([]models.LocationSample, error) {
	q := `
	SELECT DISTINCT ON (user_id)
		user_id, lobby_id, room_id, is_speaking, group_users, is_hiding, recorded_at
	FROM location_history
	WHERE lobby_id = $1
	ORDER BY user_id, recorded_at DESC
	`
	rows, err := r.pool.Query(ctx, q, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("lobby locations: %w", err)
	}
	defer rows.Close()

	var samples []models.LocationSample
	for rows.Next() {
		var (
			s        models.LocationSample
			groupRaw []byte
		)
		if err := rows.Scan(&s.UserID, &s.LobbyID, &s.RoomID, &s.IsSpeaking, &groupRaw, &s.IsHiding, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan location sample: %w", err)
		}
		if err := json.Unmarshal(groupRaw, &s.Group); err != nil {
			return nil, fmt.Errorf("decode group: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// Ping verifies storage reachability for the health endpoint.
func (r *LocationRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
