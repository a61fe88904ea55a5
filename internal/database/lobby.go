// internal/database/lobby.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pad-games/backend/internal/lobby"
	"github.com/pad-games/backend/internal/models"
)

const lobbySchema = `
CREATE TABLE IF NOT EXISTS lobbies (
	id VARCHAR(36) PRIMARY KEY,
	host_user_id VARCHAR(36) NOT NULL,
	map_id VARCHAR(36) NOT NULL,
	difficulty VARCHAR(50) NOT NULL,
	max_players INTEGER NOT NULL,
	players JSONB NOT NULL DEFAULT '[]',
	status VARCHAR(50) DEFAULT 'open',
	revision BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);
`

// LobbyStore is the durable lobby.Store over Postgres. The players column
// holds the roster as JSONB in join order; revision gates every write so a
// concurrent writer's commit is never silently overwritten.
type LobbyStore struct {
	pool *pgxpool.Pool
}

// NewLobbyStore bootstraps the lobbies table and returns the store.
func NewLobbyStore(ctx context.Context, pool *pgxpool.Pool) (*LobbyStore, error) {
	if _, err := pool.Exec(ctx, lobbySchema); err != nil {
		return nil, fmt.Errorf("lobby schema init: %w", err)
	}
	return &LobbyStore{pool: pool}, nil
}

// Get returns the current snapshot and its revision.
func (s *LobbyStore) Get(ctx context.Context, lobbyID string) (*models.Lobby, int64, error) {
	var (
		l          models.Lobby
		playersRaw []byte
	)
	q := `
	SELECT id, host_user_id, map_id, difficulty, max_players, players, status, revision, created_at
	FROM lobbies
	WHERE id = $1
	`
	err := s.pool.QueryRow(ctx, q, lobbyID).Scan(
		&l.ID,
		&l.HostUserID,
		&l.MapID,
		&l.Difficulty,
		&l.MaxPlayers,
		&playersRaw,
		&l.Status,
		&l.Revision,
		&l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, lobby.ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get lobby %s: %w", lobbyID, err)
	}
	if err := json.Unmarshal(playersRaw, &l.Players); err != nil {
		return nil, 0, fmt.Errorf("decode players for lobby %s: %w", lobbyID, err)
	}
	return &l, l.Revision, nil
}

// Create inserts a brand-new lobby row.
func (s *LobbyStore) Create(ctx context.Context, snap *models.Lobby) error {
	playersRaw, err := json.Marshal(snap.Players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	q := `
	INSERT INTO lobbies (id, host_user_id, map_id, difficulty, max_players, players, status, revision, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING
	`
	ct, err := s.pool.Exec(ctx, q,
		snap.ID,
		snap.HostUserID,
		snap.MapID,
		snap.Difficulty,
		snap.MaxPlayers,
		playersRaw,
		snap.Status,
		snap.Revision,
		snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lobby %s: %w", snap.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return lobby.ErrAlreadyExists
	}
	return nil
}

// CompareAndSwap commits the snapshot only when the stored revision still
// matches expectedRevision. The single conditional UPDATE is the atomicity
// boundary; there is no read-modify-write window inside the database.
func (s *LobbyStore) CompareAndSwap(ctx context.Context, lobbyID string, expectedRevision int64, snap *models.Lobby) error {
	playersRaw, err := json.Marshal(snap.Players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	q := `
	UPDATE lobbies
	SET host_user_id = $3, players = $4, status = $5, revision = $6
	WHERE id = $1 AND revision = $2
	`
	ct, err := s.pool.Exec(ctx, q,
		lobbyID,
		expectedRevision,
		snap.HostUserID,
		playersRaw,
		snap.Status,
		snap.Revision,
	)
	if err != nil {
		return fmt.Errorf("cas lobby %s: %w", lobbyID, err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var exists int
	err = s.pool.QueryRow(ctx, `SELECT 1 FROM lobbies WHERE id = $1`, lobbyID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return lobby.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("cas lobby %s: %w", lobbyID, err)
	}
	return lobby.ErrRevisionConflict
}

// Ping verifies storage reachability for the health endpoint.
func (s *LobbyStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
