// internal/database/maps.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pad-games/backend/internal/models"
)

const mapSchema = `
CREATE TABLE IF NOT EXISTS maps (
	id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	rooms JSONB NOT NULL DEFAULT '[]',
	connections JSONB NOT NULL DEFAULT '[]',
	objects JSONB NOT NULL DEFAULT '[]',
	hiding_spots JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);
`

// ErrMapNotFound is returned when no map row matches the requested ID.
var ErrMapNotFound = errors.New("map not found")

// MapRepo is the Postgres-backed map catalog. Rooms, connections, objects and
// hiding spots live as JSONB documents on the map row.
type MapRepo struct {
	pool *pgxpool.Pool
}

// NewMapRepo bootstraps the maps table and returns the repo.
func NewMapRepo(ctx context.Context, pool *pgxpool.Pool) (*MapRepo, error) {
	if _, err := pool.Exec(ctx, mapSchema); err != nil {
		return nil, fmt.Errorf("map schema init: %w", err)
	}
	return &MapRepo{pool: pool}, nil
}

// List returns one page of maps (id and name only) plus the total count.
func (r *MapRepo) List(ctx context.Context, page, pageSize int) ([]models.GameMap, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM maps`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count maps: %w", err)
	}

	q := `
	SELECT id, name, created_at
	FROM maps
	ORDER BY created_at
	LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, q, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list maps: %w", err)
	}
	defer rows.Close()

	var maps []models.GameMap
	for rows.Next() {
		var m models.GameMap
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan map: %w", err)
		}
		maps = append(maps, m)
	}
	return maps, total, rows.Err()
}

// Get fetches one map with its full layout.
func (r *MapRepo) Get(ctx context.Context, id string) (*models.GameMap, error) {
	q := `
	SELECT id, name, rooms, connections, objects, hiding_spots, created_at
	FROM maps
	WHERE id = $1
	`
	var (
		m                                        models.GameMap
		roomsRaw, connsRaw, objectsRaw, spotsRaw []byte
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.Name, &roomsRaw, &connsRaw, &objectsRaw, &spotsRaw, &m.CreatedAt)
	if isNoRows(err) {
		return nil, ErrMapNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get map %s: %w", id, err)
	}

	if err := json.Unmarshal(roomsRaw, &m.Rooms); err != nil {
		return nil, fmt.Errorf("decode rooms for map %s: %w", id, err)
	}
	if err := json.Unmarshal(connsRaw, &m.Connections); err != nil {
		return nil, fmt.Errorf("decode connections for map %s: %w", id, err)
	}
	if err := json.Unmarshal(objectsRaw, &m.Objects); err != nil {
		return nil, fmt.Errorf("decode objects for map %s: %w", id, err)
	}
	if err := json.Unmarshal(spotsRaw, &m.HidingSpots); err != nil {
		return nil, fmt.Errorf("decode hiding spots for map %s: %w", id, err)
	}
	return &m, nil
}

// Create inserts a new map and returns its generated ID. Room IDs are
// generated here; callers only supply room names.
func (r *MapRepo) Create(ctx context.Context, name string, roomNames []string) (string, error) {
	id := uuid.NewString()
	rooms := make([]models.Room, 0, len(roomNames))
	for _, rn := range roomNames {
		if rn == "" {
			rn = "Unnamed Room"
		}
		rooms = append(rooms, models.Room{ID: uuid.NewString(), Name: rn})
	}
	roomsRaw, err := json.Marshal(rooms)
	if err != nil {
		return "", fmt.Errorf("encode rooms: %w", err)
	}

	q := `
	INSERT INTO maps (id, name, rooms)
	VALUES ($1, $2, $3)
	`
	if _, err := r.pool.Exec(ctx, q, id, name, roomsRaw); err != nil {
		return "", fmt.Errorf("insert map: %w", err)
	}
	return id, nil
}

// Rename updates a map's name and returns the updated row.
func (r *MapRepo) Rename(ctx context.Context, id, name string) (*models.GameMap, error) {
	q := `UPDATE maps SET name = $2 WHERE id = $1`
	ct, err := r.pool.Exec(ctx, q, id, name)
	if err != nil {
		return nil, fmt.Errorf("rename map %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrMapNotFound
	}
	return r.Get(ctx, id)
}

// Ping verifies storage reachability for the health endpoint.
func (r *MapRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
