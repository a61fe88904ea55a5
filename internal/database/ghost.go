// internal/database/ghost.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pad-games/backend/internal/models"
)

const ghostSchema = `
CREATE TABLE IF NOT EXISTS ghosts (
	id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	type_a_symptoms JSONB NOT NULL DEFAULT '[]',
	type_b_symptoms JSONB NOT NULL DEFAULT '[]',
	type_c_symptoms JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);
`

// ErrGhostNotFound is returned when no ghost row matches the requested ID.
var ErrGhostNotFound = errors.New("ghost not found")

// GhostRepo is the Postgres-backed ghost catalog.
type GhostRepo struct {
	pool *pgxpool.Pool
}

// NewGhostRepo bootstraps the ghosts table and returns the repo.
func NewGhostRepo(ctx context.Context, pool *pgxpool.Pool) (*GhostRepo, error) {
	if _, err := pool.Exec(ctx, ghostSchema); err != nil {
		return nil, fmt.Errorf("ghost schema init: %w", err)
	}
	return &GhostRepo{pool: pool}, nil
}

// List returns every ghost type, alphabetically by name.
func (r *GhostRepo) List(ctx context.Context) ([]models.Ghost, error) {
	q := `
	SELECT id, name, type_a_symptoms, type_b_symptoms, type_c_symptoms, created_at, updated_at
	FROM ghosts
	ORDER BY name
	`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list ghosts: %w", err)
	}
	defer rows.Close()

	var ghosts []models.Ghost
	for rows.Next() {
		g, err := scanGhost(rows)
		if err != nil {
			return nil, err
		}
		ghosts = append(ghosts, g)
	}
	return ghosts, rows.Err()
}

// Get fetches one ghost by ID.
func (r *GhostRepo) Get(ctx context.Context, id string) (*models.Ghost, error) {
	q := `
	SELECT id, name, type_a_symptoms, type_b_symptoms, type_c_symptoms, created_at, updated_at
	FROM ghosts
	WHERE id = $1
	`
	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("get ghost %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get ghost %s: %w", id, err)
		}
		return nil, ErrGhostNotFound
	}
	g, err := scanGhost(rows)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a new ghost type and returns its generated ID.
func (r *GhostRepo) Create(ctx context.Context, g *models.Ghost) (string, error) {
	g.ID = uuid.NewString()
	aRaw, bRaw, cRaw, err := marshalSymptoms(g)
	if err != nil {
		return "", err
	}
	q := `
	INSERT INTO ghosts (id, name, type_a_symptoms, type_b_symptoms, type_c_symptoms)
	VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.pool.Exec(ctx, q, g.ID, g.Name, aRaw, bRaw, cRaw); err != nil {
		return "", fmt.Errorf("insert ghost: %w", err)
	}
	return g.ID, nil
}

// Update applies a partial update; nil fields are left untouched.
func (r *GhostRepo) Update(ctx context.Context, id string, name *string, typeA, typeB, typeC []string) (*models.Ghost, error) {
	cur, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		cur.Name = *name
	}
	if typeA != nil {
		cur.TypeASymptoms = typeA
	}
	if typeB != nil {
		cur.TypeBSymptoms = typeB
	}
	if typeC != nil {
		cur.TypeCSymptoms = typeC
	}

	aRaw, bRaw, cRaw, err := marshalSymptoms(cur)
	if err != nil {
		return nil, err
	}
	q := `
	UPDATE ghosts
	SET name = $2, type_a_symptoms = $3, type_b_symptoms = $4, type_c_symptoms = $5, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, q, id, cur.Name, aRaw, bRaw, cRaw); err != nil {
		return nil, fmt.Errorf("update ghost %s: %w", id, err)
	}
	return cur, nil
}

// Ping verifies storage reachability for the health endpoint.
func (r *GhostRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanGhost(rows pgx.Rows) (models.Ghost, error) {
	var (
		g                models.Ghost
		aRaw, bRaw, cRaw []byte
	)
	if err := rows.Scan(&g.ID, &g.Name, &aRaw, &bRaw, &cRaw, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return g, fmt.Errorf("scan ghost: %w", err)
	}
	for _, pair := range []struct {
		raw []byte
		dst *[]string
	}{
		{aRaw, &g.TypeASymptoms},
		{bRaw, &g.TypeBSymptoms},
		{cRaw, &g.TypeCSymptoms},
	} {
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return g, fmt.Errorf("decode symptoms for ghost %s: %w", g.ID, err)
		}
	}
	return g, nil
}

func marshalSymptoms(g *models.Ghost) ([]byte, []byte, []byte, error) {
	aRaw, err := json.Marshal(emptyIfNil(g.TypeASymptoms))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode symptoms: %w", err)
	}
	bRaw, err := json.Marshal(emptyIfNil(g.TypeBSymptoms))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode symptoms: %w", err)
	}
	cRaw, err := json.Marshal(emptyIfNil(g.TypeCSymptoms))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode symptoms: %w", err)
	}
	return aRaw, bRaw, cRaw, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
