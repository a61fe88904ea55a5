// internal/database/inventory.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pad-games/backend/internal/models"
)

const inventorySchema = `
CREATE TABLE IF NOT EXISTS inventory_items (
	id VARCHAR(36) PRIMARY KEY,
	user_id VARCHAR(36) NOT NULL,
	item_id VARCHAR(36) NOT NULL,
	name VARCHAR(100) NOT NULL,
	durability INTEGER NOT NULL,
	max_durability INTEGER NOT NULL,
	equipped BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_inventory_user ON inventory_items (user_id);
`

// Inventory errors surfaced to handlers.
var (
	ErrItemNotFound  = errors.New("item not found in inventory")
	ErrDuplicateItem = errors.New("item already exists in inventory")
)

// InventoryRepo is the Postgres-backed per-player item storage.
type InventoryRepo struct {
	pool *pgxpool.Pool
}

// NewInventoryRepo bootstraps the inventory_items table and returns the repo.
func NewInventoryRepo(ctx context.Context, pool *pgxpool.Pool) (*InventoryRepo, error) {
	if _, err := pool.Exec(ctx, inventorySchema); err != nil {
		return nil, fmt.Errorf("inventory schema init: %w", err)
	}
	return &InventoryRepo{pool: pool}, nil
}

// ListForUser returns all items owned by a player, oldest first.
func (r *InventoryRepo) ListForUser(ctx context.Context, userID string) ([]models.InventoryItem, error) {
	q := `
	SELECT id, user_id, item_id, name, durability, max_durability, equipped, created_at, updated_at
	FROM inventory_items
	WHERE user_id = $1
	ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list inventory for %s: %w", userID, err)
	}
	defer rows.Close()

	var items []models.InventoryItem
	for rows.Next() {
		var it models.InventoryItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.ItemID, &it.Name, &it.Durability,
			&it.MaxDurability, &it.Equipped, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Add inserts a new item for a player and returns the inventory row ID. A
// player cannot hold the same item type twice.
func (r *InventoryRepo) Add(ctx context.Context, userID, itemID, name string, durability, maxDurability int) (string, error) {
	id := uuid.NewString()
	q := `
	INSERT INTO inventory_items (id, user_id, item_id, name, durability, max_durability)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (user_id, item_id) DO NOTHING
	`
	ct, err := r.pool.Exec(ctx, q, id, userID, itemID, name, durability, maxDurability)
	if err != nil {
		return "", fmt.Errorf("add inventory item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return "", ErrDuplicateItem
	}
	return id, nil
}

// Update applies durability and/or equipped changes to one item and returns
// the updated row.
func (r *InventoryRepo) Update(ctx context.Context, userID, itemID string, durability *int, equipped *bool) (*models.InventoryItem, error) {
	q := `
	UPDATE inventory_items
	SET durability = COALESCE($3, durability),
	    equipped = COALESCE($4, equipped),
	    updated_at = CURRENT_TIMESTAMP
	WHERE user_id = $1 AND item_id = $2
	RETURNING id, user_id, item_id, name, durability, max_durability, equipped, created_at, updated_at
	`
	var it models.InventoryItem
	err := r.pool.QueryRow(ctx, q, userID, itemID, durability, equipped).Scan(
		&it.ID, &it.UserID, &it.ItemID, &it.Name, &it.Durability,
		&it.MaxDurability, &it.Equipped, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("update inventory item: %w", err)
	}
	return &it, nil
}

// Remove deletes one item from a player's inventory.
func (r *InventoryRepo) Remove(ctx context.Context, userID, itemID string) error {
	q := `DELETE FROM inventory_items WHERE user_id = $1 AND item_id = $2`
	ct, err := r.pool.Exec(ctx, q, userID, itemID)
	if err != nil {
		return fmt.Errorf("remove inventory item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Ping verifies storage reachability for the health endpoint.
func (r *InventoryRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
