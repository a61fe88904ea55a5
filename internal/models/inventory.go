// internal/models/inventory.go
package models

import "time"

// InventoryItem is one item owned by a player. ItemID identifies the item
// type; ID is the row identifier handed back to callers as inventory_id.
type InventoryItem struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ItemID        string    `json:"item_id"`
	Name          string    `json:"name"`
	Durability    int       `json:"durability"`
	MaxDurability int       `json:"max_durability"`
	Equipped      bool      `json:"equipped"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
