// internal/handlers/inventory.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/pad-games/backend/internal/database"
	"github.com/pad-games/backend/internal/models"
)

// InventoryStore is the per-player item storage the inventory handlers need.
type InventoryStore interface {
	ListForUser(ctx context.Context, userID string) ([]models.InventoryItem, error)
	Add(ctx context.Context, userID, itemID, name string, durability, maxDurability int) (string, error)
	Update(ctx context.Context, userID, itemID string, durability *int, equipped *bool) (*models.InventoryItem, error)
	Remove(ctx context.Context, userID, itemID string) error
	Ping(ctx context.Context) error
}

// InventoryServer exposes per-player item storage.
type InventoryServer struct {
	store  InventoryStore
	logger *logrus.Logger
}

// NewInventoryServer wires the handler set over a store.
func NewInventoryServer(store InventoryStore, logger *logrus.Logger) *InventoryServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &InventoryServer{store: store, logger: logger}
}

// Routes registers all inventory endpoints on mux.
func (s *InventoryServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /inventory/{user_id}", s.handleList)
	mux.HandleFunc("POST /inventory/{user_id}/add", s.handleAdd)
	mux.HandleFunc("PATCH /inventory/{user_id}/update", s.handleUpdate)
	mux.HandleFunc("DELETE /inventory/{user_id}/remove/{item_id}", s.handleRemove)
	mux.HandleFunc("GET /health", HealthHandler("Inventory Service Go", s.store.Ping))
}

type inventoryItemView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Durability    int    `json:"durability"`
	MaxDurability int    `json:"maxDurability"`
	Equipped      bool   `json:"equipped"`
}

func (s *InventoryServer) handleList(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	items, err := s.store.ListForUser(r.Context(), userID)
	if err != nil {
		s.writeInventoryError(w, err)
		return
	}

	views := make([]inventoryItemView, len(items))
	for i, it := range items {
		views[i] = inventoryItemView{
			ID:            it.ItemID,
			Name:          it.Name,
			Durability:    it.Durability,
			MaxDurability: it.MaxDurability,
			Equipped:      it.Equipped,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"items":   views,
	})
}

type addItemRequest struct {
	ItemID        string `json:"itemId"`
	Name          string `json:"name"`
	Durability    *int   `json:"durability"`
	MaxDurability *int   `json:"maxDurability"`
}

func (s *InventoryServer) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.ItemID == "" || req.Name == "" || req.Durability == nil {
		writeError(w, http.StatusBadRequest, "Missing required field: itemId, name and durability are required")
		return
	}

	maxDurability := *req.Durability
	if req.MaxDurability != nil {
		maxDurability = *req.MaxDurability
	}

	inventoryID, err := s.store.Add(r.Context(), r.PathValue("user_id"), req.ItemID, req.Name, *req.Durability, maxDurability)
	if err != nil {
		s.writeInventoryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message":      "Item added successfully",
		"inventory_id": inventoryID,
	})
}

type updateItemRequest struct {
	ItemID     string `json:"itemId"`
	Durability *int   `json:"durability"`
	Equipped   *bool  `json:"equipped"`
}

func (s *InventoryServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: itemId")
		return
	}
	if req.Durability == nil && req.Equipped == nil {
		writeError(w, http.StatusBadRequest, "No fields to update. Provide durability or equipped")
		return
	}

	it, err := s.store.Update(r.Context(), r.PathValue("user_id"), req.ItemID, req.Durability, req.Equipped)
	if err != nil {
		s.writeInventoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item_id":    it.ItemID,
		"durability": it.Durability,
		"equipped":   it.Equipped,
		"status":     "updated",
	})
}

func (s *InventoryServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("item_id")
	if err := s.store.Remove(r.Context(), r.PathValue("user_id"), itemID); err != nil {
		s.writeInventoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Item removed successfully",
		"removed_item_id": itemID,
	})
}

func (s *InventoryServer) writeInventoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "Item not found in inventory")
	case errors.Is(err, database.ErrDuplicateItem):
		writeError(w, http.StatusBadRequest, "Item already exists in inventory")
	default:
		s.logger.WithError(err).Error("inventory storage failure")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
