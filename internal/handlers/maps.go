// internal/handlers/maps.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/pad-games/backend/internal/database"
	"github.com/pad-games/backend/internal/models"
)

// MapStore is the catalog storage the map handlers need.
type MapStore interface {
	List(ctx context.Context, page, pageSize int) ([]models.GameMap, int, error)
	Get(ctx context.Context, id string) (*models.GameMap, error)
	Create(ctx context.Context, name string, roomNames []string) (string, error)
	Rename(ctx context.Context, id, name string) (*models.GameMap, error)
	Ping(ctx context.Context) error
}

// MapServer exposes the map catalog.
type MapServer struct {
	store  MapStore
	logger *logrus.Logger
}

// NewMapServer wires the handler set over a store.
func NewMapServer(store MapStore, logger *logrus.Logger) *MapServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &MapServer{store: store, logger: logger}
}

// Routes registers all map endpoints on mux.
func (s *MapServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /maps", s.handleList)
	mux.HandleFunc("GET /maps/{id}", s.handleGet)
	mux.HandleFunc("POST /maps", s.handleCreate)
	mux.HandleFunc("PATCH /maps/{id}", s.handleUpdate)
	mux.HandleFunc("GET /health", HealthHandler("Map Service Go", s.store.Ping))
}

func (s *MapServer) handleList(w http.ResponseWriter, r *http.Request) {
	page := 1
	pageSize := 20
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			pageSize = v
		}
	}

	maps, total, err := s.store.List(r.Context(), page, pageSize)
	if err != nil {
		s.writeMapError(w, err)
		return
	}

	summaries := make([]map[string]string, len(maps))
	for i, m := range maps {
		summaries[i] = map[string]string{"id": m.ID, "name": m.Name}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"maps":     summaries,
	})
}

func (s *MapServer) handleGet(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeMapError(w, err)
		return
	}

	rooms := make([]map[string]string, len(m.Rooms))
	for i, room := range m.Rooms {
		rooms[i] = map[string]string{"id": room.ID, "name": room.Name}
	}
	connections := make([]map[string]string, len(m.Connections))
	for i, c := range m.Connections {
		connections[i] = map[string]string{"from": c.From, "to": c.To}
	}
	objects := make([]map[string]any, len(m.Objects))
	for i, o := range m.Objects {
		objects[i] = map[string]any{"id": o.ID, "roomId": o.RoomID, "type": o.Type, "meta": o.Meta}
	}
	hidingSpots := make([]map[string]any, len(m.HidingSpots))
	for i, h := range m.HidingSpots {
		hidingSpots[i] = map[string]any{"id": h.ID, "roomId": h.RoomID, "meta": h.Meta}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          m.ID,
		"name":        m.Name,
		"rooms":       rooms,
		"connections": connections,
		"objects":     objects,
		"hidingSpots": hidingSpots,
	})
}

type createMapRequest struct {
	Name  string `json:"name"`
	Rooms []struct {
		Name string `json:"name"`
	} `json:"rooms"`
}

func (s *MapServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createMapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Map name is required")
		return
	}

	roomNames := make([]string, len(req.Rooms))
	for i, room := range req.Rooms {
		roomNames[i] = room.Name
	}

	id, err := s.store.Create(r.Context(), req.Name, roomNames)
	if err != nil {
		s.writeMapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"mapId": id})
}

type updateMapRequest struct {
	Name string `json:"name"`
}

func (s *MapServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateMapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	m, err := s.store.Rename(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		s.writeMapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": m.ID, "name": m.Name})
}

func (s *MapServer) writeMapError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrMapNotFound) {
		writeError(w, http.StatusNotFound, "Map not found")
		return
	}
	s.logger.WithError(err).Error("map storage failure")
	writeError(w, http.StatusInternalServerError, err.Error())
}
