// internal/handlers/lobby.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/pad-games/backend/internal/lobby"
	"github.com/pad-games/backend/internal/models"
)

// LobbyServer exposes the lobby session API over a compare-and-swap service.
type LobbyServer struct {
	svc    *lobby.Service
	ping   func(context.Context) error
	logger *logrus.Logger
}

// NewLobbyServer wires the handler set over a store.
func NewLobbyServer(store lobby.Store, ping func(context.Context) error, logger *logrus.Logger) *LobbyServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &LobbyServer{
		svc:    lobby.NewService(store, logger),
		ping:   ping,
		logger: logger,
	}
}

// Routes registers all lobby endpoints on mux.
func (s *LobbyServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /lobbies", s.handleCreate)
	mux.HandleFunc("GET /lobbies/{id}", s.handleGet)
	mux.HandleFunc("POST /lobbies/{id}/join", s.handleJoin)
	mux.HandleFunc("POST /lobbies/{id}/leave", s.handleLeave)
	mux.HandleFunc("PATCH /lobbies/{id}/players/{user_id}", s.handleUpdatePlayer)
	mux.HandleFunc("POST /lobbies/{id}/items/bring", s.handleBringItem)
	mux.HandleFunc("GET /health", HealthHandler("Lobby Service Go", s.ping))
}

type createLobbyRequest struct {
	HostUserID string `json:"host_user_id"`
	MapID      string `json:"map_id"`
	Difficulty string `json:"difficulty"`
	MaxPlayers int    `json:"max_players"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

type updatePlayerRequest struct {
	Sanity *float64 `json:"sanity"`
	Dead   *bool    `json:"dead"`
}

type bringItemRequest struct {
	UserID      string `json:"user_id"`
	InventoryID string `json:"inventory_id"`
}

type lobbyPlayerView struct {
	UserID string  `json:"userId"`
	Sanity float64 `json:"sanity"`
	Dead   bool    `json:"dead"`
}

type lobbyView struct {
	ID         string            `json:"id"`
	Difficulty string            `json:"difficulty"`
	MapID      string            `json:"mapId"`
	Players    []lobbyPlayerView `json:"players"`
	Status     string            `json:"status"`
}

// projectLobby shapes a snapshot for the wire. Revision and internal fields
// never leave the service.
func projectLobby(l *models.Lobby) lobbyView {
	players := make([]lobbyPlayerView, len(l.Players))
	for i, p := range l.Players {
		players[i] = lobbyPlayerView{UserID: p.UserID, Sanity: p.Sanity, Dead: p.Dead}
	}
	return lobbyView{
		ID:         l.ID,
		Difficulty: l.Difficulty,
		MapID:      l.MapID,
		Players:    players,
		Status:     l.Status,
	}
}

func (s *LobbyServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createLobbyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.HostUserID == "" || req.MapID == "" || req.Difficulty == "" || req.MaxPlayers == 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	snap, err := s.svc.CreateLobby(r.Context(), req.HostUserID, req.MapID, req.Difficulty, req.MaxPlayers)
	if err != nil {
		s.writeLobbyError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectLobby(snap))
}

func (s *LobbyServer) handleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.GetLobby(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeLobbyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectLobby(snap))
}

func (s *LobbyServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	snap, err := s.svc.Join(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		s.writeLobbyError(w, err)
		return
	}

	players := make([]struct {
		UserID string `json:"userId"`
	}, len(snap.Players))
	for i, p := range snap.Players {
		players[i].UserID = p.UserID
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      snap.ID,
		"players": players,
	})
}

func (s *LobbyServer) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if _, err := s.svc.Leave(r.Context(), r.PathValue("id"), req.UserID); err != nil {
		s.writeLobbyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"left": true})
}

func (s *LobbyServer) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var req updatePlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	userID := r.PathValue("user_id")
	snap, err := s.svc.UpdatePlayer(r.Context(), r.PathValue("id"), userID, req.Sanity, req.Dead)
	if err != nil {
		s.writeLobbyError(w, err)
		return
	}

	p := snap.Players[snap.FindPlayer(userID)]
	writeJSON(w, http.StatusOK, lobbyPlayerView{UserID: p.UserID, Sanity: p.Sanity, Dead: p.Dead})
}

func (s *LobbyServer) handleBringItem(w http.ResponseWriter, r *http.Request) {
	var req bringItemRequest
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" || req.InventoryID == "" {
		writeError(w, http.StatusBadRequest, "user_id and inventory_id are required")
		return
	}

	if _, err := s.svc.BringItem(r.Context(), r.PathValue("id"), req.UserID, req.InventoryID); err != nil {
		s.writeLobbyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"added": true})
}

// writeLobbyError maps the rejection taxonomy onto HTTP. Conflict-class
// rejections share 400 with invalid arguments; contention gets its own 503 so
// clients know a retry is worthwhile; everything unrecognized is a storage
// failure.
func (s *LobbyServer) writeLobbyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lobby.ErrNotFound):
		writeError(w, http.StatusNotFound, "Lobby not found")
	case errors.Is(err, lobby.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "Player not found in lobby")
	case errors.Is(err, lobby.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, lobby.ErrAlreadyMember):
		writeError(w, http.StatusBadRequest, "User already in lobby")
	case errors.Is(err, lobby.ErrFull):
		writeError(w, http.StatusBadRequest, "Lobby is full")
	case errors.Is(err, lobby.ErrNotOpen):
		writeError(w, http.StatusBadRequest, "Lobby is not open for joining")
	case errors.Is(err, lobby.ErrNotMember):
		writeError(w, http.StatusBadRequest, "User not in lobby")
	case errors.Is(err, lobby.ErrContention):
		writeError(w, http.StatusServiceUnavailable, "Lobby is busy, try again")
	default:
		s.logger.WithError(err).Error("lobby storage failure")
		writeError(w, http.StatusInternalServerError, "storage failure")
	}
}
