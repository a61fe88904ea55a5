// internal/handlers/location.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pad-games/backend/internal/cache"
	"github.com/pad-games/backend/internal/database"
	"github.com/pad-games/backend/internal/models"
)

// LocationStore is the history storage the location handlers need.
type LocationStore interface {
	Track(ctx context.Context, s *models.LocationSample) error
	Latest(ctx context.Context, lobbyID, userID string) (*models.LocationSample, error)
	History(ctx context.Context, lobbyID, userID string, limit int) ([]models.LocationSample, error)
	LobbyLatest(ctx context.Context, lobbyID string) ([]models.LocationSample, error)
	Ping(ctx context.Context) error
}

// LatestCache is the optional fast path for latest-sample lookups; a nil
// cache simply means every read hits the history table.
type LatestCache interface {
	SetLatest(ctx context.Context, s *models.LocationSample) error
	GetLatest(ctx context.Context, lobbyID, userID string) (*models.LocationSample, error)
}

// LocationServer exposes position tracking and is-alone derivation.
type LocationServer struct {
	store  LocationStore
	cache  LatestCache
	logger *logrus.Logger
}

// NewLocationServer wires the handler set over a store and optional cache.
func NewLocationServer(store LocationStore, latest LatestCache, logger *logrus.Logger) *LocationServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &LocationServer{store: store, cache: latest, logger: logger}
}

// Routes registers all location endpoints on mux.
func (s *LocationServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /location/track", s.handleTrack)
	mux.HandleFunc("GET /location/lobbies/{lobby_id}/users/{user_id}/latest", s.handleLatest)
	mux.HandleFunc("GET /location/lobbies/{lobby_id}/users/{user_id}/history", s.handleHistory)
	mux.HandleFunc("GET /location/lobbies/{lobby_id}/locations", s.handleLobbyLocations)
	mux.HandleFunc("GET /health", HealthHandler("Location Service Go", s.store.Ping))
}

type trackRequest struct {
	UserID     string   `json:"userId"`
	LobbyID    string   `json:"lobbyId"`
	RoomID     string   `json:"roomId"`
	IsSpeaking bool     `json:"isSpeaking"`
	Group      []string `json:"group"`
	IsHiding   bool     `json:"isHiding"`
	At         string   `json:"at"`
}

func (s *LocationServer) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.UserID == "" || req.LobbyID == "" || req.RoomID == "" || req.At == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: userId, lobbyId, roomId and at are required")
		return
	}

	at, err := time.Parse(time.RFC3339, req.At)
	if err != nil {
		writeError(w, http.StatusBadRequest, "at must be an RFC3339 timestamp")
		return
	}

	sample := &models.LocationSample{
		UserID:     req.UserID,
		LobbyID:    req.LobbyID,
		RoomID:     req.RoomID,
		IsSpeaking: req.IsSpeaking,
		Group:      req.Group,
		IsHiding:   req.IsHiding,
		RecordedAt: at,
	}
	if sample.Group == nil {
		sample.Group = []string{}
	}

	if err := s.store.Track(r.Context(), sample); err != nil {
		s.logger.WithError(err).Error("location storage failure")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Cache refresh is best effort; the history table stays authoritative.
	if s.cache != nil {
		if err := s.cache.SetLatest(r.Context(), sample); err != nil {
			s.logger.WithError(err).Warn("failed to cache latest location")
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

func (s *LocationServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	lobbyID := r.PathValue("lobby_id")
	userID := r.PathValue("user_id")

	sample, err := s.lookupLatest(r.Context(), lobbyID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNoLocation) {
			writeError(w, http.StatusNotFound, "No location data found for user in this lobby")
			return
		}
		s.logger.WithError(err).Error("location storage failure")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":      sample.RoomID,
		"is_alone":     sample.IsAlone(),
		"last_seen_at": sample.RecordedAt.UTC().Format(time.RFC3339),
	})
}

func (s *LocationServer) lookupLatest(ctx context.Context, lobbyID, userID string) (*models.LocationSample, error) {
	if s.cache != nil {
		if sample, err := s.cache.GetLatest(ctx, lobbyID, userID); err == nil {
			return sample, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).Warn("latest location cache read failed")
		}
	}
	return s.store.Latest(ctx, lobbyID, userID)
}

func (s *LocationServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	lobbyID := r.PathValue("lobby_id")
	userID := r.PathValue("user_id")

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	history, err := s.store.History(r.Context(), lobbyID, userID, limit)
	if err != nil {
		s.logger.WithError(err).Error("location storage failure")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if history == nil {
		history = []models.LocationSample{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"lobby_id": lobbyID,
		"history":  history,
	})
}

func (s *LocationServer) handleLobbyLocations(w http.ResponseWriter, r *http.Request) {
	lobbyID := r.PathValue("lobby_id")

	samples, err := s.store.LobbyLatest(r.Context(), lobbyID)
	if err != nil {
		s.logger.WithError(err).Error("location storage failure")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	locations := make([]map[string]any, len(samples))
	for i, sample := range samples {
		locations[i] = map[string]any{
			"user_id":     sample.UserID,
			"room_id":     sample.RoomID,
			"is_speaking": sample.IsSpeaking,
			"is_hiding":   sample.IsHiding,
			"is_alone":    sample.IsAlone(),
			"recorded_at": sample.RecordedAt.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lobby_id":  lobbyID,
		"locations": locations,
	})
}
