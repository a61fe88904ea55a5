// internal/handlers/ghost.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/pad-games/backend/internal/database"
	"github.com/pad-games/backend/internal/models"
)

// GhostStore is the catalog storage the ghost handlers need.
type GhostStore interface {
	List(ctx context.Context) ([]models.Ghost, error)
	Get(ctx context.Context, id string) (*models.Ghost, error)
	Create(ctx context.Context, g *models.Ghost) (string, error)
	Update(ctx context.Context, id string, name *string, typeA, typeB, typeC []string) (*models.Ghost, error)
	Ping(ctx context.Context) error
}

// GhostServer exposes the ghost-type catalog.
type GhostServer struct {
	store  GhostStore
	logger *logrus.Logger
}

// NewGhostServer wires the handler set over a store.
func NewGhostServer(store GhostStore, logger *logrus.Logger) *GhostServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &GhostServer{store: store, logger: logger}
}

// Routes registers all ghost endpoints on mux.
func (s *GhostServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ghosts", s.handleList)
	mux.HandleFunc("GET /ghosts/{id}", s.handleGet)
	mux.HandleFunc("POST /ghosts", s.handleCreate)
	mux.HandleFunc("PATCH /ghosts/{id}", s.handleUpdate)
	mux.HandleFunc("GET /health", HealthHandler("Ghost Service Go", s.store.Ping))
}

type ghostView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	TypeASymptoms []string `json:"typeASymptoms"`
}

func projectGhost(g *models.Ghost) ghostView {
	symptoms := g.TypeASymptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	return ghostView{ID: g.ID, Name: g.Name, TypeASymptoms: symptoms}
}

func (s *GhostServer) handleList(w http.ResponseWriter, r *http.Request) {
	ghosts, err := s.store.List(r.Context())
	if err != nil {
		s.writeGhostError(w, err)
		return
	}

	views := make([]ghostView, len(ghosts))
	for i := range ghosts {
		views[i] = projectGhost(&ghosts[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"ghosts": views})
}

func (s *GhostServer) handleGet(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeGhostError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectGhost(g))
}

type createGhostRequest struct {
	Name          string   `json:"name"`
	TypeASymptoms []string `json:"typeASymptoms"`
	TypeBSymptoms []string `json:"typeBSymptoms"`
	TypeCSymptoms []string `json:"typeCSymptoms"`
}

func (s *GhostServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGhostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Ghost name is required")
		return
	}

	id, err := s.store.Create(r.Context(), &models.Ghost{
		Name:          req.Name,
		TypeASymptoms: req.TypeASymptoms,
		TypeBSymptoms: req.TypeBSymptoms,
		TypeCSymptoms: req.TypeCSymptoms,
	})
	if err != nil {
		s.writeGhostError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type updateGhostRequest struct {
	Name          *string  `json:"name"`
	TypeASymptoms []string `json:"typeASymptoms"`
	TypeBSymptoms []string `json:"typeBSymptoms"`
	TypeCSymptoms []string `json:"typeCSymptoms"`
}

func (s *GhostServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateGhostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	g, err := s.store.Update(r.Context(), r.PathValue("id"), req.Name,
		req.TypeASymptoms, req.TypeBSymptoms, req.TypeCSymptoms)
	if err != nil {
		s.writeGhostError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": g.ID, "name": g.Name})
}

func (s *GhostServer) writeGhostError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrGhostNotFound) {
		writeError(w, http.StatusNotFound, "Ghost not found")
		return
	}
	s.logger.WithError(err).Error("ghost storage failure")
	writeError(w, http.StatusInternalServerError, err.Error())
}
