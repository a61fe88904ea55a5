// internal/lobby/service.go
package lobby

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/pad-games/backend/internal/models"
)

// maxCASAttempts bounds the read-compute-swap retry loop. Exhausting it maps
// to ErrContention so clients can tell a hot lobby apart from a bad request.
const maxCASAttempts = 5

// Service applies lobby operations through an optimistic compare-and-swap
// loop: read the current snapshot and revision, run the pure transition,
// attempt a revision-gated write, and retry from a fresh read on conflict.
// No lock is held across the store round trip; per-lobby apply order is
// decided entirely by which writer commits its revision first.
type Service struct {
	store  Store
	logger *logrus.Logger
}

// NewService wires a Service over the given store.
func NewService(store Store, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{store: store, logger: logger}
}

// CreateLobby validates the request, builds the initial snapshot, and stores
// it. Create has no CAS cycle: a fresh ID cannot conflict.
func (s *Service) CreateLobby(ctx context.Context, hostUserID, mapID, difficulty string, maxPlayers int) (*models.Lobby, error) {
	snap, err := Create(hostUserID, mapID, difficulty, maxPlayers)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// GetLobby returns the latest snapshot without revision negotiation.
func (s *Service) GetLobby(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	snap, _, err := s.store.Get(ctx, lobbyID)
	return snap, err
}

// Join adds a user to the lobby roster.
func (s *Service) Join(ctx context.Context, lobbyID, userID string) (*models.Lobby, error) {
	return s.apply(ctx, lobbyID, func(snap *models.Lobby) (*models.Lobby, error) {
		return Join(snap, userID)
	})
}

// Leave removes a user from the lobby roster.
func (s *Service) Leave(ctx context.Context, lobbyID, userID string) (*models.Lobby, error) {
	return s.apply(ctx, lobbyID, func(snap *models.Lobby) (*models.Lobby, error) {
		return Leave(snap, userID)
	})
}

// UpdatePlayer applies a partial player update (sanity and/or dead flag).
func (s *Service) UpdatePlayer(ctx context.Context, lobbyID, userID string, sanity *float64, dead *bool) (*models.Lobby, error) {
	return s.apply(ctx, lobbyID, func(snap *models.Lobby) (*models.Lobby, error) {
		return UpdatePlayer(snap, userID, sanity, dead)
	})
}

// BringItem records an inventory item carried by a player.
func (s *Service) BringItem(ctx context.Context, lobbyID, userID, inventoryID string) (*models.Lobby, error) {
	return s.apply(ctx, lobbyID, func(snap *models.Lobby) (*models.Lobby, error) {
		return BringItem(snap, userID, inventoryID)
	})
}

// apply runs one read-compute-swap cycle per attempt. Business rejections from
// the transition end the loop immediately; only a revision conflict triggers a
// retry, and each retry re-reads the committed state so the loser of a race
// gets a fresh, correct decision (e.g. Full after a concurrent join).
func (s *Service) apply(ctx context.Context, lobbyID string, op func(*models.Lobby) (*models.Lobby, error)) (*models.Lobby, error) {
	for attempt := 1; attempt <= maxCASAttempts; attempt++ {
		snap, rev, err := s.store.Get(ctx, lobbyID)
		if err != nil {
			return nil, err
		}

		next, err := op(snap)
		if err != nil {
			return nil, err
		}

		err = s.store.CompareAndSwap(ctx, lobbyID, rev, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrRevisionConflict) {
			return nil, err
		}
		s.logger.WithFields(logrus.Fields{
			"lobby_id": lobbyID,
			"attempt":  attempt,
		}).Debug("lobby revision conflict, retrying")
	}
	return nil, ErrContention
}
