// internal/lobby/store.go
package lobby

import (
	"context"
	"sync"

	"github.com/pad-games/backend/internal/models"
)

// Store is durable keyed storage for lobby snapshots. A write is atomic with
// respect to other writes on the same key, and CompareAndSwap only commits
// when the stored revision still matches the caller's expectation.
type Store interface {
	// Get returns the current snapshot and its revision, or ErrNotFound.
	Get(ctx context.Context, lobbyID string) (*models.Lobby, int64, error)

	// Create stores a brand-new lobby, or fails with ErrAlreadyExists.
	Create(ctx context.Context, snap *models.Lobby) error

	// CompareAndSwap replaces the snapshot only if the stored revision equals
	// expectedRevision; otherwise it fails with ErrRevisionConflict (or
	// ErrNotFound when the lobby vanished).
	CompareAndSwap(ctx context.Context, lobbyID string, expectedRevision int64, snap *models.Lobby) error
}

// MemoryStore keeps snapshots in a mutex-guarded map. It backs tests and the
// standalone single-node mode; the Postgres store in internal/database is the
// durable implementation.
type MemoryStore struct {
	mu      sync.Mutex
	lobbies map[string]*models.Lobby
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lobbies: make(map[string]*models.Lobby)}
}

func (s *MemoryStore) Get(_ context.Context, lobbyID string) (*models.Lobby, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, 0, ErrNotFound
	}
	return l.Clone(), l.Revision, nil
}

func (s *MemoryStore) Create(_ context.Context, snap *models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lobbies[snap.ID]; ok {
		return ErrAlreadyExists
	}
	s.lobbies[snap.ID] = snap.Clone()
	return nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, lobbyID string, expectedRevision int64, snap *models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.lobbies[lobbyID]
	if !ok {
		return ErrNotFound
	}
	if cur.Revision != expectedRevision {
		return ErrRevisionConflict
	}
	s.lobbies[lobbyID] = snap.Clone()
	return nil
}
