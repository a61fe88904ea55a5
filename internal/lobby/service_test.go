// internal/lobby/service_test.go
package lobby

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pad-games/backend/internal/models"
)

func newTestService(store Store) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewService(store, logger)
}

// conflictingStore wraps a Store and fails the first n CompareAndSwap calls
// with ErrRevisionConflict, simulating racing writers.
type conflictingStore struct {
	Store
	mu        sync.Mutex
	conflicts int
	casCalls  int
}

func (s *conflictingStore) CompareAndSwap(ctx context.Context, lobbyID string, expectedRevision int64, snap *models.Lobby) error {
	s.mu.Lock()
	s.casCalls++
	inject := s.conflicts > 0
	if inject {
		s.conflicts--
	}
	s.mu.Unlock()
	if inject {
		return ErrRevisionConflict
	}
	return s.Store.CompareAndSwap(ctx, lobbyID, expectedRevision, snap)
}

func TestServiceCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())

	l, err := svc.CreateLobby(ctx, "host-1", "map-1", "nightmare", 4)
	require.NoError(t, err)

	got, err := svc.GetLobby(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
	assert.Equal(t, "nightmare", got.Difficulty)

	_, err = svc.GetLobby(ctx, "no-such-lobby")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceRetriesOnRevisionConflict(t *testing.T) {
	ctx := context.Background()
	store := &conflictingStore{Store: NewMemoryStore(), conflicts: 2}
	svc := newTestService(store)

	l, err := svc.CreateLobby(ctx, "host-1", "map-1", "amateur", 4)
	require.NoError(t, err)

	got, err := svc.Join(ctx, l.ID, "user-2")
	require.NoError(t, err)
	assert.Len(t, got.Players, 2)
	assert.Equal(t, 3, store.casCalls)
}

func TestServiceContentionAfterExhaustedRetries(t *testing.T) {
	ctx := context.Background()
	store := &conflictingStore{Store: NewMemoryStore(), conflicts: maxCASAttempts}
	svc := newTestService(store)

	l, err := svc.CreateLobby(ctx, "host-1", "map-1", "amateur", 4)
	require.NoError(t, err)

	_, err = svc.Join(ctx, l.ID, "user-2")
	assert.ErrorIs(t, err, ErrContention)
	assert.Equal(t, maxCASAttempts, store.casCalls)
}

func TestServiceBusinessRejectionDoesNotRetry(t *testing.T) {
	ctx := context.Background()
	store := &conflictingStore{Store: NewMemoryStore()}
	svc := newTestService(store)

	l, err := svc.CreateLobby(ctx, "host-1", "map-1", "amateur", 4)
	require.NoError(t, err)

	_, err = svc.Join(ctx, l.ID, "host-1")
	assert.ErrorIs(t, err, ErrAlreadyMember)
	assert.Equal(t, 0, store.casCalls)
}

// TestServiceConcurrentJoinsOneSlot races many writers at a single remaining
// slot. Exactly one join may win; every loser gets a definitive rejection.
func TestServiceConcurrentJoinsOneSlot(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())

	l, err := svc.CreateLobby(ctx, "host-1", "map-1", "amateur", 2)
	require.NoError(t, err)

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Join(ctx, l.ID, "racer-"+string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	var wins, rejected, contended int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrFull) || errors.Is(err, ErrNotOpen):
			rejected++
		case errors.Is(err, ErrContention):
			contended++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one racer should take the last slot")
	assert.Equal(t, racers, wins+rejected+contended)

	got, err := svc.GetLobby(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, got.Players, 2)
	assert.Equal(t, models.LobbyStatusActive, got.Status)
}

func TestServiceConcurrentUpdatesAllApply(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMemoryStore())

	l, err := svc.CreateLobby(ctx, "host-1", "map-1", "amateur", 8)
	require.NoError(t, err)

	members := []string{"user-2", "user-3", "user-4"}
	for _, m := range members {
		_, err := svc.Join(ctx, l.ID, m)
		require.NoError(t, err)
	}

	// distinct players racing distinct items; no legitimate rejection exists,
	// so everything must land (possibly after retries)
	var wg sync.WaitGroup
	for _, m := range members {
		wg.Add(1)
		go func(m string) {
			defer wg.Done()
			_, err := svc.BringItem(ctx, l.ID, m, "inv-"+m)
			assert.NoError(t, err)
		}(m)
	}
	wg.Wait()

	got, err := svc.GetLobby(ctx, l.ID)
	require.NoError(t, err)
	for _, m := range members {
		idx := got.FindPlayer(m)
		require.GreaterOrEqual(t, idx, 0)
		assert.Equal(t, []string{"inv-" + m}, got.Players[idx].Items)
	}
}
