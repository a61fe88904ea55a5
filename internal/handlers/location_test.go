// internal/handlers/location_test.go
package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pad-games/backend/internal/cache"
	"github.com/pad-games/backend/internal/database"
	"github.com/pad-games/backend/internal/models"
)

// fakeLocationStore keeps samples in memory, newest last.
type fakeLocationStore struct {
	mu      sync.Mutex
	samples []models.LocationSample
}

func (f *fakeLocationStore) Track(_ context.Context, s *models.LocationSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, *s)
	return nil
}

func (f *fakeLocationStore) Latest(_ context.Context, lobbyID, userID string) (*models.LocationSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.samples) - 1; i >= 0; i-- {
		if f.samples[i].LobbyID == lobbyID && f.samples[i].UserID == userID {
			s := f.samples[i]
			return &s, nil
		}
	}
	return nil, database.ErrNoLocation
}

func (f *fakeLocationStore) History(_ context.Context, lobbyID, userID string, limit int) ([]models.LocationSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LocationSample
	for i := len(f.samples) - 1; i >= 0 && len(out) < limit; i-- {
		if f.samples[i].LobbyID == lobbyID && f.samples[i].UserID == userID {
			out = append(out, f.samples[i])
		}
	}
	return out, nil
}

func (f *fakeLocationStore) LobbyLatest(_ context.Context, lobbyID string) ([]models.LocationSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []models.LocationSample
	for i := len(f.samples) - 1; i >= 0; i-- {
		s := f.samples[i]
		if s.LobbyID == lobbyID && !seen[s.UserID] {
			seen[s.UserID] = true
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeLocationStore) Ping(context.Context) error { return nil }

// fakeLatestCache records hits so tests can prove the fast path is used.
type fakeLatestCache struct {
	mu      sync.Mutex
	entries map[string]*models.LocationSample
	gets    int
}

func newFakeLatestCache() *fakeLatestCache {
	return &fakeLatestCache{entries: make(map[string]*models.LocationSample)}
}

func (f *fakeLatestCache) SetLatest(_ context.Context, s *models.LocationSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.entries[s.LobbyID+"/"+s.UserID] = &cp
	return nil
}

func (f *fakeLatestCache) GetLatest(_ context.Context, lobbyID, userID string) (*models.LocationSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if s, ok := f.entries[lobbyID+"/"+userID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, cache.ErrCacheMiss
}

func newLocationTestServer(latest LatestCache) (*http.ServeMux, *fakeLocationStore) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	store := &fakeLocationStore{}
	mux := http.NewServeMux()
	NewLocationServer(store, latest, logger).Routes(mux)
	return mux, store
}

func trackBody(userID, roomID string, group []string) string {
	body := `{"userId":"` + userID + `","lobbyId":"lobby-1","roomId":"` + roomID + `","at":"2026-08-29T10:00:00Z"`
	if group != nil {
		body += `,"group":[`
		for i, g := range group {
			if i > 0 {
				body += ","
			}
			body += `"` + g + `"`
		}
		body += `]`
	}
	return body + `}`
}

func TestLocationTrackEndpoint(t *testing.T) {
	mux, store := newLocationTestServer(nil)

	w, out := doJSON(t, mux, "POST", "/location/track", trackBody("user-1", "room-living", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, out["accepted"])
	require.Len(t, store.samples, 1)
	assert.Equal(t, "room-living", store.samples[0].RoomID)
	assert.NotNil(t, store.samples[0].Group)
}

func TestLocationTrackValidation(t *testing.T) {
	mux, _ := newLocationTestServer(nil)

	w, _ := doJSON(t, mux, "POST", "/location/track", `{"userId":"user-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out := doJSON(t, mux, "POST", "/location/track",
		`{"userId":"u","lobbyId":"l","roomId":"r","at":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "at must be an RFC3339 timestamp", out["error"])
}

func TestLocationLatestEndpoint(t *testing.T) {
	mux, _ := newLocationTestServer(nil)

	doJSON(t, mux, "POST", "/location/track", trackBody("user-1", "room-kitchen", []string{"user-1"}))
	doJSON(t, mux, "POST", "/location/track", trackBody("user-1", "room-garage", []string{"user-1", "user-2"}))

	w, out := doJSON(t, mux, "GET", "/location/lobbies/lobby-1/users/user-1/latest", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "room-garage", out["room_id"])
	assert.Equal(t, false, out["is_alone"])
	assert.Equal(t, "2026-08-29T10:00:00Z", out["last_seen_at"])

	w, out = doJSON(t, mux, "GET", "/location/lobbies/lobby-1/users/stranger/latest", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No location data found for user in this lobby", out["error"])
}

func TestLocationIsAloneDerivation(t *testing.T) {
	mux, _ := newLocationTestServer(nil)

	// empty group means alone
	doJSON(t, mux, "POST", "/location/track", trackBody("user-1", "room-a", nil))
	_, out := doJSON(t, mux, "GET", "/location/lobbies/lobby-1/users/user-1/latest", "")
	assert.Equal(t, true, out["is_alone"])

	// a group of just yourself is still alone
	doJSON(t, mux, "POST", "/location/track", trackBody("user-1", "room-a", []string{"user-1"}))
	_, out = doJSON(t, mux, "GET", "/location/lobbies/lobby-1/users/user-1/latest", "")
	assert.Equal(t, true, out["is_alone"])

	// anyone else in the group means company
	doJSON(t, mux, "POST", "/location/track", trackBody("user-1", "room-a", []string{"user-2"}))
	_, out = doJSON(t, mux, "GET", "/location/lobbies/lobby-1/users/user-1/latest", "")
	assert.Equal(t, false, out["is_alone"])
}

func TestLocationLatestUsesCache(t *testing.T) {
	latest := newFakeLatestCache()
	mux, store := newLocationTestServer(latest)

	doJSON(t, mux, "POST", "/location/track", trackBody("user-1", "room-attic", nil))

	// wipe the backing store to prove reads come from the cache
	store.mu.Lock()
	store.samples = nil
	store.mu.Unlock()

	w, out := doJSON(t, mux, "GET", "/location/lobbies/lobby-1/users/user-1/latest", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "room-attic", out["room_id"])
	assert.Equal(t, 1, latest.gets)
}

func TestLocationHistoryEndpoint(t *testing.T) {
	mux, _ := newLocationTestServer(nil)

	for _, room := range []string{"room-a", "room-b", "room-c"} {
		doJSON(t, mux, "POST", "/location/track", trackBody("user-1", room, nil))
	}

	w, out := doJSON(t, mux, "GET", "/location/lobbies/lobby-1/users/user-1/history?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", out["user_id"])
	history := out["history"].([]any)
	assert.Len(t, history, 2)

	// no samples yields an empty list, not null
	_, out = doJSON(t, mux, "GET", "/location/lobbies/lobby-1/users/stranger/history", "")
	require.NotNil(t, out["history"])
	assert.Empty(t, out["history"].([]any))
}

func TestLocationLobbyLocationsEndpoint(t *testing.T) {
	mux, _ := newLocationTestServer(nil)

	doJSON(t, mux, "POST", "/location/track", trackBody("user-1", "room-a", nil))
	doJSON(t, mux, "POST", "/location/track", trackBody("user-2", "room-b", []string{"user-2", "user-1"}))

	w, out := doJSON(t, mux, "GET", "/location/lobbies/lobby-1/locations", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lobby-1", out["lobby_id"])
	locations := out["locations"].([]any)
	require.Len(t, locations, 2)
	for _, raw := range locations {
		loc := raw.(map[string]any)
		assert.Contains(t, loc, "room_id")
		assert.Contains(t, loc, "is_alone")
		assert.Contains(t, loc, "recorded_at")
	}
}

func TestLocationSampleIsAlone(t *testing.T) {
	now := time.Now()
	s := models.LocationSample{UserID: "u", RecordedAt: now}
	assert.True(t, s.IsAlone())
	s.Group = []string{"u"}
	assert.True(t, s.IsAlone())
	s.Group = []string{"u", "v"}
	assert.False(t, s.IsAlone())
}
