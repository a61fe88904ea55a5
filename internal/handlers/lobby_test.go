// internal/handlers/lobby_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pad-games/backend/internal/lobby"
	"github.com/pad-games/backend/internal/models"
)

func newLobbyTestServer() *http.ServeMux {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	store := lobby.NewMemoryStore()
	ping := func(context.Context) error { return nil }

	mux := http.NewServeMux()
	NewLobbyServer(store, ping, logger).Routes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Buffer
	if body == "" {
		rd = bytes.NewBuffer(nil)
	} else {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	}
	return w, out
}

func createTestLobby(t *testing.T, mux *http.ServeMux, maxPlayers string) string {
	t.Helper()
	w, out := doJSON(t, mux, "POST", "/lobbies",
		`{"host_user_id":"host-1","map_id":"map-1","difficulty":"nightmare","max_players":`+maxPlayers+`}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id, _ := out["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestLobbyCreateEndpoint(t *testing.T) {
	mux := newLobbyTestServer()

	w, out := doJSON(t, mux, "POST", "/lobbies",
		`{"host_user_id":"host-1","map_id":"map-1","difficulty":"nightmare","max_players":4}`)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "nightmare", out["difficulty"])
	assert.Equal(t, "map-1", out["mapId"])
	assert.Equal(t, models.LobbyStatusOpen, out["status"])
	assert.NotContains(t, out, "revision")

	players, ok := out["players"].([]any)
	require.True(t, ok)
	require.Len(t, players, 1)
	host := players[0].(map[string]any)
	assert.Equal(t, "host-1", host["userId"])
	assert.Equal(t, 100.0, host["sanity"])
	assert.Equal(t, false, host["dead"])
}

func TestLobbyCreateMissingFields(t *testing.T) {
	mux := newLobbyTestServer()

	w, out := doJSON(t, mux, "POST", "/lobbies", `{"host_user_id":"host-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", out["error"])
}

func TestLobbyGetEndpoint(t *testing.T) {
	mux := newLobbyTestServer()
	id := createTestLobby(t, mux, "4")

	w, out := doJSON(t, mux, "GET", "/lobbies/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, out["id"])

	w, out = doJSON(t, mux, "GET", "/lobbies/no-such-lobby", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Lobby not found", out["error"])
}

func TestLobbyJoinEndpoint(t *testing.T) {
	mux := newLobbyTestServer()
	id := createTestLobby(t, mux, "4")

	w, out := doJSON(t, mux, "POST", "/lobbies/"+id+"/join", `{"user_id":"user-2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, out["id"])

	players := out["players"].([]any)
	require.Len(t, players, 2)
	assert.Equal(t, "host-1", players[0].(map[string]any)["userId"])
	assert.Equal(t, "user-2", players[1].(map[string]any)["userId"])
}

func TestLobbyJoinRejections(t *testing.T) {
	mux := newLobbyTestServer()
	id := createTestLobby(t, mux, "2")

	w, out := doJSON(t, mux, "POST", "/lobbies/"+id+"/join", `{"user_id":"host-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already in lobby", out["error"])

	w, _ = doJSON(t, mux, "POST", "/lobbies/"+id+"/join", `{"user_id":"user-2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, out = doJSON(t, mux, "POST", "/lobbies/"+id+"/join", `{"user_id":"user-3"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Lobby is full", out["error"])

	w, out = doJSON(t, mux, "POST", "/lobbies/"+id+"/join", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "user_id is required", out["error"])

	w, out = doJSON(t, mux, "POST", "/lobbies/no-such-lobby/join", `{"user_id":"user-9"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Lobby not found", out["error"])
}

func TestLobbyLeaveEndpoint(t *testing.T) {
	mux := newLobbyTestServer()
	id := createTestLobby(t, mux, "4")
	doJSON(t, mux, "POST", "/lobbies/"+id+"/join", `{"user_id":"user-2"}`)

	w, out := doJSON(t, mux, "POST", "/lobbies/"+id+"/leave", `{"user_id":"host-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["left"])

	// host handed off to the longest-tenured member
	_, got := doJSON(t, mux, "GET", "/lobbies/"+id, "")
	players := got["players"].([]any)
	require.Len(t, players, 1)
	assert.Equal(t, "user-2", players[0].(map[string]any)["userId"])

	w, out = doJSON(t, mux, "POST", "/lobbies/"+id+"/leave", `{"user_id":"stranger"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User not in lobby", out["error"])
}

func TestLobbyClosesWhenLastPlayerLeaves(t *testing.T) {
	mux := newLobbyTestServer()
	id := createTestLobby(t, mux, "4")

	w, _ := doJSON(t, mux, "POST", "/lobbies/"+id+"/leave", `{"user_id":"host-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	_, got := doJSON(t, mux, "GET", "/lobbies/"+id, "")
	assert.Equal(t, models.LobbyStatusClosed, got["status"])

	w, out := doJSON(t, mux, "POST", "/lobbies/"+id+"/join", `{"user_id":"user-2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Lobby is not open for joining", out["error"])
}

func TestLobbyUpdatePlayerEndpoint(t *testing.T) {
	mux := newLobbyTestServer()
	id := createTestLobby(t, mux, "4")

	w, out := doJSON(t, mux, "PATCH", "/lobbies/"+id+"/players/host-1", `{"sanity":150,"dead":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "host-1", out["userId"])
	assert.Equal(t, 100.0, out["sanity"])
	assert.Equal(t, true, out["dead"])

	w, out = doJSON(t, mux, "PATCH", "/lobbies/"+id+"/players/host-1", `{"sanity":-10}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, out["sanity"])
	assert.Equal(t, true, out["dead"], "omitted field must stay untouched")

	w, out = doJSON(t, mux, "PATCH", "/lobbies/"+id+"/players/stranger", `{"sanity":50}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Player not found in lobby", out["error"])
}

func TestLobbyBringItemEndpoint(t *testing.T) {
	mux := newLobbyTestServer()
	id := createTestLobby(t, mux, "4")

	w, out := doJSON(t, mux, "POST", "/lobbies/"+id+"/items/bring", `{"user_id":"host-1","inventory_id":"inv-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["added"])

	// bringing the same item twice succeeds quietly
	w, out = doJSON(t, mux, "POST", "/lobbies/"+id+"/items/bring", `{"user_id":"host-1","inventory_id":"inv-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["added"])

	w, out = doJSON(t, mux, "POST", "/lobbies/"+id+"/items/bring", `{"user_id":"host-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "user_id and inventory_id are required", out["error"])

	w, out = doJSON(t, mux, "POST", "/lobbies/"+id+"/items/bring", `{"user_id":"stranger","inventory_id":"inv-2"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Player not found in lobby", out["error"])
}

func TestLobbyHealthEndpoint(t *testing.T) {
	mux := newLobbyTestServer()

	w, out := doJSON(t, mux, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", out["status"])
	assert.Equal(t, "Lobby Service Go", out["service"])
	assert.NotEmpty(t, out["timestamp"])
}

// TestLobbyConcurrentJoinRace hammers the last open slot through the full
// HTTP stack. The roster must never exceed max_players regardless of request
// interleaving.
func TestLobbyConcurrentJoinRace(t *testing.T) {
	mux := newLobbyTestServer()
	id := createTestLobby(t, mux, "2")

	const racers = 6
	codes := make([]int, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := `{"user_id":"racer-` + strings.Repeat("x", i+1) + `"}`
			req := httptest.NewRequest("POST", "/lobbies/"+id+"/join", bytes.NewBufferString(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	var wins int
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			wins++
		case http.StatusBadRequest, http.StatusServiceUnavailable:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, wins)

	_, got := doJSON(t, mux, "GET", "/lobbies/"+id, "")
	assert.Len(t, got["players"].([]any), 2)
	assert.Equal(t, models.LobbyStatusActive, got["status"])
}
