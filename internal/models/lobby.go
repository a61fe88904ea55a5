// internal/models/lobby.go
package models

import "time"

// Lobby status values. A lobby is closed exactly when its player list is empty.
const (
	LobbyStatusOpen   = "open"
	LobbyStatusActive = "active"
	LobbyStatusClosed = "closed"
)

// Lobby is a full snapshot of one game session: roster, map, difficulty, status.
// Revision counts committed mutations and is never exposed on the wire; the
// store uses it to detect concurrent writers.
type Lobby struct {
	ID         string        `json:"id"`
	HostUserID string        `json:"host_user_id"`
	MapID      string        `json:"map_id"`
	Difficulty string        `json:"difficulty"`
	MaxPlayers int           `json:"max_players"`
	Players    []LobbyPlayer `json:"players"`
	Status     string        `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	Revision   int64         `json:"-"`
}

// LobbyPlayer is one roster entry. Slice order is join order; UserID is unique
// within a lobby.
type LobbyPlayer struct {
	UserID string   `json:"user_id"`
	Sanity float64  `json:"sanity"`
	Dead   bool     `json:"dead"`
	Items  []string `json:"items"`
}

// NewLobbyPlayer returns a roster entry with default state.
func NewLobbyPlayer(userID string) LobbyPlayer {
	return LobbyPlayer{
		UserID: userID,
		Sanity: 100.0,
		Items:  []string{},
	}
}

// Clone returns a deep copy of the snapshot, so state transitions never alias
// a snapshot held by the store or another request.
func (l *Lobby) Clone() *Lobby {
	c := *l
	c.Players = make([]LobbyPlayer, len(l.Players))
	for i, p := range l.Players {
		c.Players[i] = p
		c.Players[i].Items = append([]string(nil), p.Items...)
	}
	return &c
}

// FindPlayer returns the index of userID in the roster, or -1.
func (l *Lobby) FindPlayer(userID string) int {
	for i, p := range l.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}
