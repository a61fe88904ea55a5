// internal/lobby/state.go
package lobby

import (
	"time"

	"github.com/google/uuid"

	"github.com/pad-games/backend/internal/models"
)

// State transitions for a lobby snapshot. Every function here is pure: it
// never mutates its input, and a successful application returns a fresh
// snapshot with Revision incremented by exactly one. All invariants (no
// duplicate users, roster within max_players, closed iff empty, active iff
// full, host always a member) hold on every snapshot these functions return.

// Create builds a brand-new lobby with the host as its sole player. The lobby
// starts open, or active when max_players is 1 (the host already fills it).
func Create(hostUserID, mapID, difficulty string, maxPlayers int) (*models.Lobby, error) {
	if hostUserID == "" || mapID == "" || difficulty == "" || maxPlayers < 1 {
		return nil, ErrInvalidArgument
	}

	l := &models.Lobby{
		ID:         uuid.NewString(),
		HostUserID: hostUserID,
		MapID:      mapID,
		Difficulty: difficulty,
		MaxPlayers: maxPlayers,
		Players:    []models.LobbyPlayer{models.NewLobbyPlayer(hostUserID)},
		Status:     models.LobbyStatusOpen,
		CreatedAt:  time.Now().UTC(),
		Revision:   1,
	}
	if len(l.Players) == l.MaxPlayers {
		l.Status = models.LobbyStatusActive
	}
	return l, nil
}

// Join appends userID to the roster with default player state. Filling the
// last slot flips the lobby to active.
func Join(snap *models.Lobby, userID string) (*models.Lobby, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	if snap.FindPlayer(userID) >= 0 {
		return nil, ErrAlreadyMember
	}
	if len(snap.Players) >= snap.MaxPlayers {
		return nil, ErrFull
	}
	if snap.Status != models.LobbyStatusOpen {
		return nil, ErrNotOpen
	}

	next := snap.Clone()
	next.Players = append(next.Players, models.NewLobbyPlayer(userID))
	if len(next.Players) >= next.MaxPlayers {
		next.Status = models.LobbyStatusActive
	}
	next.Revision++
	return next, nil
}

// Leave removes userID from the roster and recomputes status: an empty lobby
// closes permanently, and an active lobby dropping below capacity reopens.
// When the host departs, the longest-tenured remaining player (the new head
// of the join-ordered roster) becomes host, independent of request order.
func Leave(snap *models.Lobby, userID string) (*models.Lobby, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	if snap.FindPlayer(userID) < 0 {
		return nil, ErrNotMember
	}

	next := snap.Clone()
	remaining := next.Players[:0]
	for _, p := range next.Players {
		if p.UserID != userID {
			remaining = append(remaining, p)
		}
	}
	next.Players = remaining

	switch {
	case len(next.Players) == 0:
		next.Status = models.LobbyStatusClosed
	case next.Status == models.LobbyStatusActive && len(next.Players) < next.MaxPlayers:
		next.Status = models.LobbyStatusOpen
	}

	if userID == next.HostUserID && len(next.Players) > 0 {
		next.HostUserID = next.Players[0].UserID
	}

	next.Revision++
	return next, nil
}

// UpdatePlayer applies the fields present in the request to one roster entry.
// Sanity is clamped to [0, 100] rather than rejected; out-of-range input is a
// valid request that stores the nearest bound.
func UpdatePlayer(snap *models.Lobby, userID string, sanity *float64, dead *bool) (*models.Lobby, error) {
	idx := snap.FindPlayer(userID)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}

	next := snap.Clone()
	p := &next.Players[idx]
	if sanity != nil {
		p.Sanity = clampSanity(*sanity)
	}
	if dead != nil {
		p.Dead = *dead
	}
	next.Revision++
	return next, nil
}

// BringItem records that a player carries an inventory item. Adding an item
// the player already carries is a no-op, not an error; the item list keeps
// set semantics either way.
func BringItem(snap *models.Lobby, userID, inventoryID string) (*models.Lobby, error) {
	if inventoryID == "" {
		return nil, ErrInvalidArgument
	}
	idx := snap.FindPlayer(userID)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}

	next := snap.Clone()
	p := &next.Players[idx]
	for _, it := range p.Items {
		if it == inventoryID {
			next.Revision++
			return next, nil
		}
	}
	p.Items = append(p.Items, inventoryID)
	next.Revision++
	return next, nil
}

func clampSanity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
