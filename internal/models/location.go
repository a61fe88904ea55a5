// internal/models/location.go
package models

import "time"

// LocationSample is one tracked position report for a user inside a lobby.
// Group lists the user IDs sharing the room at sample time, including the
// reporter when not alone.
type LocationSample struct {
	UserID     string    `json:"user_id"`
	LobbyID    string    `json:"lobby_id"`
	RoomID     string    `json:"room_id"`
	IsSpeaking bool      `json:"is_speaking"`
	Group      []string  `json:"group"`
	IsHiding   bool      `json:"is_hiding"`
	RecordedAt time.Time `json:"recorded_at"`
}

// LatestLocation is the derived latest-known position for a user.
type LatestLocation struct {
	RoomID     string    `json:"room_id"`
	IsAlone    bool      `json:"is_alone"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// IsAlone reports whether the sample's group is empty or contains only the
// reporting user.
func (s *LocationSample) IsAlone() bool {
	if len(s.Group) == 0 {
		return true
	}
	return len(s.Group) == 1 && s.Group[0] == s.UserID
}
