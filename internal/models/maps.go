// internal/models/maps.go
package models

import "time"

// GameMap is a playable map: rooms, their connections, placed objects and
// hiding spots.
type GameMap struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Rooms       []Room           `json:"rooms"`
	Connections []RoomConnection `json:"connections"`
	Objects     []MapObject      `json:"objects"`
	HidingSpots []HidingSpot     `json:"hiding_spots"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Room is a named area within a map.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomConnection is a traversable edge between two rooms.
type RoomConnection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// MapObject is an interactable placed in a room.
type MapObject struct {
	ID     string            `json:"id"`
	RoomID string            `json:"room_id"`
	Type   string            `json:"type"`
	Meta   map[string]string `json:"meta"`
}

// HidingSpot is a location a player can hide in.
type HidingSpot struct {
	ID     string            `json:"id"`
	RoomID string            `json:"room_id"`
	Meta   map[string]string `json:"meta"`
}
