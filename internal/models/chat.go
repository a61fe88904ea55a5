// internal/models/chat.go
package models

import "time"

// ChatMessage is one persisted lobby chat message.
type ChatMessage struct {
	ID         string    `json:"id,omitempty"`
	LobbyID    string    `json:"lobby_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChatStats summarizes chat activity in one lobby.
type ChatStats struct {
	TotalMessages int64 `json:"totalMessages"`
	UniqueSenders int64 `json:"uniqueSenders"`
}
