// internal/chat/hub.go
package chat

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event is a typed WebSocket payload. Every frame the chat service sends is
// one of these; data is always one of the *Data structs below.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// NewMessageData announces a chat message to a room.
type NewMessageData struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// UserJoinedData announces a user entering a room.
type UserJoinedData struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Timestamp string `json:"timestamp"`
}

// UserLeftData announces a user leaving a room.
type UserLeftData struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Timestamp string `json:"timestamp"`
}

// ChatClearedData announces that a lobby's history was wiped.
type ChatClearedData struct {
	LobbyID   string `json:"lobbyId"`
	ClearedAt string `json:"clearedAt"`
}

// Conn is a single user's live presence in one room. The transport layer owns
// the websocket; the hub only ever touches the outbound channel.
type Conn struct {
	UserID   string
	UserName string
	LobbyID  string
	Out      chan Event

	mu     sync.Mutex
	closed bool
	logger *logrus.Logger
}

// send pushes an event without blocking. A full or abandoned channel drops
// the event; the write pump being stuck must never stall a broadcast. The
// closed flag is checked under the same mutex closeOut holds, so a broadcast
// racing a leave can never send on the closed channel.
func (c *Conn) send(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Out <- ev:
	default:
		c.logger.WithFields(logrus.Fields{
			"user_id": c.UserID,
			"lobby":   c.LobbyID,
			"event":   ev.Event,
		}).Warn("chat out channel full, dropping event")
	}
}

// closeOut closes the outbound channel exactly once.
func (c *Conn) closeOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Out)
}

// Hub owns room membership: lobby ID to the set of live connections. It
// replaces a process-wide connection dictionary with per-room state behind a
// single mutex; connections in other rooms never contend.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*Conn]struct{}
	logger *logrus.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		rooms:  make(map[string]map[*Conn]struct{}),
		logger: logger,
	}
}

// Join registers a connection in its lobby's room and notifies the room.
func (h *Hub) Join(lobbyID, userID, userName string) *Conn {
	conn := &Conn{
		UserID:   userID,
		UserName: userName,
		LobbyID:  lobbyID,
		Out:      make(chan Event, 16),
		logger:   h.logger,
	}

	h.mu.Lock()
	room, ok := h.rooms[lobbyID]
	if !ok {
		room = make(map[*Conn]struct{})
		h.rooms[lobbyID] = room
	}
	room[conn] = struct{}{}
	h.mu.Unlock()

	// announce to everyone already in the room, not the joiner itself
	h.broadcastExcept(lobbyID, conn, Event{
		Event: "user_joined",
		Data: UserJoinedData{
			UserID:    userID,
			UserName:  userName,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
	return conn
}

// Leave removes a connection from its room, closes its outbound channel, and
// notifies the remaining members. Calling Leave twice is safe: the room
// removal and the channel close are both idempotent.
func (h *Hub) Leave(conn *Conn) {
	h.mu.Lock()
	room, ok := h.rooms[conn.LobbyID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, present := room[conn]; !present {
		h.mu.Unlock()
		return
	}
	delete(room, conn)
	if len(room) == 0 {
		delete(h.rooms, conn.LobbyID)
	}
	h.mu.Unlock()

	conn.closeOut()

	h.Broadcast(conn.LobbyID, Event{
		Event: "user_left",
		Data: UserLeftData{
			UserID:    conn.UserID,
			UserName:  conn.UserName,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Broadcast sends an event to every connection in a room.
func (h *Hub) Broadcast(lobbyID string, ev Event) {
	h.broadcastExcept(lobbyID, nil, ev)
}

func (h *Hub) broadcastExcept(lobbyID string, skip *Conn, ev Event) {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.rooms[lobbyID]))
	for c := range h.rooms[lobbyID] {
		if c != skip {
			conns = append(conns, c)
		}
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.send(ev)
	}
}

// RoomSize reports the number of live connections in one room.
func (h *Hub) RoomSize(lobbyID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[lobbyID])
}

// ActiveConnections reports live connections across all rooms, surfaced on
// the health endpoint.
func (h *Hub) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for _, room := range h.rooms {
		total += len(room)
	}
	return total
}
