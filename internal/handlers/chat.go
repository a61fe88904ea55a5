// internal/handlers/chat.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"

	"github.com/pad-games/backend/internal/chat"
	"github.com/pad-games/backend/internal/middleware"
	"github.com/pad-games/backend/internal/models"
)

// ChatServer exposes lobby chat: persisted history over REST and live fan-out
// over per-room WebSockets.
type ChatServer struct {
	repo   chat.Repository
	hub    *chat.Hub
	logger *logrus.Logger
}

// NewChatServer wires the handler set over a message repository and hub.
func NewChatServer(repo chat.Repository, hub *chat.Hub, logger *logrus.Logger) *ChatServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &ChatServer{repo: repo, hub: hub, logger: logger}
}

// Routes registers all chat endpoints on mux.
func (s *ChatServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /chat/{lobby_id}/history", s.handleHistory)
	mux.HandleFunc("POST /chat/{lobby_id}/send", s.handleSend)
	mux.HandleFunc("DELETE /chat/{lobby_id}/clear", s.handleClear)
	mux.HandleFunc("GET /chat/{lobby_id}/stats", s.handleStats)
	mux.HandleFunc("GET /chat/ws/{lobby_id}", s.handleWS)
	mux.HandleFunc("GET /health", HealthHandlerWithConnections("Chat Service Go", s.repo.Ping, s.hub.ActiveConnections))
}

type chatMessageView struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

func (s *ChatServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	lobbyID := r.PathValue("lobby_id")

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	messages, err := s.repo.History(r.Context(), lobbyID, limit)
	if err != nil {
		s.logger.WithError(err).Error("chat storage failure")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]chatMessageView, len(messages))
	for i, m := range messages {
		views[i] = chatMessageView{
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Message:    m.Message,
			Timestamp:  m.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lobby_id": lobbyID,
		"messages": views,
	})
}

type sendMessageRequest struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
}

func (s *ChatServer) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.SenderID == "" || req.SenderName == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: senderId, senderName and message are required")
		return
	}

	lobbyID := r.PathValue("lobby_id")
	msg, err := s.postMessage(r.Context(), lobbyID, req.SenderID, req.SenderName, req.Message)
	if err != nil {
		s.logger.WithError(err).Error("chat storage failure")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "sent",
		"lobby_id":  lobbyID,
		"timestamp": msg.Timestamp.UTC().Format(time.RFC3339),
	})
}

// postMessage persists a message and fans it out to the lobby's room. Shared
// by the REST endpoint and inbound WebSocket frames.
func (s *ChatServer) postMessage(ctx context.Context, lobbyID, senderID, senderName, text string) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		LobbyID:    lobbyID,
		SenderID:   senderID,
		SenderName: senderName,
		Message:    text,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}

	s.hub.Broadcast(lobbyID, chat.Event{
		Event: "new_message",
		Data: chat.NewMessageData{
			SenderID:   senderID,
			SenderName: senderName,
			Message:    text,
			Timestamp:  msg.Timestamp.Format(time.RFC3339),
		},
	})
	return msg, nil
}

func (s *ChatServer) handleClear(w http.ResponseWriter, r *http.Request) {
	lobbyID := r.PathValue("lobby_id")

	if _, err := s.repo.Clear(r.Context(), lobbyID); err != nil {
		s.logger.WithError(err).Error("chat storage failure")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Broadcast(lobbyID, chat.Event{
		Event: "chat_cleared",
		Data: chat.ChatClearedData{
			LobbyID:   lobbyID,
			ClearedAt: time.Now().UTC().Format(time.RFC3339),
		},
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Chat history cleared for lobby " + lobbyID,
	})
}

func (s *ChatServer) handleStats(w http.ResponseWriter, r *http.Request) {
	lobbyID := r.PathValue("lobby_id")

	stats, err := s.repo.Stats(r.Context(), lobbyID)
	if err != nil {
		s.logger.WithError(err).Error("chat storage failure")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lobbyId": lobbyID,
		"stats":   stats,
	})
}

// inboundFrame is what a connected client may send over the socket.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type inboundMessage struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
}

func (s *ChatServer) handleWS(w http.ResponseWriter, r *http.Request) {
	lobbyID := r.PathValue("lobby_id")
	userID := r.URL.Query().Get("userId")
	userName := r.URL.Query().Get("userName")
	if userName == "" {
		userName = "Guest"
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"chat"},
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		s.logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn := s.hub.Join(lobbyID, userID, userName)

	go s.writePump(ctx, c, conn)
	readErr := s.readPump(ctx, c, lobbyID)

	s.hub.Leave(conn)
	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, readErr)
	c.Close(websocket.StatusNormalClosure, "")
}

// writePump drains the hub's outbound channel onto the socket.
func (s *ChatServer) writePump(ctx context.Context, c *websocket.Conn, conn *chat.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-conn.Out:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, c, ev)
			cancel()
			if err != nil {
				s.logger.Warnf("chat write error for user %s: %v", conn.UserID, err)
				return
			}
		}
	}
}

// readPump consumes inbound frames until the socket closes. Clients can send
// messages over the socket instead of the REST endpoint; both paths persist
// and broadcast identically.
func (s *ChatServer) readPump(ctx context.Context, c *websocket.Conn, lobbyID string) error {
	for {
		typ, raw, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.logger.Warnf("invalid chat frame in lobby %s: %v", lobbyID, err)
			continue
		}

		switch frame.Event {
		case "send_message":
			var in inboundMessage
			if err := json.Unmarshal(frame.Data, &in); err != nil || in.SenderID == "" || in.Message == "" {
				s.logger.Warnf("malformed send_message frame in lobby %s", lobbyID)
				continue
			}
			if _, err := s.postMessage(ctx, lobbyID, in.SenderID, in.SenderName, in.Message); err != nil {
				s.logger.WithError(err).Error("failed to persist websocket message")
			}
		default:
			s.logger.Debugf("ignoring chat frame %q in lobby %s", frame.Event, lobbyID)
		}
	}
}
