package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nvdoan/wavelink-backend/internal/services"
)

var messageUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// ClientMessage represents frames coming from the client over WebSocket.
type ClientMessage struct {
	Type        string `json:"type"` // "message", "typing", "call_invite", "ping"
	ReceiverID  string `json:"receiver_id"`
	Content     string `json:"content,omitempty"`
	MessageType string `json:"message_type,omitempty"`
	CallID      string `json:"call_id,omitempty"`
}

// MessageWebSocket handles real-time direct messaging. Authentication uses
// the session token (Authorization: Bearer <token>, or ?token= for browser
// WebSocket clients). One connection per user; events for the user arrive
// through the Redis subscriber regardless of which instance the sender hit.
func MessageWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}

	userID, ok, err := validateSession(token)
	if err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := messageUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// All writes go through the registered handle; the Redis subscriber
	// delivers on it concurrently with this goroutine's acks.
	wsConn := services.RegisterConnection(userID, conn)
	defer services.UnregisterConnection(userID)

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		msg.ReceiverID = strings.TrimSpace(msg.ReceiverID)

		switch msg.Type {
		case "message":
			handleIncomingMessage(r, wsConn, userID, msg)
		case "typing":
			if msg.ReceiverID != "" {
				_ = services.PublishMessageEvent(r.Context(), services.MessageEvent{
					Type:       "typing",
					SenderID:   userID,
					ReceiverID: msg.ReceiverID,
					Timestamp:  time.Now().UTC(),
				})
			}
		case "call_invite":
			if msg.ReceiverID != "" && msg.CallID != "" {
				_ = services.PublishMessageEvent(r.Context(), services.MessageEvent{
					Type:       "call_invite",
					SenderID:   userID,
					ReceiverID: msg.ReceiverID,
					CallID:     msg.CallID,
					Timestamp:  time.Now().UTC(),
				})
			}
		case "ping":
			// Deadline already refreshed above.
		default:
			// Ignore unknown types.
		}
	}
}

// handleIncomingMessage persists to MongoDB, publishes via Redis, and
// acknowledges to the sender.
func handleIncomingMessage(r *http.Request, conn services.MessageConn, userID string, msg ClientMessage) {
	content := strings.TrimSpace(msg.Content)
	if content == "" || msg.ReceiverID == "" {
		return
	}

	now := time.Now().UTC()
	stored := services.Message{
		SenderID:    userID,
		ReceiverID:  msg.ReceiverID,
		Content:     content,
		MessageType: msg.MessageType,
		Timestamp:   now,
	}
	services.SaveMessageAsync(stored)
	services.PushMessageToRecentCache(stored)

	event := services.MessageEvent{
		Type:        "message",
		SenderID:    userID,
		ReceiverID:  msg.ReceiverID,
		Content:     content,
		MessageType: msg.MessageType,
		Timestamp:   now,
	}
	_ = services.PublishMessageEvent(r.Context(), event)

	ack := event
	ack.Type = "message_ack"
	_ = conn.WriteJSON(ack)
}
