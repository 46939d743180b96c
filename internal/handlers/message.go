package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nvdoan/wavelink-backend/internal/services"
)

type SendMessageRequest struct {
	ReceiverID  string `json:"receiver_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type,omitempty"`
}

// SendMessage is POST /api/messages/send: persists the message and fans it
// out to the receiver's live connection through Redis. The WebSocket
// gateway is the usual path; this endpoint covers clients without a socket.
func SendMessage(w http.ResponseWriter, r *http.Request) {
	actorID := authenticatedUser(r)
	if actorID == "" {
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	var req SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ReceiverID == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "receiver_id and content are required")
		return
	}

	now := time.Now().UTC()
	msg := services.Message{
		SenderID:    actorID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		MessageType: req.MessageType,
		Timestamp:   now,
	}
	services.SaveMessageAsync(msg)
	services.PushMessageToRecentCache(msg)

	if err := services.PublishMessageEvent(r.Context(), services.MessageEvent{
		Type:        "message",
		SenderID:    actorID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		MessageType: req.MessageType,
		Timestamp:   now,
	}); err != nil {
		// Persisted but not delivered live; the receiver catches up from
		// history.
		writeJSON(w, http.StatusAccepted, map[string]string{"message": "Message stored, delivery pending"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Message sent"})
}

// MessageHistory is GET /api/messages/history?with=&before=&limit=.
// Returns the thread between the caller and the `with` user, oldest-first.
func MessageHistory(w http.ResponseWriter, r *http.Request) {
	actorID := authenticatedUser(r)
	if actorID == "" {
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	otherID := r.URL.Query().Get("with")
	if otherID == "" {
		writeError(w, http.StatusBadRequest, "with is required")
		return
	}

	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "before must be RFC3339")
			return
		}
		before = &t
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	msgs, hasMore, err := services.LoadMessagesWithCache(r.Context(), actorID, otherID, before, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if msgs == nil {
		msgs = []services.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
		"has_more": hasMore,
	})
}
