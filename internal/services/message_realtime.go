package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/nvdoan/wavelink-backend/internal/database"
)

// MessageEvent is the payload broadcast over Redis and WebSocket for
// direct messages and call notifications.
type MessageEvent struct {
	Type        string    `json:"type"` // "message", "typing", "call_invite"
	SenderID    string    `json:"sender_id,omitempty"`
	ReceiverID  string    `json:"receiver_id,omitempty"`
	Content     string    `json:"content,omitempty"`
	MessageType string    `json:"message_type,omitempty"`
	CallID      string    `json:"call_id,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// MessageConn is the minimal interface the WebSocket implementation must
// satisfy.
type MessageConn interface {
	WriteJSON(v interface{}) error
	ReadJSON(dest interface{}) error
	Close() error
}

// serializedConn guards writes with a mutex. gorilla/websocket allows at
// most one concurrent writer per connection, and the Redis subscriber and
// the reader goroutine's acks write from different goroutines.
type serializedConn struct {
	mu   sync.Mutex
	conn MessageConn
}

func (c *serializedConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *serializedConn) ReadJSON(dest interface{}) error { return c.conn.ReadJSON(dest) }

func (c *serializedConn) Close() error { return c.conn.Close() }

// messageHub is a per-instance registry of connected users. Fan-out across
// instances goes through Redis pub/sub; the hub only delivers to local
// connections.
type messageHub struct {
	mu          sync.RWMutex
	connections map[string]MessageConn
}

var (
	hub          = &messageHub{connections: make(map[string]MessageConn)}
	redisStarted sync.Once
)

// RegisterConnection registers or replaces a user's connection and returns
// the write-serialized handle. All writes to the user, the caller's
// included, must go through the returned handle.
func RegisterConnection(userID string, conn MessageConn) MessageConn {
	wrapped := &serializedConn{conn: conn}
	hub.mu.Lock()
	hub.connections[userID] = wrapped
	hub.mu.Unlock()
	return wrapped
}

// UnregisterConnection removes a user's connection.
func UnregisterConnection(userID string) {
	hub.mu.Lock()
	delete(hub.connections, userID)
	hub.mu.Unlock()
}

// ConnectedLocally reports whether the user has a live connection on this
// instance. Test and diagnostics helper.
func ConnectedLocally(userID string) bool {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	_, ok := hub.connections[userID]
	return ok
}

// DeliverEvent writes the event to the receiver's local connection, if any.
// Remote receivers are reached through their own instance's subscriber.
func DeliverEvent(event MessageEvent) {
	if event.ReceiverID == "" {
		return
	}

	hub.mu.RLock()
	conn, ok := hub.connections[event.ReceiverID]
	hub.mu.RUnlock()
	if !ok {
		return
	}

	// Non-blocking best-effort send.
	go func(c MessageConn) {
		if err := c.WriteJSON(event); err != nil {
			log.Printf("error writing message event to websocket: %v", err)
		}
	}(conn)
}

// StartRedisMessageSubscriber ensures a single shared Redis listener per
// instance.
func StartRedisMessageSubscriber(ctx context.Context) {
	redisStarted.Do(func() {
		go runRedisSubscriber(ctx)
	})
}

func runRedisSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; message subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, "messages:user:*")
			defer pubsub.Close()

			log.Println("✅ Message Redis subscriber started (pattern: messages:user:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event MessageEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal message event: %v", err)
					continue
				}

				DeliverEvent(event)
			}
		}()
	}
}

// PublishMessageEvent publishes an event to the receiver's Redis channel.
// Every instance's subscriber sees it and the one holding the receiver's
// connection delivers it.
func PublishMessageEvent(ctx context.Context, event MessageEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := "messages:user:" + event.ReceiverID
	return database.RedisClient.Publish(ctx, channel, data).Err()
}
