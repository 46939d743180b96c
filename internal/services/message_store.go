package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nvdoan/wavelink-backend/internal/database"
	"github.com/nvdoan/wavelink-backend/pkg/utils"
)

// Message is a direct message between two users. Content is encrypted at
// rest; the stored document never holds plaintext.
type Message struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Conversation string             `bson:"conversation" json:"-"`
	SenderID     string             `bson:"sender_id" json:"sender_id"`
	ReceiverID   string             `bson:"receiver_id" json:"receiver_id"`
	Content      string             `bson:"content" json:"content"`
	MessageType  string             `bson:"message_type" json:"message_type"` // "text", "media", "call"
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	Status       string             `bson:"status" json:"status"` // "delivered", "read"
}

var messageCipher *utils.Cipher

// ErrEncryptionNotConfigured means no ENCRYPTION_KEY was configured, so
// message history can be neither stored nor read back.
var ErrEncryptionNotConfigured = errors.New("messages: encryption key not configured")

// InitMessageEncryption sets up the at-rest cipher for message content.
// Called once on startup before any message is stored.
func InitMessageEncryption(keyBase64 string) error {
	c, err := utils.NewCipher(keyBase64)
	if err != nil {
		return err
	}
	messageCipher = c
	return nil
}

// ConversationKey is the canonical id of the thread between two users,
// identical regardless of who sends.
func ConversationKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + ":" + pair[1]
}

// EnsureMessageIndexes configures indexes for the messages collection.
// Called on startup from main after Mongo has connected.
func EnsureMessageIndexes(ctx context.Context) error {
	col := database.DB.Collection("messages")

	// Compound index on (conversation, timestamp) to support history
	// pagination per thread.
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "conversation", Value: 1},
			{Key: "timestamp", Value: -1},
		},
		Options: options.Index().SetName("idx_conversation_timestamp"),
	}
	_, err := col.Indexes().CreateOne(ctx, model)
	return err
}

// SaveMessageAsync persists a message to MongoDB asynchronously. The caller
// should NOT block on this; fire-and-forget is acceptable. Without a
// configured encryption key the message is dropped, matching the startup
// warning that history will not be stored.
func SaveMessageAsync(msg Message) {
	if messageCipher == nil {
		log.Println("message encryption not configured; message not persisted")
		return
	}
	go func(m Message) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if m.Timestamp.IsZero() {
			m.Timestamp = time.Now().UTC()
		}
		if m.Status == "" {
			m.Status = "delivered"
		}
		if m.MessageType == "" {
			m.MessageType = "text"
		}
		m.Conversation = ConversationKey(m.SenderID, m.ReceiverID)

		sealed, err := messageCipher.Encrypt(m.Content)
		if err != nil {
			log.Printf("failed to encrypt message content: %v", err)
			return
		}
		m.Content = sealed

		col := database.DB.Collection("messages")
		if _, err := col.InsertOne(ctx, m); err != nil {
			log.Printf("failed to persist message: %v", err)
		}
	}(msg)
}

// LoadMessages returns paginated history for the thread between two users.
// Pagination is timestamp + limit (newest-first scrolling); results come
// back oldest-first with content decrypted.
func LoadMessages(ctx context.Context, userA, userB string, before *time.Time, limit int64) ([]Message, bool, error) {
	if messageCipher == nil {
		return nil, false, ErrEncryptionNotConfigured
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	col := database.DB.Collection("messages")

	filter := bson.M{
		"conversation": ConversationKey(userA, userB),
	}
	if before != nil {
		filter["timestamp"] = bson.M{"$lt": before.UTC()}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var msgs []Message
	for cur.Next(ctx) {
		var m Message
		if err := cur.Decode(&m); err != nil {
			continue
		}
		plain, err := messageCipher.Decrypt(m.Content)
		if err != nil {
			log.Printf("failed to decrypt message %s: %v", m.ID.Hex(), err)
			continue
		}
		m.Content = plain
		msgs = append(msgs, m)
	}
	if err := cur.Err(); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(msgs)) > limit
	if hasMore {
		msgs = msgs[:len(msgs)-1]
	}

	// Reverse to oldest-first for the UI.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, hasMore, nil
}
