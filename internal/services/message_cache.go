package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/nvdoan/wavelink-backend/internal/database"
)

const (
	recentKeyPrefix = "messages:conversation:"
	recentKeySuffix = ":recent"
	recentMaxLen    = 50
	recentTTL       = 1 * time.Hour
)

func recentKey(conversation string) string {
	return recentKeyPrefix + conversation + recentKeySuffix
}

// PushMessageToRecentCache adds a message to the Redis recent cache (newest
// at head). Call after saving to Mongo; content is cached in plaintext
// since Redis entries expire within the hour. LPUSH + LTRIM keeps last 50.
func PushMessageToRecentCache(msg Message) {
	if database.RedisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := recentKey(ConversationKey(msg.SenderID, msg.ReceiverID))
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	pipe := database.RedisClient.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, recentMaxLen-1)
	pipe.Expire(ctx, key, recentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("message_cache: push failed for %s: %v", key, err)
	}
}

// GetRecentMessagesFromCache returns the most recent messages for a thread
// (oldest-first). Only valid when before is nil (initial load). Returns
// (messages, true) on hit, (nil, false) on miss.
func GetRecentMessagesFromCache(ctx context.Context, userA, userB string) ([]Message, bool) {
	if database.RedisClient == nil {
		return nil, false
	}

	key := recentKey(ConversationKey(userA, userB))
	raw, err := database.RedisClient.LRange(ctx, key, 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	var msgs []Message
	for i := len(raw) - 1; i >= 0; i-- {
		var m Message
		if json.Unmarshal([]byte(raw[i]), &m) != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, true
}

// LoadMessagesWithCache returns thread history. For initial load
// (before==nil), tries Redis first. On miss, fetches from Mongo and warms
// the cache.
func LoadMessagesWithCache(ctx context.Context, userA, userB string, before *time.Time, limit int64) ([]Message, bool, error) {
	if before == nil && limit <= recentMaxLen {
		if cached, ok := GetRecentMessagesFromCache(ctx, userA, userB); ok {
			out := cached
			if int64(len(cached)) > limit {
				out = cached[:limit]
			}
			hasMore := int64(len(cached)) >= limit
			return out, hasMore, nil
		}
	}

	msgs, hasMore, err := LoadMessages(ctx, userA, userB, before, limit)
	if err != nil {
		return nil, false, err
	}
	if before == nil && len(msgs) > 0 {
		WarmRecentCache(ctx, userA, userB, msgs)
	}
	return msgs, hasMore, nil
}

// WarmRecentCache stores messages in Redis (oldest at tail). Call on Mongo
// fetch for initial load.
func WarmRecentCache(ctx context.Context, userA, userB string, msgs []Message) {
	if database.RedisClient == nil || len(msgs) == 0 {
		return
	}

	key := recentKey(ConversationKey(userA, userB))
	pipe := database.RedisClient.Pipeline()
	for i := len(msgs) - 1; i >= 0; i-- {
		data, err := json.Marshal(msgs[i])
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, recentMaxLen-1)
	pipe.Expire(ctx, key, recentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("message_cache: warm failed for %s: %v", key, err)
	}
}
