// Package presence tracks ephemeral per-user state: online heartbeats and
// typing flags. Everything lives in redis under TTL-tagged keys, so state
// from a crashed client self-heals when its keys expire and nothing depends
// on process memory lifetime.
package presence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineTTL = 60 * time.Second
	// TypingTTL bounds how long a typing flag survives without a refresh.
	TypingTTL = 3 * time.Second

	typingRateWindow = time.Second
	typingRateLimit  = 5
)

// ErrRateLimited is returned when a user refreshes their typing flag faster
// than the spam guard allows.
var ErrRateLimited = errors.New("typing updates rate limited")

type Tracker struct {
	rdb *redis.Client
	log *log.Logger
}

func NewTracker(rdb *redis.Client, logger *log.Logger) *Tracker {
	return &Tracker{rdb: rdb, log: logger}
}

func onlineKey(userId int) string {
	return "online:" + strconv.Itoa(userId)
}

func typingKey(roomExternalId string, userId int) string {
	return fmt.Sprintf("typing:%s:%d", roomExternalId, userId)
}

// Heartbeat marks the user online for the next minute. Callers refresh it on
// websocket pongs.
func (t *Tracker) Heartbeat(ctx context.Context, userId int) error {
	return t.rdb.Set(ctx, onlineKey(userId), "1", onlineTTL).Err()
}

func (t *Tracker) SetOffline(ctx context.Context, userId int) error {
	return t.rdb.Del(ctx, onlineKey(userId)).Err()
}

func (t *Tracker) IsOnline(ctx context.Context, userId int) (bool, error) {
	n, err := t.rdb.Exists(ctx, onlineKey(userId)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetTyping sets or clears the user's typing flag in a room. The flag
// carries its own TTL, so a client that crashes mid-keystroke never leaves a
// permanent typing ghost. Setting is rate limited; clearing never is.
func (t *Tracker) SetTyping(ctx context.Context, roomExternalId string, userId int, typing bool) error {
	if !typing {
		return t.rdb.Del(ctx, typingKey(roomExternalId, userId)).Err()
	}

	ok, err := t.allowTyping(ctx, userId)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRateLimited
	}

	return t.rdb.Set(ctx, typingKey(roomExternalId, userId), "1", TypingTTL).Err()
}

// TypingUsers returns the ids of users currently typing in the room. Expiry
// is enforced by redis itself: expired flags simply stop matching.
func (t *Tracker) TypingUsers(ctx context.Context, roomExternalId string) ([]int, error) {
	pattern := fmt.Sprintf("typing:%s:*", roomExternalId)
	prefix := fmt.Sprintf("typing:%s:", roomExternalId)

	var userIds []int
	iter := t.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		id, err := strconv.Atoi(strings.TrimPrefix(iter.Val(), prefix))
		if err != nil {
			t.log.Printf("skipping malformed typing key %q", iter.Val())
			continue
		}
		userIds = append(userIds, id)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return userIds, nil
}

func (t *Tracker) allowTyping(ctx context.Context, userId int) (bool, error) {
	key := "ratelimit:typing:" + strconv.Itoa(userId)

	count, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := t.rdb.Expire(ctx, key, typingRateWindow).Err(); err != nil {
			return false, err
		}
	}

	return count <= typingRateLimit, nil
}
