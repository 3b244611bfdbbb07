package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyFmt = "session:%d"

func sessionKey(userId uint) string {
	return fmt.Sprintf(sessionKeyFmt, userId)
}

// SetSession stores the login token for a user with the given TTL. One
// session per user: a new login replaces the previous token.
func SetSession(rdb *redis.Client, userId uint, token string, duration time.Duration) error {
	ctx := context.Background()
	return rdb.Set(ctx, sessionKey(userId), token, duration).Err()
}

// GetSession returns the stored login token for a user.
func GetSession(rdb *redis.Client, userId uint) (string, error) {
	ctx := context.Background()
	return rdb.Get(ctx, sessionKey(userId)).Result()
}

// SessionTTL reports how long the user's session has left.
func SessionTTL(rdb *redis.Client, userId uint) (time.Duration, error) {
	ctx := context.Background()
	return rdb.TTL(ctx, sessionKey(userId)).Result()
}

// DeleteSession logs a user out.
func DeleteSession(rdb *redis.Client, userId uint) error {
	ctx := context.Background()
	return rdb.Del(ctx, sessionKey(userId)).Err()
}

// OnlineUserCount returns the number of unique users with active sessions.
func OnlineUserCount(rdb *redis.Client) (int, error) {
	ctx := context.Background()
	var cursor uint64
	userIds := make(map[string]struct{})
	for {
		keys, newCursor, err := rdb.Scan(ctx, cursor, "session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			parts := strings.Split(key, ":")
			if len(parts) == 2 && parts[0] == "session" && parts[1] != "" {
				userIds[parts[1]] = struct{}{}
			}
		}
		if newCursor == 0 {
			break
		}
		cursor = newCursor
	}
	return len(userIds), nil
}
