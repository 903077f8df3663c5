package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks the per-user daily message allowance. Counters live in
// Redis keyed by user and UTC day, expiring after 48h.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func quotaKey(userID uint64, now time.Time) string {
	return fmt.Sprintf("chat:quota:%d:%s", userID, now.UTC().Format("2006-01-02"))
}

// Allow consumes one message from the user's daily allowance. It returns
// false once limit messages have been sent today.
func (s *Store) Allow(ctx context.Context, userID uint64, limit int) (bool, error) {
	key := quotaKey(userID, time.Now())

	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		// Keep yesterday's counter around briefly for inspection.
		if err := s.rdb.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(limit), nil
}
