package redisdedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// retention covers the provider's webhook retry window with margin; ids
// older than this can never be redelivered.
const retention = 72 * time.Hour

// Store records fully processed webhook event ids in Redis so replayed
// deliveries are recognized across instances.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(eventID string) string {
	return "webhook:event:" + eventID
}

func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := s.client.Get(ctx, key(eventID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis dedup get: %w", err)
	}
	return true, nil
}

func (s *Store) MarkProcessed(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, key(eventID), "1", retention).Err(); err != nil {
		return fmt.Errorf("redis dedup set: %w", err)
	}
	return nil
}
