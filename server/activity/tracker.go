// Package activity implements the Activity Tracker of spec.md §4.4: a thin
// facade over a Redis sorted set scored by millisecond timestamp.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key is the sorted set holding every user id's last activity timestamp.
const Key = "domains:activity"

// Tracker is the Activity Tracker.
type Tracker struct {
	client *redis.Client
}

// NewTracker wraps a Redis client.
func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{client: client}
}

// Update overwrites userID's score with the current time in milliseconds.
func (t *Tracker) Update(ctx context.Context, userID string) error {
	now := float64(time.Now().UnixMilli())
	if err := t.client.ZAdd(ctx, Key, redis.Z{Score: now, Member: userID}).Err(); err != nil {
		return fmt.Errorf("update activity for %s: %w", userID, err)
	}
	return nil
}

// GetInactiveSince returns every member whose score is at or before now - days*86400000ms.
func (t *Tracker) GetInactiveSince(ctx context.Context, days int) ([]string, error) {
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()
	members, err := t.client.ZRangeByScore(ctx, Key, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", cutoff),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("get inactive since %d days: %w", days, err)
	}
	return members, nil
}

// GetActiveSince returns every member whose score is strictly after now - days*86400000ms.
func (t *Tracker) GetActiveSince(ctx context.Context, days int) ([]string, error) {
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()
	members, err := t.client.ZRangeByScore(ctx, Key, &redis.ZRangeBy{
		Min: fmt.Sprintf("(%d", cutoff),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("get active since %d days: %w", days, err)
	}
	return members, nil
}

// Remove deletes userID's entry.
func (t *Tracker) Remove(ctx context.Context, userID string) error {
	if err := t.client.ZRem(ctx, Key, userID).Err(); err != nil {
		return fmt.Errorf("remove activity for %s: %w", userID, err)
	}
	return nil
}

// GetTimestamp returns userID's score in milliseconds, or nil if absent.
func (t *Tracker) GetTimestamp(ctx context.Context, userID string) (*int64, error) {
	score, err := t.client.ZScore(ctx, Key, userID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get activity timestamp for %s: %w", userID, err)
	}
	millis := int64(score)
	return &millis, nil
}
