package routestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ActivityUpdater is the Activity Tracker's write side, called after every
// successful registration (spec.md §4.3 step 4). Declared here as an
// interface so the store depends only on Update, which *activity.Tracker
// satisfies and tests replace with a fake.
type ActivityUpdater interface {
	Update(ctx context.Context, userID string) error
}

// Store is the Route Store of spec.md §4.3, backed by Redis.
type Store struct {
	client   *redis.Client
	ttl      time.Duration
	activity ActivityUpdater

	mu           sync.RWMutex
	knownSources map[string]map[string]struct{} // userID -> set of source tags seen so far
}

// NewStore wires a Redis client, the configured lease TTL, and the activity tracker.
func NewStore(client *redis.Client, ttl time.Duration, activity ActivityUpdater) *Store {
	return &Store{
		client:       client,
		ttl:          ttl,
		activity:     activity,
		knownSources: make(map[string]map[string]struct{}),
	}
}

func key(userID, source string) string {
	return fmt.Sprintf("routes:%s:%s", userID, source)
}

func (s *Store) rememberSource(userID, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.knownSources[userID] == nil {
		s.knownSources[userID] = make(map[string]struct{})
	}
	s.knownSources[userID][source] = struct{}{}
}

func (s *Store) sourcesFor(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sources := make([]string, 0, len(s.knownSources[userID]))
	for src := range s.knownSources[userID] {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources
}

// Register validates, groups, and atomically replaces the lease for every
// source present in routes, then records activity for userID.
func (s *Store) Register(ctx context.Context, userID string, routes []Route) error {
	if err := ValidateBatch(routes); err != nil {
		return err
	}

	groups := GroupBySource(routes)

	pipe := s.client.TxPipeline()
	for source, group := range groups {
		payload, err := json.Marshal(group)
		if err != nil {
			return fmt.Errorf("marshal routes for source %s: %w", source, err)
		}
		pipe.Set(ctx, key(userID, source), payload, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("register routes for %s: %w", userID, err)
	}

	for source := range groups {
		s.rememberSource(userID, source)
	}

	if err := s.activity.Update(ctx, userID); err != nil {
		log.WithError(err).Warnf("failed updating activity for %s after route registration", userID)
		return err
	}
	return nil
}

// GetRoutes gathers all known source keys for userID, fetches them in one
// multi-key read, and concatenates the parsed arrays in response order. Returns
// nil if every key is absent or expired.
func (s *Store) GetRoutes(ctx context.Context, userID string) ([]Route, error) {
	sources := s.sourcesFor(userID)
	if len(sources) == 0 {
		return nil, nil
	}

	keys := make([]string, len(sources))
	for i, src := range sources {
		keys[i] = key(userID, src)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get routes for %s: %w", userID, err)
	}

	var result []Route
	anyPresent := false
	for _, v := range values {
		if v == nil {
			continue
		}
		anyPresent = true
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var group []Route
		if err := json.Unmarshal([]byte(raw), &group); err != nil {
			return nil, fmt.Errorf("unmarshal routes for %s: %w", userID, err)
		}
		result = append(result, group...)
	}

	if !anyPresent {
		return nil, nil
	}
	return result, nil
}

// DeleteRoutes deletes every known source key for userID.
func (s *Store) DeleteRoutes(ctx context.Context, userID string) error {
	sources := s.sourcesFor(userID)
	if len(sources) == 0 {
		return nil
	}
	keys := make([]string, len(sources))
	for i, src := range sources {
		keys[i] = key(userID, src)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete routes for %s: %w", userID, err)
	}

	s.mu.Lock()
	delete(s.knownSources, userID)
	s.mu.Unlock()
	return nil
}

// GetRoutesTTL returns the minimum positive TTL (seconds) across userID's
// existing source keys, or -2 if no key exists — matching the ephemeral
// store's own sentinel for "no such key".
func (s *Store) GetRoutesTTL(ctx context.Context, userID string) (int64, error) {
	sources := s.sourcesFor(userID)
	if len(sources) == 0 {
		return -2, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.DurationCmd, len(sources))
	for i, src := range sources {
		cmds[i] = pipe.TTL(ctx, key(userID, src))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("get routes ttl for %s: %w", userID, err)
	}

	min := int64(-2)
	for _, cmd := range cmds {
		d, err := cmd.Result()
		if err != nil {
			continue
		}
		secs := int64(d / time.Second)
		if secs <= 0 {
			continue
		}
		if min == -2 || secs < min {
			min = secs
		}
	}
	return min, nil
}
