package activity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return NewTracker(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestUpdateAndGetTimestamp(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	ts, err := tracker.GetTimestamp(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, ts)

	require.NoError(t, tracker.Update(ctx, "u1"))

	ts, err = tracker.GetTimestamp(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, ts)
	require.InDelta(t, time.Now().UnixMilli(), *ts, 5000)
}

func TestGetInactiveAndActiveSince(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	require.NoError(t, tracker.client.ZAdd(ctx, Key, redis.Z{
		Score:  float64(time.Now().Add(-40 * 24 * time.Hour).UnixMilli()),
		Member: "stale-user",
	}).Err())
	require.NoError(t, tracker.Update(ctx, "fresh-user"))

	inactive, err := tracker.GetInactiveSince(ctx, 30)
	require.NoError(t, err)
	require.Equal(t, []string{"stale-user"}, inactive)

	active, err := tracker.GetActiveSince(ctx, 30)
	require.NoError(t, err)
	require.Equal(t, []string{"fresh-user"}, active)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t)

	require.NoError(t, tracker.Update(ctx, "u1"))
	require.NoError(t, tracker.Remove(ctx, "u1"))

	ts, err := tracker.GetTimestamp(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, ts)
}
