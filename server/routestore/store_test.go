package routestore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeActivity struct {
	updated []string
}

func (f *fakeActivity) Update(_ context.Context, userID string) error {
	f.updated = append(f.updated, userID)
	return nil
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *fakeActivity) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	activity := &fakeActivity{}
	return NewStore(client, ttl, activity), activity
}

func TestRegisterAndGetRoutes(t *testing.T) {
	ctx := context.Background()
	store, activity := newTestStore(t, 10*time.Second)

	err := store.Register(ctx, "u1", []Route{
		{IP: "10.77.0.100", Port: 443, Priority: 1, Source: "agent"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"u1"}, activity.updated)

	routes, err := store.GetRoutes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Equal(t, "10.77.0.100", routes[0].IP)

	// re-registering the same source replaces, not appends.
	err = store.Register(ctx, "u1", []Route{
		{IP: "2.2.2.2", Port: 443, Priority: 1, Source: "agent"},
	})
	require.NoError(t, err)

	routes, err = store.GetRoutes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Equal(t, "2.2.2.2", routes[0].IP)
}

func TestRegisterDistinctSourcesAccumulate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 10*time.Second)

	require.NoError(t, store.Register(ctx, "u1", []Route{
		{IP: "10.0.0.1", Port: 443, Source: "agent"},
	}))
	require.NoError(t, store.Register(ctx, "u1", []Route{
		{IP: "10.0.0.2", Port: 443, Source: "tunnel"},
	}))

	routes, err := store.GetRoutes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, routes, 2)

	// updating one source leaves the other untouched.
	require.NoError(t, store.Register(ctx, "u1", []Route{
		{IP: "10.0.0.9", Port: 443, Source: "agent"},
	}))
	routes, err = store.GetRoutes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, routes, 2)

	var ips []string
	for _, r := range routes {
		ips = append(ips, r.IP)
	}
	require.Contains(t, ips, "10.0.0.9")
	require.Contains(t, ips, "10.0.0.2")
}

func TestRoutesExpireAndTTLReportsSentinel(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client, 2*time.Second, &fakeActivity{})

	require.NoError(t, store.Register(ctx, "u1", []Route{
		{IP: "10.0.0.1", Port: 443, Source: "agent"},
	}))

	ttl, err := store.GetRoutesTTL(ctx, "u1")
	require.NoError(t, err)
	require.Greater(t, ttl, int64(0))

	mr.FastForward(3 * time.Second)

	routes, err := store.GetRoutes(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, routes)

	ttl, err = store.GetRoutesTTL(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, -2, ttl)
}

func TestGetRoutesTTLNoKeySentinel(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 10*time.Second)

	ttl, err := store.GetRoutesTTL(ctx, "never-registered")
	require.NoError(t, err)
	require.EqualValues(t, -2, ttl)
}

func TestDeleteRoutesIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 10*time.Second)

	require.NoError(t, store.Register(ctx, "u1", []Route{
		{IP: "10.0.0.1", Port: 443, Source: "agent"},
	}))

	require.NoError(t, store.DeleteRoutes(ctx, "u1"))
	require.NoError(t, store.DeleteRoutes(ctx, "u1"))

	routes, err := store.GetRoutes(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, routes)
}
