package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yundera/mesh-router-backend/server/identity"
)

type fakeActivity struct {
	inactive []string
	removed  []string
	scores   map[string]int64
}

func newFakeActivity() *fakeActivity {
	return &fakeActivity{scores: make(map[string]int64)}
}

func (f *fakeActivity) GetInactiveSince(_ context.Context, _ int) ([]string, error) {
	return f.inactive, nil
}

func (f *fakeActivity) GetTimestamp(_ context.Context, userID string) (*int64, error) {
	if ts, ok := f.scores[userID]; ok {
		return &ts, nil
	}
	return nil, nil
}

func (f *fakeActivity) Remove(_ context.Context, userID string) error {
	f.removed = append(f.removed, userID)
	return nil
}

func TestRunReleasesInactiveUsers(t *testing.T) {
	ctx := context.Background()
	registry := identity.NewRegistry(identity.NewMemStore())
	label := "alice"
	_, err := registry.Upsert(ctx, "u1", identity.Patch{DomainName: &label, PublicKey: strPtr("p1")})
	require.NoError(t, err)

	fa := newFakeActivity()
	fa.inactive = []string{"u1", "ghost"} // ghost has no identity record at all

	controller := NewController(registry, fa, nil, 30)
	result, err := controller.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ReleasedCount)
	assert.Equal(t, []string{"alice"}, result.Domains)
	assert.ElementsMatch(t, []string{"u1", "ghost"}, fa.removed)

	rec, err := registry.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Empty(t, rec.DomainName)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	registry := identity.NewRegistry(identity.NewMemStore())
	label := "alice"
	_, err := registry.Upsert(ctx, "u1", identity.Patch{DomainName: &label, PublicKey: strPtr("p1")})
	require.NoError(t, err)

	fa := newFakeActivity()
	fa.inactive = []string{"u1"}
	controller := NewController(registry, fa, nil, 30)

	first, err := controller.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ReleasedCount)

	fa.inactive = []string{"u1"} // cron would still see u1 in the sorted set briefly
	second, err := controller.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ReleasedCount)
}

func TestTriggerAsyncDebouncesBurst(t *testing.T) {
	registry := identity.NewRegistry(identity.NewMemStore())
	fa := newFakeActivity()
	controller := NewController(registry, fa, nil, 30)

	controller.TriggerAsync()
	controller.TriggerAsync()
	controller.TriggerAsync()

	time.Sleep(triggerDebounce + 500*time.Millisecond)
	// this only checks that a burst of triggers runs to completion without
	// a panic; the number of passes run is not observed, and a check on
	// released count isn't needed here since fa.inactive is empty.
}

func strPtr(s string) *string { return &s }
