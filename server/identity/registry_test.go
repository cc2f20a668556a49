package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yundera/mesh-router-backend/server/status"
)

func newTestRegistry() *Registry {
	return NewRegistry(NewMemStore())
}

func strPtr(s string) *string { return &s }

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	avail, err := r.CheckAvailability(ctx, "root")
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Equal(t, "Domain name is not available.", avail.Message)

	avail, err = r.CheckAvailability(ctx, "Has-Dash")
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Equal(t, "Domain name is invalid.", avail.Message)

	avail, err = r.CheckAvailability(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, avail.Available)

	label63 := strings.Repeat("a", 63)
	avail, err = r.CheckAvailability(ctx, label63)
	require.NoError(t, err)
	assert.True(t, avail.Available)

	label64 := strings.Repeat("a", 64)
	avail, err = r.CheckAvailability(ctx, label64)
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Equal(t, "Domain name is invalid.", avail.Message)

	_, err = r.Upsert(ctx, "u1", Patch{DomainName: strPtr("alice")})
	require.NoError(t, err)

	avail, err = r.CheckAvailability(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, avail.Available)
}

func TestUpsertOwnershipConflict(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	_, err := r.Upsert(ctx, "u1", Patch{DomainName: strPtr("alice"), PublicKey: strPtr("p1")})
	require.NoError(t, err)

	_, err = r.Upsert(ctx, "u2", Patch{DomainName: strPtr("alice"), PublicKey: strPtr("p2")})
	require.Error(t, err)
	se, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, status.Conflict, se.Type())

	// the original owner may re-upsert the same label without conflict.
	_, err = r.Upsert(ctx, "u1", Patch{DomainName: strPtr("alice")})
	require.NoError(t, err)
}

func TestUpsertRejectsReservedLabel(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	_, err := r.Upsert(ctx, "u1", Patch{DomainName: strPtr("root")})
	require.Error(t, err)
	se, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, status.InvalidArgument, se.Type())
}

func TestUpsertEmptyPatchRejected(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	_, err := r.Upsert(ctx, "u1", Patch{})
	require.Error(t, err)
	se, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, status.InvalidArgument, se.Type())
}

func TestClearDomainAssignment(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	err := r.ClearDomainAssignment(ctx, "unknown")
	require.Error(t, err)
	se, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, status.NotFound, se.Type())

	_, err = r.Upsert(ctx, "u1", Patch{DomainName: strPtr("alice"), PublicKey: strPtr("p1")})
	require.NoError(t, err)

	require.NoError(t, r.ClearDomainAssignment(ctx, "u1"))

	rec, err := r.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Empty(t, rec.DomainName)
	assert.Empty(t, rec.PublicKey)
}

func TestTouchHeartbeatRequiresExistingRecord(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	_, err := r.TouchHeartbeat(ctx, "unknown")
	require.Error(t, err)

	_, err = r.Upsert(ctx, "u1", Patch{PublicKey: strPtr("p1")})
	require.NoError(t, err)

	now, err := r.TouchHeartbeat(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, IsOnline(&now, DefaultOnlineThreshold))
}

func TestIsOnline(t *testing.T) {
	assert.False(t, IsOnline(nil, DefaultOnlineThreshold))
}
