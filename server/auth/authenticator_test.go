package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yundera/mesh-router-backend/server/identity"
)

func strPtr(s string) *string { return &s }

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	registry := identity.NewRegistry(identity.NewMemStore())
	authenticator := NewAuthenticator(registry)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	t.Run("unknown user", func(t *testing.T) {
		result, err := authenticator.Authenticate(ctx, "ghost", "deadbeef")
		require.NoError(t, err)
		assert.Equal(t, UnknownUser, result)
		assert.False(t, result.Denied())
	})

	_, err = registry.Upsert(ctx, "u1", identity.Patch{PublicKey: strPtr(EncodePublicKey(pub))})
	require.NoError(t, err)

	t.Run("valid signature", func(t *testing.T) {
		sig := ed25519.Sign(priv, []byte("u1"))
		result, err := authenticator.Authenticate(ctx, "u1", hex.EncodeToString(sig))
		require.NoError(t, err)
		assert.Equal(t, Authenticated, result)
		assert.False(t, result.Denied())
	})

	t.Run("bad format", func(t *testing.T) {
		result, err := authenticator.Authenticate(ctx, "u1", "not-hex!!")
		require.NoError(t, err)
		assert.Equal(t, BadFormat, result)
		assert.True(t, result.Denied())
	})

	t.Run("mismatch", func(t *testing.T) {
		otherPub, otherPriv, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		_ = otherPub
		sig := ed25519.Sign(otherPriv, []byte("u1"))
		result, err := authenticator.Authenticate(ctx, "u1", hex.EncodeToString(sig))
		require.NoError(t, err)
		assert.Equal(t, Mismatch, result)
		assert.True(t, result.Denied())
	})
}
