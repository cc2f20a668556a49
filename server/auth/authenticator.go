// Package auth implements the Signature Authenticator of spec.md §4.1: it
// proves the caller holds the private key bound to a user id's identity
// record, without ever creating identity records itself.
package auth

import (
	"context"
	"crypto/ed25519"

	"github.com/Yundera/mesh-router-backend/server/identity"
)

// Result is the outcome of an authenticate call.
type Result int

const (
	// Authenticated means the signature verified against the stored public key.
	Authenticated Result = iota
	// BadFormat means the signature text couldn't be parsed.
	BadFormat
	// Mismatch means the signature parsed but didn't verify.
	Mismatch
	// UnknownUser means no identity record exists for the user id.
	UnknownUser
)

// Denied reports whether result should be surfaced as an auth failure to
// the caller. BadFormat and Mismatch are folded together per spec.md §4.1:
// "implementations may log badFormat separately for forensics but must not
// leak the distinction in responses."
func (r Result) Denied() bool {
	return r == BadFormat || r == Mismatch
}

// Authenticator verifies signatures over the user id against the
// identity record's stored public key. It never auto-creates records.
type Authenticator struct {
	registry *identity.Registry
}

// NewAuthenticator wraps an identity.Registry.
func NewAuthenticator(registry *identity.Registry) *Authenticator {
	return &Authenticator{registry: registry}
}

// Authenticate verifies signatureText, the hex-encoded Ed25519 signature
// over userID's own bytes, against userID's stored public key.
func (a *Authenticator) Authenticate(ctx context.Context, userID, signatureText string) (Result, error) {
	rec, err := a.registry.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if rec == nil || rec.PublicKey == "" {
		return UnknownUser, nil
	}

	sig, err := DecodeSignature(signatureText)
	if err != nil {
		return BadFormat, nil
	}

	pub, err := DecodePublicKey(rec.PublicKey)
	if err != nil {
		// The stored key itself is malformed; there is nothing the caller
		// could have signed correctly against it.
		return Mismatch, nil
	}

	if ed25519.Verify(pub, []byte(userID), sig) {
		return Authenticated, nil
	}
	return Mismatch, nil
}
