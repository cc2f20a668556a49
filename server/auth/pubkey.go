package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// EncodePublicKey serializes an Ed25519 public key to its wire text form: lowercase hex.
func EncodePublicKey(pub ed25519.PublicKey) string {
	return hex.EncodeToString(pub)
}

// DecodePublicKey parses the hex text form back into an Ed25519 public key.
// Returns an error if the text isn't valid hex or decodes to the wrong length.
func DecodePublicKey(text string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decoding public key hex: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key has wrong length: got %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// DecodeSignature parses the hex text form of a signature as produced by the caller.
func DecodeSignature(text string) ([]byte, error) {
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decoding signature hex: %w", err)
	}
	if len(raw) != ed25519.SignatureSize {
		return nil, fmt.Errorf("signature has wrong length: got %d bytes, want %d", len(raw), ed25519.SignatureSize)
	}
	return raw, nil
}
