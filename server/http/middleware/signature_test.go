package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestCheckServiceAPIKey(t *testing.T) {
	req := httptest.NewRequest("POST", "/domain", nil)
	req.Header.Set("Authorization", "Bearer secret;u1")

	userID, ok := CheckServiceAPIKey(req, "secret")
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)

	req.Header.Set("Authorization", "Bearer wrong;u1")
	_, ok = CheckServiceAPIKey(req, "secret")
	assert.False(t, ok)
}

func TestCheckIdentityToken(t *testing.T) {
	claims := jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("shh"))
	assert.NoError(t, err)

	req := httptest.NewRequest("POST", "/domain", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	userID, ok := CheckIdentityToken(req, "shh")
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)

	userID, ok = CheckIdentityToken(req, "wrong-secret")
	assert.False(t, ok)
	assert.Empty(t, userID)
}

func TestCheckIdentityTokenRejectsExpired(t *testing.T) {
	claims := jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("shh"))
	assert.NoError(t, err)

	req := httptest.NewRequest("POST", "/domain", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	_, ok := CheckIdentityToken(req, "shh")
	assert.False(t, ok)
}

func TestCheckIdentityTokenIgnoresPresharedKeyForm(t *testing.T) {
	req := httptest.NewRequest("POST", "/domain", nil)
	req.Header.Set("Authorization", "Bearer secret;u1")

	_, ok := CheckIdentityToken(req, "shh")
	assert.False(t, ok)
}
