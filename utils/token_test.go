package utils

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, 0)
	require.NoError(t, err)
	return m
}

func TestNewTokenManager(t *testing.T) {
	_, err := NewTokenManager("short", time.Hour)
	assert.Error(t, err)

	m, err := NewTokenManager(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, m.ttl)
	assert.Equal(t, 7*24*time.Hour, DefaultTokenTTL)
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	m := newTestTokenManager(t)

	token, err := m.GenerateToken("64b7f0c2a1b2c3d4e5f60718")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	userID, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", userID)
}

func TestTokenCarriesUserIDClaim(t *testing.T) {
	m := newTestTokenManager(t)
	token, err := m.GenerateToken("64b7f0c2a1b2c3d4e5f60718")
	require.NoError(t, err)

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[1])
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", body["user_id"])
	assert.NotContains(t, body, "userId")
	assert.Equal(t, tokenIssuer, body["iss"])
}

func TestTokenExpiresAfterSevenDays(t *testing.T) {
	m := newTestTokenManager(t)
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateToken("user-1")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(7*24*time.Hour - time.Minute) }
	_, err = m.VerifyToken(token)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(7*24*time.Hour + time.Minute) }
	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	m := newTestTokenManager(t)
	good, err := m.GenerateToken("user-1")
	require.NoError(t, err)

	other, err := NewTokenManager("another-secret-32-chars-long!!!!", 0)
	require.NoError(t, err)
	foreign, err := other.GenerateToken("user-1")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, claims{UserID: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"tampered signature", good[:len(good)-3] + "xxx"},
		{"signed with another secret", foreign},
		{"alg none", unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.VerifyToken(tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}
