package utils

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
	assert.Len(t, GenerateRequestID(), 12)
}

func TestSessionSigner_RoundTrip(t *testing.T) {
	signer := NewSessionSigner("secret", "booking-insights", time.Hour)
	userID := uuid.New()

	token, err := signer.Generate(userID)
	require.NoError(t, err)

	claims, err := signer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestSessionSigner_RejectsWrongSecret(t *testing.T) {
	token, err := NewSessionSigner("secret", "booking-insights", time.Hour).Generate(uuid.New())
	require.NoError(t, err)

	_, err = NewSessionSigner("other", "booking-insights", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSessionSigner_Expired(t *testing.T) {
	signer := NewSessionSigner("secret", "booking-insights", -time.Minute)
	token, err := signer.Generate(uuid.New())
	require.NoError(t, err)

	_, err = signer.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)

	sealed, err := s.Seal("access-123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealedPrefix))
	assert.NotContains(t, sealed, "access-123")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "access-123", plain)
}

func TestSealer_ReadsLegacyPlaintext(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)

	plain, err := s.Open("legacy-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", plain)
}

func TestSealer_DisabledPassesThrough(t *testing.T) {
	s, err := NewSealer("")
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	out, err := s.Seal("x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestSealer_RejectsTamperedValue(t *testing.T) {
	s, err := NewSealer(testKey())
	require.NoError(t, err)
	sealed, err := s.Seal("access-123")
	require.NoError(t, err)

	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := sealedPrefix + base64.RawStdEncoding.EncodeToString(raw)

	_, err = s.Open(tampered)
	assert.ErrorIs(t, err, ErrUnseal)
}

func TestNewSealer_RejectsShortKey(t *testing.T) {
	_, err := NewSealer(base64.StdEncoding.EncodeToString([]byte("short")))
	require.Error(t, err)
}
