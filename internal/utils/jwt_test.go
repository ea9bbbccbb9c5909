package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, secret string, ttl time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(secret, ttl)
	require.NoError(t, err)
	return m
}

func TestJWT_RoundTrip(t *testing.T) {
	m := newManager(t, "super-secret", time.Hour)

	tok, err := m.Generate(42, "admin@example.com")
	require.NoError(t, err)

	claims, err := m.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestJWT_DefaultTTL(t *testing.T) {
	m := newManager(t, "secret", 0)

	tok, err := m.Generate(1, "a@example.com")
	require.NoError(t, err)
	claims, err := m.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestJWT_WrongSecret(t *testing.T) {
	tok, err := newManager(t, "right", time.Hour).Generate(1, "a@example.com")
	require.NoError(t, err)

	_, err = newManager(t, "wrong", time.Hour).Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Expired(t *testing.T) {
	m := newManager(t, "secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	tok, err := m.Generate(1, "a@example.com")
	require.NoError(t, err)

	_, err = m.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_RejectsOtherAlgorithms(t *testing.T) {
	m := newManager(t, "secret", time.Hour)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Malformed(t *testing.T) {
	_, err := newManager(t, "secret", time.Hour).Validate("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_MissingSecret(t *testing.T) {
	_, err := NewJWTManager("", time.Hour)
	assert.Error(t, err)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}
