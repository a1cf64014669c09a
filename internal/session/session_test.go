package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestParse(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		Email:            "alice@example.com",
		Name:             "Alice",
	})

	s, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", s.Email)
	assert.Equal(t, "Alice", s.DisplayName())
	assert.True(t, s.ExpiresAt.Equal(exp))
	assert.False(t, s.IsAdmin())
	assert.False(t, s.Expired(time.Now()))
	assert.True(t, s.Expired(exp.Add(time.Second)))
}

func TestParse_AdminVariants(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
	}{
		{"Flag", Claims{Admin: true}},
		{"Role", Claims{Role: "admin"}},
		{"Roles", Claims{Roles: []string{"user", "admin"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(signToken(t, tt.claims))
			require.NoError(t, err)
			assert.True(t, s.IsAdmin())
		})
	}
}

func TestParse_SubjectFallback(t *testing.T) {
	s, err := Parse(signToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "bob@example.com"}}))
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", s.Email)
	assert.Equal(t, "bob@example.com", s.DisplayName())
	assert.False(t, s.Expired(time.Now()), "no exp claim means no expiry")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = Parse("not-a-jwt")
	assert.Error(t, err)
}

func TestHolder(t *testing.T) {
	h, err := NewHolder("")
	require.NoError(t, err)
	assert.Nil(t, h.Get())
	assert.Empty(t, h.Token())
	_, err = h.Require()
	assert.ErrorIs(t, err, ErrNoSession)

	token := signToken(t, Claims{Email: "carol@example.com"})
	h, err = NewHolder(token)
	require.NoError(t, err)
	assert.Equal(t, token, h.Token())

	s, err := h.Require()
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", s.Email)

	assert.True(t, h.Clear())
	assert.False(t, h.Clear())
	assert.Nil(t, h.Get())

	h.Set(s)
	assert.Equal(t, token, h.Token())
}

func TestNewHolder_Malformed(t *testing.T) {
	_, err := NewHolder("garbage")
	assert.Error(t, err)
}
