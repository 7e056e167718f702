package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customErrors "github.com/abisalde/student-portal/internal/errors"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("test-secret", "student-portal", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return m
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("", "student-portal", time.Hour, time.Hour)
	assert.ErrorIs(t, err, customErrors.JWTSecretNotConfigured)
}

func TestGenerateAndValidate(t *testing.T) {
	m := newManager(t)

	for _, typ := range []string{TokenTypeAccess, TokenTypeRefresh} {
		t.Run(typ, func(t *testing.T) {
			tok, err := m.GenerateToken("user-1", typ, "asha@example.com")
			require.NoError(t, err)

			claims, err := m.ValidateToken(tok)
			require.NoError(t, err)
			assert.Equal(t, "user-1", claims.UserID)
			assert.Equal(t, "asha@example.com", claims.UserEmail)
			assert.Equal(t, typ == TokenTypeAccess, claims.IsAccessToken())
			assert.Equal(t, typ == TokenTypeRefresh, claims.IsRefreshToken())
		})
	}
}

func TestGenerateRejectsUnknownType(t *testing.T) {
	_, err := newManager(t).GenerateToken("user-1", "id", "asha@example.com")
	assert.ErrorIs(t, err, customErrors.InvalidTokenType)
}

func TestValidateErrors(t *testing.T) {
	m := newManager(t)

	t.Run("expired", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		tok, err := m.GenerateToken("user-1", TokenTypeAccess, "asha@example.com")
		require.NoError(t, err)
		m.now = time.Now

		_, err = m.ValidateToken(tok)
		assert.ErrorIs(t, err, customErrors.ExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewManager("other", "student-portal", time.Hour, time.Hour)
		require.NoError(t, err)
		tok, err := other.GenerateToken("user-1", TokenTypeAccess, "asha@example.com")
		require.NoError(t, err)

		_, err = m.ValidateToken(tok)
		assert.ErrorIs(t, err, customErrors.InvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, customErrors.InvalidToken)
	})
}

func TestGetTokenRemainingTTL(t *testing.T) {
	tok, err := newManager(t).GenerateToken("user-1", TokenTypeAccess, "asha@example.com")
	require.NoError(t, err)

	ttl := GetTokenRemainingTTL(tok)
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour)
	assert.Equal(t, time.Duration(0), GetTokenRemainingTTL("bogus"))
}

func TestSessionTokens(t *testing.T) {
	m := newManager(t)

	access, err := m.GenerateSessionToken("user-1", TokenTypeAccess, "asha@example.com", "sid-1")
	require.NoError(t, err)
	refresh, err := m.GenerateSessionToken("user-1", TokenTypeRefresh, "asha@example.com", "sid-1")
	require.NoError(t, err)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.NotEmpty(t, claims.ID)

	other, err := m.ValidateToken(refresh)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, other.ID)

	assert.Equal(t, "sid-1", SessionIDOf(refresh))
	assert.Empty(t, SessionIDOf("bogus"))
}
