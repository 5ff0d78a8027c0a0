package session

import (
	"testing"
	"time"

	"github.com/docforge/docforge/internal/client/quota"
	"github.com/docforge/docforge/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, userID string, plan string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   userID,
		"email": "u@example.com",
		"plan":  plan,
		"admin": false,
		"exp":   time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestFromTokens_ParsesIdentity(t *testing.T) {
	s, err := FromTokens(mintToken(t, "u1", "premium", time.Hour), "refresh-1")
	require.NoError(t, err)

	require.Equal(t, "u1", s.Identity.ID)
	require.Equal(t, "u@example.com", s.Identity.Email)
	require.Equal(t, quota.PlanPremium, s.Identity.Plan)
	require.True(t, s.Live())
	require.NoError(t, s.Require())
}

func TestFromTokens_RejectsGarbage(t *testing.T) {
	_, err := FromTokens("not-a-jwt", "r")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSession_ExpiredTokenIsNotLive(t *testing.T) {
	s, err := FromTokens(mintToken(t, "u1", "free", -time.Minute), "r")
	require.NoError(t, err)

	require.False(t, s.Live())
	require.ErrorIs(t, s.Require(), common.ErrSessionExpired)
}

func TestSession_TokenWithoutExpiryIsNotLive(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"uid": "u1"})
	signed, err := token.SignedString([]byte("k"))
	require.NoError(t, err)

	s, err := FromTokens(signed, "r")
	require.NoError(t, err)
	require.False(t, s.Live())
}

func TestSession_UpdateReplacesTokens(t *testing.T) {
	s, err := FromTokens(mintToken(t, "u1", "free", -time.Minute), "r1")
	require.NoError(t, err)
	require.False(t, s.Live())

	require.NoError(t, s.Update(mintToken(t, "u1", "free", time.Hour), "r2"))
	require.True(t, s.Live())
	require.Equal(t, "r2", s.RefreshToken)
}

func TestNilSessionIsNotLive(t *testing.T) {
	var s *Session
	require.False(t, s.Live())
}
