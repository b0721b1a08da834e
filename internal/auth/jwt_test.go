package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("test-secret-for-unit-tests-only", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return issuer
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.Issue(42, TokenAccess)
	require.NoError(t, err)

	claims, err := issuer.Verify(token, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, TokenAccess, claims.Type)
}

func TestRefreshTokenCannotAuthorize(t *testing.T) {
	issuer := newTestIssuer(t)

	_, refresh, err := issuer.IssuePair(7)
	require.NoError(t, err)

	_, err = issuer.Verify(refresh, TokenAccess)
	assert.Error(t, err, "refresh token must not pass as an access token")

	claims, err := issuer.Verify(refresh, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestAccessTokenCannotRefresh(t *testing.T) {
	issuer := newTestIssuer(t)

	access, _, err := issuer.IssuePair(7)
	require.NoError(t, err)

	_, err = issuer.Verify(access, TokenRefresh)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer, err := NewIssuer("test-secret-for-unit-tests-only", -time.Minute, -time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue(1, TokenAccess)
	require.NoError(t, err)

	_, err = issuer.Verify(token, TokenAccess)
	assert.Error(t, err)
}

func TestTokenFromDifferentSecretRejected(t *testing.T) {
	issuer := newTestIssuer(t)
	other, err := NewIssuer("a-completely-different-secret", 30*time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := other.Issue(1, TokenAccess)
	require.NoError(t, err)

	_, err = issuer.Verify(token, TokenAccess)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	issuer := newTestIssuer(t)
	_, err := issuer.Verify("not-a-jwt", TokenAccess)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, VerifyPassword("correct horse battery staple", hash))
	assert.False(t, VerifyPassword("wrong password", hash))
}

func TestPasswordLongerThan72BytesStillVerifies(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	hash, err := HashPassword(string(long))
	require.NoError(t, err)
	assert.True(t, VerifyPassword(string(long), hash))
}
