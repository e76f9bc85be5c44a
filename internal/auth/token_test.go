package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"resume-match/internal/domain"
)

func newTestManager(t *testing.T, secret string) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(Config{Secret: secret, TokenTTL: time.Hour})
	require.NoError(t, err)
	return m
}

func lookupFixed(user *domain.User) UserLookup {
	return func(ctx context.Context, email string) (*domain.User, error) {
		if user != nil && user.Email == email {
			return user, nil
		}
		return nil, nil
	}
}

func TestNewTokenManager(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager(Config{Secret: ""})
	require.Error(t, err)

	_, err = NewTokenManager(Config{Secret: "s", Algorithm: "RS256"})
	require.Error(t, err)

	_, err = NewTokenManager(Config{Secret: "s", Algorithm: "none"})
	require.Error(t, err)

	for _, alg := range []string{"", "HS256", "hs384", "HS512"} {
		_, err = NewTokenManager(Config{Secret: "s", Algorithm: alg})
		require.NoError(t, err, "algorithm %q", alg)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "secret")

	hash, err := m.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2hunter2", hash)

	require.True(t, m.VerifyPassword("hunter2hunter2", hash))
	require.False(t, m.VerifyPassword("wrong-password", hash))

	// per-call salt: same input, different hash
	hash2, err := m.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	require.NotEqual(t, hash, hash2)
	require.True(t, m.VerifyPassword("hunter2hunter2", hash2))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "secret")
	require.False(t, m.VerifyPassword("anything", "not-a-bcrypt-hash"))
}

func TestIssueAndResolve(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "secret")
	user := &domain.User{ID: 1, Email: "a@x.com", Username: "a"}

	token, err := m.IssueToken(map[string]any{"sub": "a@x.com"})
	require.NoError(t, err)

	got, err := m.ResolveSubject(context.Background(), token, lookupFixed(user))
	require.NoError(t, err)
	require.Equal(t, "a@x.com", got.Email)
	require.Equal(t, int64(1), got.ID)
}

func TestResolveSubject_Expired(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "secret")
	user := &domain.User{Email: "a@x.com"}

	// token signed with the right secret but already past its expiry
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "a@x.com",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.ResolveSubject(context.Background(), signed, lookupFixed(user))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveSubject_MissingExpiry(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "secret")
	user := &domain.User{Email: "a@x.com"}

	eternal := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a@x.com"})
	signed, err := eternal.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.ResolveSubject(context.Background(), signed, lookupFixed(user))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveSubject_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := newTestManager(t, "right-secret")
	verifier := newTestManager(t, "wrong-secret")
	user := &domain.User{Email: "a@x.com"}

	token, err := issuer.IssueToken(map[string]any{"sub": "a@x.com"})
	require.NoError(t, err)

	_, err = verifier.ResolveSubject(context.Background(), token, lookupFixed(user))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveSubject_UnknownSubject(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "secret")

	token, err := m.IssueToken(map[string]any{"sub": "ghost@x.com"})
	require.NoError(t, err)

	_, err = m.ResolveSubject(context.Background(), token, lookupFixed(nil))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveSubject_MissingSubject(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "secret")

	token, err := m.IssueToken(map[string]any{"role": "admin"})
	require.NoError(t, err)

	_, err = m.ResolveSubject(context.Background(), token, lookupFixed(&domain.User{Email: "a@x.com"}))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveSubject_Malformed(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "secret")
	for _, token := range []string{"", "garbage", "not.a.jwt"} {
		_, err := m.ResolveSubject(context.Background(), token, lookupFixed(&domain.User{Email: "a@x.com"}))
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestResolveSubject_AlgorithmMismatch(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "secret")
	user := &domain.User{Email: "a@x.com"}

	other := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "a@x.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := other.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.ResolveSubject(context.Background(), signed, lookupFixed(user))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveSubject_LookupError(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, "secret")

	token, err := m.IssueToken(map[string]any{"sub": "a@x.com"})
	require.NoError(t, err)

	failing := func(ctx context.Context, email string) (*domain.User, error) {
		return nil, errors.New("store unavailable")
	}
	_, err = m.ResolveSubject(context.Background(), token, failing)
	require.ErrorIs(t, err, ErrInvalidToken)
}
