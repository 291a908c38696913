package session_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/lucafab/magazzino/session"
	"github.com/lucafab/magazzino/session/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "anna"
	testSecret   = "test-secret"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// signedToken issues an HS256 token expiring at exp. The store never
// verifies signatures, but a real JWT keeps the decode path honest.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"username": testUsername,
		"role":     "admin",
		"exp":      exp.Unix(),
	})
	raw, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func newStore(t *testing.T, repo *repofake.FakeCredentialsRepo) *session.Store {
	t.Helper()
	store, err := session.NewStore(repo, session.WithNowTime(fixedNow))
	require.NoError(t, err)
	return store
}

func TestRestoreWithValidToken(t *testing.T) {
	repo := repofake.NewFakeCredentialsRepo()
	require.NoError(t, repo.Write(&session.Credentials{
		Token:    signedToken(t, testNow.Add(time.Hour)),
		Username: testUsername,
		Role:     "admin",
	}))

	store := newStore(t, repo)
	require.True(t, store.Loading())
	require.True(t, store.Restore())
	require.False(t, store.Loading())

	sess, err := store.Current()
	require.NoError(t, err)
	require.Equal(t, testUsername, sess.Username)
	require.Equal(t, session.RoleAdmin, sess.Role)
	require.Equal(t, testNow.Add(time.Hour).Unix(), sess.Expiry.Unix())
}

func TestRestoreWithExpiredToken(t *testing.T) {
	repo := repofake.NewFakeCredentialsRepo()
	require.NoError(t, repo.Write(&session.Credentials{
		Token:    signedToken(t, testNow.Add(-time.Minute)),
		Username: testUsername,
		Role:     "admin",
	}))

	store := newStore(t, repo)
	require.False(t, store.Restore())
	require.False(t, store.Loading())

	_, err := store.Current()
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.Nil(t, repo.Stored(), "expired credentials must be cleared")
}

func TestRestoreWithExpiryExactlyNow(t *testing.T) {
	repo := repofake.NewFakeCredentialsRepo()
	require.NoError(t, repo.Write(&session.Credentials{Token: signedToken(t, testNow), Username: testUsername}))

	store := newStore(t, repo)
	require.False(t, store.Restore(), "expiry equal to now is inactive, activity requires strictly future expiry")
}

func TestRestoreWithMalformedToken(t *testing.T) {
	repo := repofake.NewFakeCredentialsRepo()
	require.NoError(t, repo.Write(&session.Credentials{Token: "not-a-jwt", Username: testUsername}))

	store := newStore(t, repo)
	require.False(t, store.Restore())
	require.False(t, store.Loading(), "restore resolves loading even on decode failure")
	require.False(t, store.Authenticated())
	require.Nil(t, repo.Stored())
}

func TestRestoreWithNoCredentials(t *testing.T) {
	store := newStore(t, repofake.NewFakeCredentialsRepo())
	require.False(t, store.Restore())
	require.False(t, store.Loading())
	require.False(t, store.Authenticated())
}

func TestLoginActivatesAndPersists(t *testing.T) {
	repo := repofake.NewFakeCredentialsRepo()
	store := newStore(t, repo)

	token := signedToken(t, testNow.Add(time.Hour))
	require.NoError(t, store.Login(token, testUsername, session.RoleAdmin))
	require.False(t, store.Loading())
	require.True(t, store.Authenticated())

	stored := repo.Stored()
	require.NotNil(t, stored)
	require.Equal(t, token, stored.Token)
	require.Equal(t, testUsername, stored.Username)
}

func TestLoginWithUndecodableTokenFails(t *testing.T) {
	store := newStore(t, repofake.NewFakeCredentialsRepo())
	require.Error(t, store.Login("garbage", testUsername, session.RoleGuest))
	require.False(t, store.Authenticated())
}

func TestLogoutThenRestoreIsInactive(t *testing.T) {
	repo := repofake.NewFakeCredentialsRepo()
	store := newStore(t, repo)
	require.NoError(t, store.Login(signedToken(t, testNow.Add(time.Hour)), testUsername, session.RoleAdmin))

	store.Logout()
	store.Logout() // idempotent

	require.False(t, store.Authenticated())
	require.Nil(t, repo.Stored())

	fresh := newStore(t, repo)
	require.False(t, fresh.Restore())
	require.False(t, fresh.Authenticated())
}

func TestCurrentExpiresBetweenCalls(t *testing.T) {
	repo := repofake.NewFakeCredentialsRepo()
	now := testNow
	store, err := session.NewStore(repo, session.WithNowTime(func() time.Time { return now }))
	require.NoError(t, err)
	require.NoError(t, store.Login(signedToken(t, testNow.Add(time.Minute)), testUsername, session.RoleAdmin))
	require.True(t, store.Authenticated())

	now = testNow.Add(2 * time.Minute)
	_, err = store.Current()
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}
