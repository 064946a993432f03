package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"geo-elevate/internal/domain"
	"geo-elevate/internal/infra/memory"
	"github.com/stretchr/testify/require"
)

func storeCredentials(t *testing.T, store KVStore, token string, user domain.User) {
	t.Helper()
	raw, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), tokenKey, token))
	require.NoError(t, store.Set(context.Background(), userKey, string(raw)))
}

func TestHydrateRestoresValidSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	user := domain.User{ID: 4, Username: "ann"}
	storeCredentials(t, store, signedToken(time.Now().Add(time.Hour)), user)

	api := &fakeAuthAPI{current: domain.User{ID: 4, Username: "ann", Email: "ann@example.com"}}
	session := NewAuthSession(api, store)
	require.NoError(t, session.Hydrate(ctx))

	require.Equal(t, domain.AuthAuthenticated, session.Status())
	got, ok := session.User()
	require.True(t, ok)
	require.Equal(t, "ann@example.com", got.Email)
}

func TestHydratePersistsRefreshedUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	storeCredentials(t, store, signedToken(time.Now().Add(time.Hour)), domain.User{ID: 4, Username: "ann", Email: "old@example.com"})

	api := &fakeAuthAPI{current: domain.User{ID: 4, Username: "ann", Email: "new@example.com"}}
	require.NoError(t, NewAuthSession(api, store).Hydrate(ctx))

	raw, err := store.Get(ctx, userKey)
	require.NoError(t, err)
	var stored domain.User
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Equal(t, "new@example.com", stored.Email)

	// A later start without the service still sees the refreshed identity.
	offline := NewAuthSession(&fakeAuthAPI{currentErr: domain.ErrNetwork}, store)
	require.NoError(t, offline.Hydrate(ctx))
	got, ok := offline.User()
	require.True(t, ok)
	require.Equal(t, "new@example.com", got.Email)
}

func TestHydrateClearsExpiredAndRejectedTokens(t *testing.T) {
	ctx := context.Background()
	user := domain.User{ID: 4, Username: "ann"}

	expired := memory.NewKVStore()
	storeCredentials(t, expired, signedToken(time.Now().Add(-time.Minute)), user)
	api := &fakeAuthAPI{}
	session := NewAuthSession(api, expired)
	require.NoError(t, session.Hydrate(ctx))
	require.Equal(t, domain.AuthAnonymous, session.Status())
	require.Equal(t, 0, api.meCalls, "expired token must not be sent")
	_, err := expired.Get(ctx, tokenKey)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	rejected := memory.NewKVStore()
	storeCredentials(t, rejected, signedToken(time.Now().Add(time.Hour)), user)
	session = NewAuthSession(&fakeAuthAPI{currentErr: domain.ErrUnauthorized}, rejected)
	require.NoError(t, session.Hydrate(ctx))
	require.Equal(t, domain.AuthAnonymous, session.Status())
}

func TestHydrateKeepsIdentityWhenServiceUnreachable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	storeCredentials(t, store, "opaque-token", domain.User{ID: 1, Username: "bob"})

	session := NewAuthSession(&fakeAuthAPI{currentErr: domain.ErrNetwork}, store)
	require.NoError(t, session.Hydrate(ctx))
	require.True(t, session.Authenticated())
	require.Equal(t, "opaque-token", session.Token())
}

func TestGuestFlagWinsOnHydrate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	session := NewAuthSession(&fakeAuthAPI{}, store)
	require.NoError(t, session.ContinueAsGuest(ctx))

	restored := NewAuthSession(&fakeAuthAPI{}, store)
	require.NoError(t, restored.Hydrate(ctx))
	require.Equal(t, domain.AuthGuest, restored.Status())
	require.False(t, restored.Authenticated())
}

func TestLoginPersistsAndLogoutClears(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	api := &fakeAuthAPI{loginResp: domain.AuthResponse{AccessToken: "tok", TokenType: "bearer", User: domain.User{ID: 9, Username: "ann"}}}
	session := NewAuthSession(api, store)
	require.NoError(t, session.ContinueAsGuest(ctx))

	before := session.Epoch()
	user, err := session.Login(ctx, " ann ", "secret1")
	require.NoError(t, err)
	require.Equal(t, 9, user.ID)
	require.True(t, session.Authenticated())
	require.Greater(t, session.Epoch(), before)

	token, err := store.Get(ctx, tokenKey)
	require.NoError(t, err)
	require.Equal(t, "tok", token)
	_, err = store.Get(ctx, guestKey)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, session.Logout(ctx))
	require.Equal(t, domain.AuthAnonymous, session.Status())
	_, err = store.Get(ctx, userKey)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestSignupValidatesInput(t *testing.T) {
	session := NewAuthSession(&fakeAuthAPI{}, memory.NewKVStore())

	_, err := session.Signup(context.Background(), "ab", "not-an-email", "123")
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Contains(t, err.Error(), "username must be at least 3 characters")
	require.Contains(t, err.Error(), "email must be a valid email address")
	require.Contains(t, err.Error(), "password must be at least 6 characters")
	require.Equal(t, domain.AuthAnonymous, session.Status())
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	session := NewAuthSession(&fakeAuthAPI{loginErr: domain.ErrUnauthorized}, memory.NewKVStore())
	_, err := session.Login(context.Background(), "ann", "wrong")
	require.True(t, errors.Is(err, domain.ErrUnauthorized))
	require.Equal(t, domain.AuthAnonymous, session.Status())
}

func TestInvalidateDropsToken(t *testing.T) {
	ctx := context.Background()
	api := &fakeAuthAPI{loginResp: domain.AuthResponse{AccessToken: "tok", User: domain.User{ID: 1, Username: "ann"}}}
	session := NewAuthSession(api, memory.NewKVStore())
	_, err := session.Login(ctx, "ann", "secret1")
	require.NoError(t, err)

	session.Invalidate()
	require.False(t, session.Authenticated())
	require.Empty(t, session.Token())
}
