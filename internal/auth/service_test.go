package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

func newLoginService(t *testing.T, store *memoryStore) (*Service, *Hasher) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hasher := &Hasher{cost: bcrypt.MinCost}
	return NewService(store, hasher, newTestManager(store), NewThrottle(client, 2, time.Minute), nil), hasher
}

func setPassword(t *testing.T, store *memoryStore, hasher *Hasher, user *User, password string) {
	t.Helper()
	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	store.mu.Lock()
	store.users[user.ID].PasswordHash = hash
	store.mu.Unlock()
}

func TestLoginOpensSession(t *testing.T) {
	store := newMemoryStore()
	svc, hasher := newLoginService(t, store)
	user := store.addUser("kasir", true, rbac.RoleCashier)
	setPassword(t, store, hasher, user, "rahasia123")

	result, err := svc.Login(context.Background(), LoginInput{Username: "  KASIR ", Password: "rahasia123"}, SessionMetadata{UserAgent: "pos/1", IPAddress: "10.0.0.5"})
	require.NoError(t, err)
	require.Equal(t, user.ID, result.Identity.ID)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "pos/1", store.session(result.Session.ID).UserAgent)
	require.True(t, store.session(result.Session.ID).IsOpen())

	require.NoError(t, svc.Logout(context.Background(), result.Token))
	require.False(t, store.session(result.Session.ID).IsOpen())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newMemoryStore()
	svc, hasher := newLoginService(t, store)
	active := store.addUser("kasir", true, rbac.RoleCashier)
	setPassword(t, store, hasher, active, "rahasia123")
	inactive := store.addUser("mantan", false, rbac.RoleCashier)
	setPassword(t, store, hasher, inactive, "rahasia123")
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginInput{Username: "kasir", Password: "salah-sekali"}, SessionMetadata{})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Username: "mantan", Password: "rahasia123"}, SessionMetadata{})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "rahasia123"}, SessionMetadata{})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Username: "ab", Password: "rahasia123"}, SessionMetadata{})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Login(ctx, LoginInput{Username: "kasir", Password: "12345"}, SessionMetadata{})
	require.ErrorIs(t, err, shared.ErrValidation)

	require.Empty(t, store.sessions)
}

func TestLoginThrottled(t *testing.T) {
	store := newMemoryStore()
	svc, hasher := newLoginService(t, store)
	user := store.addUser("kasir", true, rbac.RoleCashier)
	setPassword(t, store, hasher, user, "rahasia123")
	ctx := context.Background()
	results := &loginResults{}
	svc.SetLoginRecorder(results)

	for i := 0; i < 2; i++ {
		_, err := svc.Login(ctx, LoginInput{Username: "kasir", Password: "salah-sekali"}, SessionMetadata{})
		require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	}
	_, err := svc.Login(ctx, LoginInput{Username: "kasir", Password: "rahasia123"}, SessionMetadata{})
	require.ErrorIs(t, err, shared.ErrThrottled)
	require.Equal(t, []string{LoginRejected, LoginRejected, LoginThrottled}, results.seen)
}

type loginResults struct {
	seen []string
}

func (r *loginResults) ObserveLogin(result string) {
	r.seen = append(r.seen, result)
}
