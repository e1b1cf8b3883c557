package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/expertpos/expert-pos/internal/rbac"
)

func TestResolveIdentityReturnsFreshGrants(t *testing.T) {
	store := newMemoryStore()
	user := store.addUser("kasir", true, rbac.RoleCashier)
	mgr := newTestManager(store)
	ctx := context.Background()

	session, token, _, err := mgr.CreateSession(ctx, user.ID, SessionMetadata{UserAgent: "pos/1", IPAddress: "203.0.113.7"})
	require.NoError(t, err)
	require.True(t, store.session(session.ID).IsOpen())
	require.Equal(t, "203.0.113.7", store.session(session.ID).IPAddress)

	identity, err := mgr.ResolveIdentity(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, identity)
	require.Equal(t, user.ID, identity.ID)
	require.Equal(t, []string{rbac.RoleCashier}, identity.Roles)
	require.True(t, identity.Permissions.Has(rbac.PermCreateSale))
	require.False(t, identity.Permissions.Has(rbac.PermDeleteSale))

	store.mu.Lock()
	store.roles[user.ID] = []string{rbac.RoleNormalUser}
	store.mu.Unlock()

	identity, err = mgr.ResolveIdentity(ctx, token)
	require.NoError(t, err)
	require.True(t, identity.Permissions.Has(rbac.PermCreatePurchase))
}

func TestResolveIdentityRejectsClosedSession(t *testing.T) {
	store := newMemoryStore()
	user := store.addUser("kasir", true, rbac.RoleCashier)
	mgr := newTestManager(store)
	ctx := context.Background()

	session, token, _, err := mgr.CreateSession(ctx, user.ID, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, mgr.CloseSession(ctx, session.ID))
	closedAt := *store.session(session.ID).LoggedOutAt
	require.NoError(t, mgr.CloseSession(ctx, session.ID))
	require.Equal(t, closedAt, *store.session(session.ID).LoggedOutAt, "closing twice keeps the first logout time")
	require.NoError(t, mgr.CloseSession(ctx, uuid.New()))

	identity, err := mgr.ResolveIdentity(ctx, token)
	require.NoError(t, err)
	require.Nil(t, identity)
}

func TestResolveIdentityClosesSessionOfInactiveUser(t *testing.T) {
	store := newMemoryStore()
	user := store.addUser("kasir", true, rbac.RoleCashier)
	mgr := newTestManager(store)
	ctx := context.Background()

	session, token, _, err := mgr.CreateSession(ctx, user.ID, SessionMetadata{})
	require.NoError(t, err)

	store.mu.Lock()
	store.users[user.ID].IsActive = false
	store.mu.Unlock()

	identity, err := mgr.ResolveIdentity(ctx, token)
	require.NoError(t, err)
	require.Nil(t, identity)
	require.False(t, store.session(session.ID).IsOpen())

	store.mu.Lock()
	store.users[user.ID].IsActive = true
	store.mu.Unlock()

	identity, err = mgr.ResolveIdentity(ctx, token)
	require.NoError(t, err)
	require.Nil(t, identity, "reactivation does not reopen a closed session")
}

func TestResolveIdentityInvalidCredentials(t *testing.T) {
	store := newMemoryStore()
	mgr := newTestManager(store)
	ctx := context.Background()

	for _, token := range []string{"", "not-a-token"} {
		identity, err := mgr.ResolveIdentity(ctx, token)
		require.NoError(t, err)
		require.Nil(t, identity)
	}

	orphan, _, err := mgr.codec.Issue(TokenPayload{SessionID: uuid.New(), UserID: uuid.New()})
	require.NoError(t, err)
	identity, err := mgr.ResolveIdentity(ctx, orphan)
	require.NoError(t, err)
	require.Nil(t, identity)
}

func TestResolveIdentityPropagatesStoreFailure(t *testing.T) {
	store := newMemoryStore()
	user := store.addUser("kasir", true, rbac.RoleCashier)
	mgr := newTestManager(store)
	ctx := context.Background()

	_, token, _, err := mgr.CreateSession(ctx, user.ID, SessionMetadata{})
	require.NoError(t, err)
	store.failWith = errors.New("connection refused")

	identity, err := mgr.ResolveIdentity(ctx, token)
	require.Error(t, err)
	require.Nil(t, identity)
}

func TestCloseCurrentSession(t *testing.T) {
	store := newMemoryStore()
	user := store.addUser("kasir", true, rbac.RoleCashier)
	mgr := newTestManager(store)
	ctx := context.Background()

	session, token, _, err := mgr.CreateSession(ctx, user.ID, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, mgr.CloseCurrentSession(ctx, ""))
	require.NoError(t, mgr.CloseCurrentSession(ctx, "bogus"))
	require.True(t, store.session(session.ID).IsOpen())

	require.NoError(t, mgr.CloseCurrentSession(ctx, token))
	require.False(t, store.session(session.ID).IsOpen())
}
