package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

type memoryStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*User
	sessions map[uuid.UUID]*Session
	roles    map[uuid.UUID][]string
	grants   map[string][]string
	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:    map[uuid.UUID]*User{},
		sessions: map[uuid.UUID]*Session{},
		roles:    map[uuid.UUID][]string{},
		grants: map[string][]string{
			rbac.RoleSuperUser: {},
			rbac.RoleCashier:   {rbac.PermViewProducts, rbac.PermCreateSale, rbac.PermViewSales},
			rbac.RoleNormalUser: {
				rbac.PermViewProducts, rbac.PermCreateSale, rbac.PermViewSales, rbac.PermCreatePurchase, rbac.PermViewPurchases,
			},
		},
	}
}

func (m *memoryStore) addUser(username string, active bool, roles ...string) *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &User{ID: uuid.New(), Username: username, DisplayName: username, IsActive: active}
	m.users[u.ID] = u
	m.roles[u.ID] = roles
	return u
}

func (m *memoryStore) FindByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: user", shared.ErrNotFound)
}

func (m *memoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user", shared.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (m *memoryStore) CreateSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &s
	return nil
}

func (m *memoryStore) GetSession(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session", shared.ErrNotFound)
	}
	copied := *s
	return &copied, nil
}

func (m *memoryStore) CloseSession(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.LoggedOutAt == nil {
		s.LoggedOutAt = &at
	}
	return nil
}

func (m *memoryStore) Grants(_ context.Context, userID uuid.UUID) ([]string, rbac.PermissionSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roles := append([]string(nil), m.roles[userID]...)
	var codes []string
	for _, role := range roles {
		codes = append(codes, m.grants[role]...)
	}
	return roles, rbac.NewPermissionSet(codes...), nil
}

func (m *memoryStore) session(id uuid.UUID) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.sessions[id]
}

func newTestManager(store *memoryStore) *Manager {
	codec, err := NewCodec("test-signing-key")
	if err != nil {
		panic(err)
	}
	return NewManager(store, store, codec, nil)
}
