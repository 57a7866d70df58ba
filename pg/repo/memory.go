package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"amazobank.com/crm/pg/model"
)

// MemoryDB is a UserStore kept in process memory. It backs the API when no
// DATABASE_URL is configured and the service tests.
type MemoryDB struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{users: make(map[string]*model.User)}
}

func (m *MemoryDB) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; ok {
		return model.ErrUserExists
	}
	if m.emailInUse(u.Email, "") {
		return model.ErrEmailTaken
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func (m *MemoryDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryDB) ListUsers(ctx context.Context, opts model.ListOptions) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		if !opts.IncludeDisabled && !u.Active() {
			continue
		}
		if opts.Role != "" && u.Role != opts.Role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryDB) UpdateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; !ok {
		return model.ErrUserNotFound
	}
	if m.emailInUse(u.Email, u.ID) {
		return model.ErrEmailTaken
	}
	u.UpdatedAt = time.Now().UTC()
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

// emailInUse must be called with mu held.
func (m *MemoryDB) emailInUse(email, exceptID string) bool {
	for id, u := range m.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
