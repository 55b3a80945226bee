package service

import (
	"context"
	"sync"
	"time"

	"github.com/sumire/accounts/internal/domain"
)

// memStore is an in-memory UserStore with the same atomicity guarantees as
// the Postgres repository.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*domain.User
	writes  int
	findErr error

	// vanish makes the next n FindByEmail calls miss, as if the row was
	// deleted concurrently.
	vanish int
}

func newMemStore() *memStore {
	return &memStore{byID: map[int64]*domain.User{}}
}

func (m *memStore) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.vanish > 0 {
		m.vanish--
		return nil, domain.ErrNotFound
	}
	if u := m.lookup(email); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) Create(_ context.Context, user domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookup(user.Email) != nil {
		return nil, domain.ErrConflict
	}
	return m.insert(user), nil
}

func (m *memStore) InsertIfAbsent(_ context.Context, user domain.User) (*domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookup(user.Email) != nil {
		return nil, false, nil
	}
	return m.insert(user), true, nil
}

func (m *memStore) AttachProviderID(_ context.Context, id int64, p domain.Provider, providerID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if u.ProviderID(p) == "" {
		*u = u.WithProviderID(p, providerID)
		m.writes++
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdateProfile(_ context.Context, id int64, up domain.ProfileUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if up.DisplayName != nil {
		u.DisplayName = *up.DisplayName
	}
	if up.FirstName != nil {
		u.FirstName = *up.FirstName
	}
	if up.LastName != nil {
		u.LastName = *up.LastName
	}
	if up.Bio != nil {
		u.Bio = *up.Bio
	}
	m.writes++
	cp := *u
	return &cp, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memStore) lookup(email string) *domain.User {
	for _, u := range m.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (m *memStore) insert(user domain.User) *domain.User {
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = &user
	m.writes++
	cp := user
	return &cp
}

type memBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	addErr  error
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{entries: map[string]time.Time{}}
}

func (b *memBlacklist) Add(_ context.Context, jti string, _ int64, exp time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.addErr != nil {
		return false, b.addErr
	}
	if _, ok := b.entries[jti]; ok {
		return false, nil
	}
	b.entries[jti] = exp
	return true, nil
}

func (b *memBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[jti]
	return ok, nil
}

func (b *memBlacklist) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for jti, exp := range b.entries {
		if exp.Before(now) {
			delete(b.entries, jti)
			n++
		}
	}
	return n, nil
}

type stubVerifier struct {
	identity *domain.ExternalIdentity
	err      error
}

func (s stubVerifier) Verify(context.Context, string) (*domain.ExternalIdentity, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.identity
	return &cp, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingMailer) SendWelcome(_ context.Context, email, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, email)
	return nil
}

func (r *recordingMailer) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}
