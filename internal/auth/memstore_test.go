package auth

import (
	"context"
	"sync"
	"time"
)

// memStore is an in-memory Store with the same quota semantics as Repository.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	sessions map[string]Session
	calls    int
	err      error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string]Account),
		sessions: make(map[string]Session),
	}
}

func (m *memStore) GetAccount(_ context.Context, username string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Account{}, m.err
	}
	account, ok := m.accounts[username]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (m *memStore) CreateAccount(_ context.Context, account Account, session Session, maxAccounts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.accounts) >= maxAccounts {
		return ErrAccountQuota
	}
	if _, ok := m.accounts[account.Username]; ok {
		return ErrAccountExists
	}
	m.accounts[account.Username] = account
	m.sessions[session.Token] = session
	return nil
}

func (m *memStore) CreateSession(_ context.Context, session Session, limit int, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if _, ok := m.accounts[session.Username]; !ok {
		return ErrAccountNotFound
	}
	live := 0
	for _, s := range m.sessions {
		if s.Username == session.Username && s.Expire.After(now) {
			live++
		}
	}
	if live >= limit {
		return ErrSessionQuota
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *memStore) GetSession(_ context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Session{}, m.err
	}
	session, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (m *memStore) RenewSession(_ context.Context, token string, expire time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	session, ok := m.sessions[token]
	if !ok {
		return nil
	}
	if expire.After(session.Expire) {
		session.Expire = expire
		m.sessions[token] = session
	}
	return nil
}

func (m *memStore) PurgeExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	var purged int64
	for token, s := range m.sessions {
		if !s.Expire.After(now) {
			delete(m.sessions, token)
			purged++
		}
	}
	return purged, nil
}

func (m *memStore) sessionsOf(username string) []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.Username == username {
			out = append(out, s)
		}
	}
	return out
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
