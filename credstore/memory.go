package credstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store with serial integer ids. Suitable for
// tests and single-process deployments; everything else should use a
// transactional backend.
type MemoryStore struct {
	mu        sync.Mutex
	accounts  map[int64]*Account
	usernames map[string]int64
	nextID    int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  make(map[int64]*Account),
		usernames: make(map[string]int64),
		nextID:    1,
	}
}

// Lookup returns the account with the given username, or ErrAccountNotFound.
func (s *MemoryStore) Lookup(ctx context.Context, username string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return s.accounts[id].Clone(), nil
}

// Get returns the account with the given id, or ErrAccountNotFound.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct.Clone(), nil
}

// Create allocates the next id and stores a new account with all optional
// factors unset. Returns ErrDuplicateUsername when the username is taken.
func (s *MemoryStore) Create(ctx context.Context, username, passwordHash string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernames[username]; ok {
		return nil, ErrDuplicateUsername
	}

	acct := &Account{
		ID:           s.nextID,
		Username:     username,
		PasswordHash: passwordHash,
	}
	s.nextID++
	s.accounts[acct.ID] = acct
	s.usernames[username] = acct.ID

	return acct.Clone(), nil
}

// Update applies mutate to a copy of the record and swaps it in under the
// store lock, so updates of the same id are serialized.
func (s *MemoryStore) Update(ctx context.Context, id int64, mutate func(*Account) error) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	// id and username are immutable regardless of what mutate did.
	next.ID = current.ID
	next.Username = current.Username
	s.accounts[id] = next

	return next.Clone(), nil
}
