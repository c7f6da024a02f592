// Package memory is an in-process [authcore.CredentialStore] for tests,
// examples and the load generator.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/MrEthical07/authcore"
	"github.com/google/uuid"
)

// ErrUsernameTaken is returned by [Store.Add] for a duplicate username.
var ErrUsernameTaken = errors.New("username already taken")

// Store keeps credential records in memory. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	byID       map[string]authcore.UserRecord
	byUsername map[string]string
}

var _ authcore.CredentialStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		byID:       make(map[string]authcore.UserRecord),
		byUsername: make(map[string]string),
	}
}

// Add inserts a record under a fresh UUID and returns it.
func (s *Store) Add(username, passwordHash, salt string) (authcore.UserRecord, error) {
	if strings.TrimSpace(username) == "" {
		return authcore.UserRecord{}, errors.New("username required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[username]; ok {
		return authcore.UserRecord{}, ErrUsernameTaken
	}

	rec := authcore.UserRecord{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		Salt:         salt,
	}
	s.byID[rec.ID] = rec
	s.byUsername[username] = rec.ID
	return rec, nil
}

// Remove deletes the record with id. Missing ids are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	delete(s.byUsername, rec.Username)
}

// FindByUsername implements [authcore.CredentialStore].
func (s *Store) FindByUsername(_ context.Context, username string) (authcore.UserRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return authcore.UserRecord{}, false, nil
	}
	return s.byID[id], true, nil
}

// FindByID implements [authcore.CredentialStore].
func (s *Store) FindByID(_ context.Context, id string) (authcore.UserRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	return rec, ok, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
