// Package memory provides an in-process credential store for tests and
// ephemeral console runs (`--store memory`).
package memory

import (
	"sync"

	"github.com/josearnulfoborja/inventarioplus-console/internal/console/credstore"
)

type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ credstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[credstore.KeyToken]
	if !ok {
		return "", credstore.ErrNotFound
	}
	return string(v), nil
}

func (s *Store) Profile() (*credstore.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[credstore.KeyProfile]
	if !ok {
		return nil, credstore.ErrNotFound
	}
	return credstore.DecodeProfile(v)
}

func (s *Store) Set(token string, profile *credstore.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[credstore.KeyToken] = []byte(token)
	if profile == nil {
		// No stale snapshot may outlive the session it belonged to.
		delete(s.values, credstore.KeyProfile)
		return nil
	}

	data, err := credstore.EncodeProfile(profile)
	if err != nil {
		return err
	}
	s.values[credstore.KeyProfile] = data
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, credstore.KeyToken)
	delete(s.values, credstore.KeyProfile)
	return nil
}

func (s *Store) Close() error { return nil }
