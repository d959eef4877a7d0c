// Package session holds the in-memory table of authenticated browser
// sessions. A record lives from a successful login until logout or process
// exit; there is no expiry.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Record is everything needed to rebuild an authenticated JMAP client for a
// request without re-running discovery.
type Record struct {
	Username    string
	Password    string
	APIURL      string
	AccountID   string
	DownloadURL string
}

// Store maps opaque session tokens to records. Lookups take a shared lock so
// concurrent requests do not serialize; Create and Remove take the exclusive
// lock.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewStore returns an empty store. One instance is created at startup and
// passed into the handlers; its lifetime is the server's.
func NewStore() *Store {
	return &Store{records: make(map[string]Record)}
}

// Create inserts the record under a fresh token and returns the token.
func (s *Store) Create(rec Record) string {
	token := newToken()
	s.mu.Lock()
	s.records[token] = rec
	s.mu.Unlock()
	return token
}

// newToken mints a UUIDv7: coarsely time-ordered, otherwise random.
func newToken() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source does; fall back to v4.
		id = uuid.New()
	}
	return id.String()
}

// Get looks the token up under the read lock and applies project to a copy of
// the record. Callers get the projection by value and never a reference into
// the store.
func Get[R any](s *Store, token string, project func(Record) R) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[token]
	if !ok {
		var zero R
		return zero, false
	}
	return project(rec), true
}

// Remove deletes the token and returns the record it held.
func (s *Store) Remove(token string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[token]
	if ok {
		delete(s.records, token)
	}
	return rec, ok
}

// Exists reports whether the token is present.
func (s *Store) Exists(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[token]
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
