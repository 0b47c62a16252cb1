package server

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// entry is one stored value with an optional expiry deadline
type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// memStore is the in-memory store backing a single shard. Expired entries
// are dropped lazily on read and collected by the server's janitor sweep.
type memStore struct {
	items *xsync.MapOf[string, entry]
}

func newMemStore() *memStore {
	return &memStore{
		items: xsync.NewMapOf[string, entry](),
	}
}

// Set inserts or replaces the value for key. A ttl of 0 means no expiry.
func (s *memStore) Set(key, value []byte, ttl uint32) {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(time.Duration(ttl) * time.Second)
	}
	s.items.Store(string(key), e)
}

// Get returns the value for key. The boolean reports whether a live value
// was found; an expired entry counts as absent and is removed.
func (s *memStore) Get(key []byte) ([]byte, bool) {
	e, ok := s.items.Load(string(key))
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.items.Delete(string(key))
		return nil, false
	}
	return e.value, true
}

// Delete removes the value for key.
func (s *memStore) Delete(key []byte) {
	s.items.Delete(string(key))
}

// Size returns the number of entries, expired ones included.
func (s *memStore) Size() int {
	return s.items.Size()
}

// sweep removes entries that expired before now and returns how many it
// dropped.
func (s *memStore) sweep(now time.Time) int {
	dropped := 0
	s.items.Range(func(key string, e entry) bool {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			s.items.Delete(key)
			dropped++
		}
		return true
	})
	return dropped
}
