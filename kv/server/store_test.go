package server

import (
	"bytes"
	"testing"
	"time"
)

func TestMemStore(t *testing.T) {
	t.Run("set and get", func(t *testing.T) {
		s := newMemStore()
		s.Set([]byte("key"), []byte("value"), 0)

		value, ok := s.Get([]byte("key"))
		if !ok {
			t.Fatal("key not found after Set")
		}
		if !bytes.Equal(value, []byte("value")) {
			t.Errorf("value = %q, want %q", value, "value")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		s := newMemStore()
		if _, ok := s.Get([]byte("nope")); ok {
			t.Error("Get reported a value for a missing key")
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newMemStore()
		s.Set([]byte("key"), []byte("old"), 0)
		s.Set([]byte("key"), []byte("new"), 0)

		value, _ := s.Get([]byte("key"))
		if !bytes.Equal(value, []byte("new")) {
			t.Errorf("value = %q, want %q", value, "new")
		}
		if s.Size() != 1 {
			t.Errorf("size = %d, want 1", s.Size())
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newMemStore()
		s.Set([]byte("key"), []byte("value"), 0)
		s.Delete([]byte("key"))

		if _, ok := s.Get([]byte("key")); ok {
			t.Error("key still present after Delete")
		}
	})

	t.Run("stored value is a copy", func(t *testing.T) {
		s := newMemStore()
		value := []byte("value")
		s.Set([]byte("key"), value, 0)
		value[0] = 'X'

		got, _ := s.Get([]byte("key"))
		if !bytes.Equal(got, []byte("value")) {
			t.Errorf("stored value aliased the caller's buffer: %q", got)
		}
	})

	t.Run("binary keys", func(t *testing.T) {
		s := newMemStore()
		key := []byte{0x00, 0xff, 0x00}
		s.Set(key, []byte("v"), 0)

		if _, ok := s.Get(key); !ok {
			t.Error("binary key not found")
		}
	})
}

func TestMemStoreTTL(t *testing.T) {
	t.Run("expired entry is absent", func(t *testing.T) {
		s := newMemStore()
		s.Set([]byte("key"), []byte("value"), 1)

		if _, ok := s.Get([]byte("key")); !ok {
			t.Fatal("entry expired before its ttl")
		}

		time.Sleep(1100 * time.Millisecond)

		if _, ok := s.Get([]byte("key")); ok {
			t.Error("entry still live after ttl")
		}
		// Lazy expiry removed it
		if s.Size() != 0 {
			t.Errorf("size = %d after expired read, want 0", s.Size())
		}
	})

	t.Run("sweep drops expired entries", func(t *testing.T) {
		s := newMemStore()
		s.Set([]byte("short"), []byte("v"), 1)
		s.Set([]byte("long"), []byte("v"), 3600)
		s.Set([]byte("forever"), []byte("v"), 0)

		dropped := s.sweep(time.Now().Add(2 * time.Second))
		if dropped != 1 {
			t.Errorf("sweep dropped %d entries, want 1", dropped)
		}
		if s.Size() != 2 {
			t.Errorf("size = %d after sweep, want 2", s.Size())
		}
	})
}
