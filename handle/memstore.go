package handle

import (
	"fmt"
	"sync"
)

// MemStore is an in-memory Store. Entries are append-only: a key, once
// written, is never removed or rewritten, so concurrent runs may share one
// MemStore without coordination beyond its internal lock.
type MemStore struct {
	mu      sync.RWMutex
	blobs   map[string]string
	handles map[string]Handle
	ceiling int
}

// NewMemStore creates an empty MemStore with the default window ceiling.
func NewMemStore() *MemStore {
	return &MemStore{
		blobs:   make(map[string]string),
		handles: make(map[string]Handle),
		ceiling: DefaultWindowCeiling,
	}
}

// SetWindowCeiling overrides the per-call read ceiling. Values <= 0 keep
// the default. Must be called before the store is shared.
func (s *MemStore) SetWindowCeiling(n int) {
	if n > 0 {
		s.ceiling = n
	}
}

// Put implements Store.
func (s *MemStore) Put(text, kind string) (Handle, error) {
	key := KeyFor(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.handles[key]; ok {
		return h, nil
	}
	h := Handle{
		Key:     key,
		Kind:    kind,
		Size:    len(text),
		Preview: preview(text),
	}
	s.blobs[key] = text
	s.handles[key] = h
	return h, nil
}

// Stats implements Store.
func (s *MemStore) Stats(key string) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[key]
	if !ok {
		return Stats{}, fmt.Errorf("%w: %s", ErrUnknownHandle, key)
	}
	return Stats{
		Key:       h.Key,
		Kind:      h.Kind,
		Size:      h.Size,
		LineCount: lineCount(s.blobs[key]),
		Preview:   h.Preview,
	}, nil
}

// ReadWindow implements Store.
func (s *MemStore) ReadWindow(key string, start, size int) (Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.blobs[key]
	if !ok {
		return Window{}, fmt.Errorf("%w: %s", ErrUnknownHandle, key)
	}
	return clampWindow(key, text, start, size, s.ceiling), nil
}

// Len returns the number of stored blobs.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
