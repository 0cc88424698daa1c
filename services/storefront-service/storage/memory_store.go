package storage

import (
	"context"
	"sync"
)

// MemoryKV keeps values in process memory
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MemorySet hands out one MemoryKV per user for the life of the process, so
// local state survives the user's workspace being closed and rebuilt.
type MemorySet struct {
	mu    sync.Mutex
	users map[string]*MemoryKV
}

func NewMemorySet() *MemorySet {
	return &MemorySet{users: make(map[string]*MemoryKV)}
}

// For returns userID's store, creating it on first use
func (s *MemorySet) For(userID string) *MemoryKV {
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, ok := s.users[userID]
	if !ok {
		kv = NewMemoryKV()
		s.users[userID] = kv
	}
	return kv
}
