package store

import (
	"context"
	"sync"

	"taskchat/internal/types"
)

// MemoryHistoryStore keeps the encoded record in process, so it exercises
// the same encode/decode path as the durable backends.
type MemoryHistoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{}
}

func (s *MemoryHistoryStore) Load(ctx context.Context) ([]types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrNoHistory
	}
	return decodeHistory(s.data)
}

func (s *MemoryHistoryStore) Save(ctx context.Context, history []types.Message) error {
	data, err := encodeHistory(history)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

func (s *MemoryHistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

// SetRaw replaces the stored record verbatim.
func (s *MemoryHistoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
}

func (s *MemoryHistoryStore) Backend() string {
	return BackendMemory
}

func (s *MemoryHistoryStore) Close() error {
	return nil
}
