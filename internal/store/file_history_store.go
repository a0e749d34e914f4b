package store

import (
	"context"
	"errors"
	"os"
	"sync"

	"taskchat/internal/types"
)

type FileHistoryStore struct {
	path string
	mu   sync.Mutex
}

func NewFileHistoryStore(path string) *FileHistoryStore {
	return &FileHistoryStore{path: path}
}

func (s *FileHistoryStore) Load(ctx context.Context) ([]types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoHistory
		}
		return nil, err
	}
	return decodeHistory(data)
}

func (s *FileHistoryStore) Save(ctx context.Context, history []types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeHistory(history)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

func (s *FileHistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileHistoryStore) Backend() string {
	return BackendFile
}

func (s *FileHistoryStore) Close() error {
	return nil
}
