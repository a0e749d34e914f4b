package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"taskchat/internal/types"
)

var (
	bucketHistory = []byte("history")
	keyHistory    = []byte(HistoryKey)
)

type BboltHistoryStore struct {
	db *bolt.DB
}

func NewBboltHistoryStore(path string) (*BboltHistoryStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketHistory)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BboltHistoryStore{db: db}, nil
}

func (s *BboltHistoryStore) Load(ctx context.Context) ([]types.Message, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		if b == nil {
			return nil
		}
		if raw := b.Get(keyHistory); raw != nil {
			data = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNoHistory
	}
	return decodeHistory(data)
}

func (s *BboltHistoryStore) Save(ctx context.Context, history []types.Message) error {
	data, err := encodeHistory(history)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketHistory)
		if err != nil {
			return err
		}
		return b.Put(keyHistory, data)
	})
}

func (s *BboltHistoryStore) Clear(ctx context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		if b == nil {
			return nil
		}
		return b.Delete(keyHistory)
	})
}

func (s *BboltHistoryStore) Backend() string {
	return BackendBbolt
}

func (s *BboltHistoryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
