package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"taskchat/internal/types"
)

// HistoryKey is the single fixed identifier every backend stores the chat
// history under.
const HistoryKey = "mobile_use_history"

const (
	BackendFile   = "file"
	BackendBbolt  = "bbolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var (
	// ErrNoHistory is returned by Load when nothing has been stored yet.
	ErrNoHistory = errors.New("no stored history")
	// ErrCorruptHistory wraps decode failures of stored history.
	ErrCorruptHistory = errors.New("stored history is unreadable")
)

// HistoryStore persists the whole chat history as one record.
type HistoryStore interface {
	Load(ctx context.Context) ([]types.Message, error)
	Save(ctx context.Context, history []types.Message) error
	Clear(ctx context.Context) error
	Backend() string
	Close() error
}

// OpenHistoryStore opens the backend named by backend at path. The memory
// backend ignores path.
func OpenHistoryStore(backend, path string) (HistoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		if strings.TrimSpace(path) == "" {
			return nil, errors.New("history file path is required")
		}
		return NewFileHistoryStore(path), nil
	case BackendBbolt:
		return NewBboltHistoryStore(path)
	case BackendSQLite:
		return NewSQLiteHistoryStore(path)
	case BackendMemory:
		return NewMemoryHistoryStore(), nil
	default:
		return nil, errors.New("unsupported history backend: " + backend)
	}
}

func encodeHistory(history []types.Message) ([]byte, error) {
	if history == nil {
		history = []types.Message{}
	}
	return json.Marshal(history)
}

func decodeHistory(data []byte) ([]types.Message, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrCorruptHistory)
	}
	var history []types.Message
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptHistory, err)
	}
	if history == nil {
		return nil, fmt.Errorf("%w: null record", ErrCorruptHistory)
	}
	return types.NormalizeMessages(history), nil
}
