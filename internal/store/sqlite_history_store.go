package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"taskchat/internal/types"
)

type SQLiteHistoryStore struct {
	db *sql.DB
}

func NewSQLiteHistoryStore(path string) (*SQLiteHistoryStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteHistoryStore{db: db}, nil
}

func (s *SQLiteHistoryStore) Load(ctx context.Context) ([]types.Message, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, HistoryKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return decodeHistory([]byte(value))
}

func (s *SQLiteHistoryStore) Save(ctx context.Context, history []types.Message) error {
	data, err := encodeHistory(history)
	if err != nil {
		return err
	}
	const query = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, strftime('%s','now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, HistoryKey, string(data)); err != nil {
		return fmt.Errorf("upsert history: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, HistoryKey); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) Backend() string {
	return BackendSQLite
}

func (s *SQLiteHistoryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
