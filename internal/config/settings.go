package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultServerHost       = "127.0.0.1"
	defaultServerPort       = "8086"
	defaultInitialBackoffMS = 500
	defaultMaxBackoffMS     = 15000
)

const (
	StreamTransportSSE       = "sse"
	StreamTransportWebSocket = "websocket"
)

const (
	StorageBackendFile   = "file"
	StorageBackendBbolt  = "bbolt"
	StorageBackendSQLite = "sqlite"
	StorageBackendMemory = "memory"
)

type CoreConfig struct {
	Server  CoreServerConfig  `toml:"server"`
	Stream  CoreStreamConfig  `toml:"stream"`
	Storage CoreStorageConfig `toml:"storage"`
	Logging CoreLoggingConfig `toml:"logging"`
	Debug   CoreDebugConfig   `toml:"debug"`
}

type CoreServerConfig struct {
	Address string `toml:"address"`
}

type CoreStreamConfig struct {
	Transport        string `toml:"transport"`
	InitialBackoffMS int    `toml:"initial_backoff_ms"`
	MaxBackoffMS     int    `toml:"max_backoff_ms"`
}

type CoreStorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type CoreLoggingConfig struct {
	Level string `toml:"level"`
}

type CoreDebugConfig struct {
	StreamDebug bool `toml:"stream_debug"`
}

type UIConfig struct {
	Chat  UIChatConfig  `toml:"chat"`
	Input UIInputConfig `toml:"input"`
}

type UIChatConfig struct {
	TimestampMode string `toml:"timestamp_mode"`
	Markdown      *bool  `toml:"markdown"`
}

type UIInputConfig struct {
	MultilineMinHeight int `toml:"multiline_min_height"`
	MultilineMaxHeight int `toml:"multiline_max_height"`
}

func DefaultCoreConfig() CoreConfig {
	return CoreConfig{
		Server: CoreServerConfig{
			Address: defaultServerHost + ":" + defaultServerPort,
		},
		Stream: CoreStreamConfig{
			Transport:        StreamTransportSSE,
			InitialBackoffMS: defaultInitialBackoffMS,
			MaxBackoffMS:     defaultMaxBackoffMS,
		},
		Storage: CoreStorageConfig{
			Backend: StorageBackendFile,
		},
		Logging: CoreLoggingConfig{
			Level: "info",
		},
	}
}

// LoadCoreConfig reads config.toml, then applies the .env overlay and
// TASKCHAT_* environment variables on top.
func LoadCoreConfig() (CoreConfig, error) {
	path, err := CoreConfigPath()
	if err != nil {
		return CoreConfig{}, err
	}
	cfg, err := loadCoreConfigFromPath(path)
	if err != nil {
		return CoreConfig{}, err
	}
	LoadDotEnv()
	cfg = ApplyEnv(cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return CoreConfig{}, err
	}
	return cfg, nil
}

func (c CoreConfig) Validate() error {
	switch c.StreamTransport() {
	case StreamTransportSSE, StreamTransportWebSocket:
	default:
		return fmt.Errorf("unsupported stream transport: %q", c.Stream.Transport)
	}
	switch c.StorageBackend() {
	case StorageBackendFile, StorageBackendBbolt, StorageBackendSQLite, StorageBackendMemory:
	default:
		return fmt.Errorf("unsupported storage backend: %q", c.Storage.Backend)
	}
	return nil
}

func (c CoreConfig) ServerAddress() string {
	addr := strings.TrimSpace(c.Server.Address)
	addr = strings.TrimRight(addr, "/")
	if addr == "" || addr == "http://" || addr == "https://" {
		return defaultServerHost + ":" + defaultServerPort
	}
	return addr
}

// ServerBaseURL keeps an explicit https scheme and defaults to http.
func (c CoreConfig) ServerBaseURL() string {
	addr := c.ServerAddress()
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr
}

func (c CoreConfig) StreamTransport() string {
	transport := strings.ToLower(strings.TrimSpace(c.Stream.Transport))
	switch transport {
	case "", "http", "event-stream":
		return StreamTransportSSE
	case "ws":
		return StreamTransportWebSocket
	default:
		return transport
	}
}

func (c CoreConfig) StorageBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if backend == "" {
		return StorageBackendFile
	}
	return backend
}

// StoragePath resolves the history location for the configured backend.
func (c CoreConfig) StoragePath() (string, error) {
	if path := strings.TrimSpace(c.Storage.Path); path != "" {
		return resolveConfigPath(path)
	}
	switch c.StorageBackend() {
	case StorageBackendBbolt:
		return HistoryBboltPath()
	case StorageBackendSQLite:
		return HistorySQLitePath()
	case StorageBackendMemory:
		return "", nil
	default:
		return HistoryFilePath()
	}
}

func (c CoreConfig) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c CoreConfig) StreamDebugEnabled() bool {
	return c.Debug.StreamDebug
}

// StreamBackoff returns the reconnect delay bounds in milliseconds.
func (c CoreConfig) StreamBackoff() (initialMS, maxMS int) {
	initialMS = c.Stream.InitialBackoffMS
	maxMS = c.Stream.MaxBackoffMS
	if initialMS <= 0 {
		initialMS = defaultInitialBackoffMS
	}
	if maxMS <= 0 {
		maxMS = defaultMaxBackoffMS
	}
	if maxMS < initialMS {
		maxMS = initialMS
	}
	return initialMS, maxMS
}

func DefaultUIConfig() UIConfig {
	return UIConfig{
		Chat: UIChatConfig{
			TimestampMode: "clock",
		},
		Input: UIInputConfig{
			MultilineMinHeight: 3,
			MultilineMaxHeight: 8,
		},
	}
}

func LoadUIConfig() (UIConfig, error) {
	path, err := UIConfigPath()
	if err != nil {
		return UIConfig{}, err
	}
	return loadUIConfigFromPath(path)
}

func (c UIConfig) MarkdownEnabled() bool {
	if c.Chat.Markdown == nil {
		return true
	}
	return *c.Chat.Markdown
}

func (c UIConfig) TimestampMode() string {
	mode := strings.ToLower(strings.TrimSpace(c.Chat.TimestampMode))
	switch mode {
	case "relative", "iso", "off":
		return mode
	default:
		return "clock"
	}
}

func (c UIConfig) InputHeights() (minHeight, maxHeight int) {
	minHeight = c.Input.MultilineMinHeight
	maxHeight = c.Input.MultilineMaxHeight
	if minHeight <= 0 {
		minHeight = 3
	}
	if maxHeight <= 0 {
		maxHeight = 8
	}
	if maxHeight < minHeight {
		maxHeight = minHeight
	}
	return minHeight, maxHeight
}

func loadCoreConfigFromPath(path string) (CoreConfig, error) {
	cfg := DefaultCoreConfig()
	if err := readTOML(path, &cfg); err != nil {
		return CoreConfig{}, err
	}
	return cfg, nil
}

func loadUIConfigFromPath(path string) (UIConfig, error) {
	cfg := DefaultUIConfig()
	if err := readTOML(path, &cfg); err != nil {
		return UIConfig{}, err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}
