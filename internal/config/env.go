package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvServer          = "TASKCHAT_SERVER"
	EnvStorage         = "TASKCHAT_STORAGE"
	EnvLogLevel        = "TASKCHAT_LOG_LEVEL"
	EnvStreamTransport = "TASKCHAT_STREAM_TRANSPORT"
	EnvWebGUIPort      = "WEB_GUI_PORT"
)

// LookupEnvFunc matches os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// LoadDotEnv loads .env from the working directory and the data dir.
// Variables already present in the environment win; missing files are fine.
func LoadDotEnv() {
	candidates := []string{".env"}
	if path, err := DotEnvPath(); err == nil {
		candidates = append(candidates, path)
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// ApplyEnv overlays TASKCHAT_* variables onto cfg. WEB_GUI_PORT, the port
// variable the agent server itself reads, only applies when the address
// is still the default.
func ApplyEnv(cfg CoreConfig, lookup LookupEnvFunc) CoreConfig {
	if lookup == nil {
		return cfg
	}
	if port, ok := lookupTrimmed(lookup, EnvWebGUIPort); ok && cfg.ServerAddress() == DefaultCoreConfig().ServerAddress() {
		cfg.Server.Address = defaultServerHost + ":" + port
	}
	if server, ok := lookupTrimmed(lookup, EnvServer); ok {
		cfg.Server.Address = server
	}
	if backend, ok := lookupTrimmed(lookup, EnvStorage); ok {
		cfg.Storage.Backend = backend
	}
	if level, ok := lookupTrimmed(lookup, EnvLogLevel); ok {
		cfg.Logging.Level = level
	}
	if transport, ok := lookupTrimmed(lookup, EnvStreamTransport); ok {
		cfg.Stream.Transport = transport
	}
	return cfg
}

func lookupTrimmed(lookup LookupEnvFunc, key string) (string, bool) {
	value, ok := lookup(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
