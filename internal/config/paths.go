package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = ".taskchat"
	homeEnvVar = "TASKCHAT_HOME"
)

// DataDir returns the base data directory for taskchat. TASKCHAT_HOME
// overrides the default of ~/.taskchat.
func DataDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(homeEnvVar)); override != "" {
		return filepath.Clean(override), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

func dataPath(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}

// CoreConfigPath returns the path to the core TOML configuration.
func CoreConfigPath() (string, error) {
	return dataPath("config.toml")
}

// UIConfigPath returns the path to the terminal UI TOML configuration.
func UIConfigPath() (string, error) {
	return dataPath("ui.toml")
}

// DotEnvPath returns the path of the optional .env overlay in the data dir.
func DotEnvPath() (string, error) {
	return dataPath(".env")
}

// HistoryFilePath returns the JSON history file used by the file backend.
func HistoryFilePath() (string, error) {
	return dataPath("history.json")
}

// HistoryBboltPath returns the database file used by the bbolt backend.
func HistoryBboltPath() (string, error) {
	return dataPath("history.db")
}

// HistorySQLitePath returns the database file used by the sqlite backend.
func HistorySQLitePath() (string, error) {
	return dataPath("history.sqlite")
}

// UILogPath returns the log file the terminal UI writes to.
func UILogPath() (string, error) {
	return dataPath("ui.log")
}
