package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestPaths(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	t.Setenv(homeEnvVar, "")

	dataDir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if !strings.HasSuffix(dataDir, ".taskchat") {
		t.Fatalf("unexpected data dir: %s", dataDir)
	}

	checks := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{name: "core config", fn: CoreConfigPath, want: "config.toml"},
		{name: "ui config", fn: UIConfigPath, want: "ui.toml"},
		{name: "dotenv", fn: DotEnvPath, want: ".env"},
		{name: "history file", fn: HistoryFilePath, want: "history.json"},
		{name: "history bbolt", fn: HistoryBboltPath, want: "history.db"},
		{name: "history sqlite", fn: HistorySQLitePath, want: "history.sqlite"},
		{name: "ui log", fn: UILogPath, want: "ui.log"},
	}
	for _, check := range checks {
		path, err := check.fn()
		if err != nil {
			t.Fatalf("%s: %v", check.name, err)
		}
		if path != filepath.Join(dataDir, check.want) {
			t.Fatalf("%s: unexpected path %s", check.name, path)
		}
	}
}

func TestDataDirOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom")
	t.Setenv(homeEnvVar, override)
	dataDir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if dataDir != override {
		t.Fatalf("expected override %s, got %s", override, dataDir)
	}
}
