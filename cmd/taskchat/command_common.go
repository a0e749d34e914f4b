package main

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"taskchat/internal/config"
	"taskchat/internal/console"
	"taskchat/internal/logging"
	"taskchat/internal/session"
	"taskchat/internal/store"
	"taskchat/internal/types"
)

const version = "dev"

type globalOptions struct {
	server    string
	storage   string
	ephemeral bool
	logLevel  string
	color     string
}

// commandEnv resolves configuration and collaborators after flags are
// parsed. Every command shares one.
type commandEnv struct {
	wiring commandWiring
	opts   globalOptions
}

func (e *commandEnv) stdout() io.Writer { return e.wiring.stdout }
func (e *commandEnv) stderr() io.Writer { return e.wiring.stderr }

func (e *commandEnv) coreConfig() (config.CoreConfig, error) {
	cfg, err := e.wiring.loadConfig()
	if err != nil {
		return config.CoreConfig{}, err
	}
	if server := strings.TrimSpace(e.opts.server); server != "" {
		cfg.Server.Address = server
	}
	if backend := strings.TrimSpace(e.opts.storage); backend != "" {
		cfg.Storage.Backend = backend
		cfg.Storage.Path = ""
	}
	if e.opts.ephemeral {
		cfg.Storage.Backend = config.StorageBackendMemory
	}
	if level := strings.TrimSpace(e.opts.logLevel); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return config.CoreConfig{}, err
	}
	return cfg, nil
}

func (e *commandEnv) logger(cfg config.CoreConfig) logging.Logger {
	return logging.New(e.stderr(), logging.ParseLevel(cfg.LogLevel()))
}

func (e *commandEnv) client(cfg config.CoreConfig, logger logging.Logger) (commandClient, error) {
	if e.wiring.newClient == nil {
		return nil, errors.New("client factory is not configured")
	}
	return e.wiring.newClient(cfg, logger)
}

// persistence opens the configured history store. The returned func
// closes it.
func (e *commandEnv) persistence(cfg config.CoreConfig, logger logging.Logger) (*session.Persistence, func(), error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, nil, err
	}
	backend, err := e.wiring.openStore(cfg.StorageBackend(), path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s history: %w", cfg.StorageBackend(), err)
	}
	closeFn := func() {
		if err := backend.Close(); err != nil {
			logger.Warn("history store close failed", logging.Err(err))
		}
	}
	return session.NewPersistence(backend, logger), closeFn, nil
}

func (e *commandEnv) printer(opts console.Options) (*console.Printer, error) {
	mode, err := console.ParseColorMode(e.opts.color)
	if err != nil {
		return nil, err
	}
	opts.Color = mode
	return console.NewPrinter(e.stdout(), opts), nil
}

// gatedRenderer forwards to next only once opened, so hydrating stored
// history does not reprint it.
type gatedRenderer struct {
	next session.Renderer
	open bool
}

func (g *gatedRenderer) RenderMessage(msg types.Message) {
	if g.open {
		g.next.RenderMessage(msg)
	}
}

func (g *gatedRenderer) SetStatus(status string) {
	if g.open {
		g.next.SetStatus(status)
	}
}

func (g *gatedRenderer) SetQueue(size int) {
	if g.open {
		g.next.SetQueue(size)
	}
}

func (g *gatedRenderer) SetInputsEnabled(enabled bool) {
	if g.open {
		g.next.SetInputsEnabled(enabled)
	}
}

func (g *gatedRenderer) Notice(text string) {
	if g.open {
		g.next.Notice(text)
	}
}

func (g *gatedRenderer) SetDraft(text string) {
	if g.open {
		g.next.SetDraft(text)
	}
}

func (g *gatedRenderer) ResetLog() {
	if g.open {
		g.next.ResetLog()
	}
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}

	return version
}

// scratchPersistence keeps history in memory for commands that must not
// touch the shared store.
func scratchPersistence(logger logging.Logger) *session.Persistence {
	return session.NewPersistence(store.NewMemoryHistoryStore(), logger)
}
