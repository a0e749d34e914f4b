package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"taskchat/internal/app"
	"taskchat/internal/client"
	"taskchat/internal/config"
	"taskchat/internal/logging"
	"taskchat/internal/session"
	"taskchat/internal/store"
	"taskchat/internal/types"
)

type commandClient interface {
	session.Gateway
	Health(ctx context.Context) (*client.HealthResponse, error)
	Events(ctx context.Context) <-chan types.Event
	BaseURL() string
}

type clientFactory func(cfg config.CoreConfig, logger logging.Logger) (commandClient, error)

type commandWiring struct {
	stdout             io.Writer
	stderr             io.Writer
	newClient          clientFactory
	loadConfig         func() (config.CoreConfig, error)
	loadUIConfig       func() (config.UIConfig, error)
	openStore          func(backend, path string) (store.HistoryStore, error)
	runUI              func(ctx context.Context, deps app.Deps) error
	configureUILogging func(level logging.Level) (logging.Logger, func())
	version            string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:             stdout,
		stderr:             stderr,
		newClient:          newAgentClient,
		loadConfig:         config.LoadCoreConfig,
		loadUIConfig:       config.LoadUIConfig,
		openStore:          store.OpenHistoryStore,
		runUI:              app.Run,
		configureUILogging: configureUILogging,
		version:            buildVersion(),
	}
}

func buildRootCommand(wiring commandWiring) *cobra.Command {
	env := &commandEnv{wiring: wiring}
	ui := NewUICommand(env)

	root := &cobra.Command{
		Use:           "taskchat",
		Short:         "Chat with a task-running agent server",
		Version:       wiring.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		Example: strings.TrimSpace(`
  # Open the chat UI
  taskchat

  # Send a task and wait for its result
  taskchat send --wait 2m "open the settings page"

  # Follow the event stream
  taskchat watch

  # Save the transcript as HTML
  taskchat export --format html > chat.html
`),
		// No subcommand runs the chat UI.
		RunE: ui.run,
	}
	root.SetOut(wiring.stdout)
	root.SetErr(wiring.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&env.opts.server, "server", "", "agent server address or URL (default from config)")
	flags.StringVar(&env.opts.storage, "storage", "", "history backend: file|bbolt|sqlite|memory")
	flags.BoolVar(&env.opts.ephemeral, "ephemeral", false, "keep history in memory only")
	flags.StringVar(&env.opts.logLevel, "log-level", "", "log level: debug|info|warn|error")
	flags.StringVar(&env.opts.color, "color", "auto", "color for headless output: auto|always|never")

	root.AddCommand(
		ui.Command(),
		NewSendCommand(env).Command(),
		NewWatchCommand(env).Command(),
		NewStatusCommand(env).Command(),
		NewEnhanceCommand(env).Command(),
		NewShutdownCommand(env).Command(),
		NewHistoryCommand(env).Command(),
		NewExportCommand(env).Command(),
		NewConfigCommand(env).Command(),
	)
	return root
}
