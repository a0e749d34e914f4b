package main

import (
	"github.com/spf13/cobra"

	"taskchat/internal/app"
	"taskchat/internal/config"
	"taskchat/internal/logging"
)

type UICommand struct {
	env *commandEnv
}

func NewUICommand(env *commandEnv) *UICommand {
	return &UICommand{env: env}
}

func (c *UICommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the chat UI",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
}

func (c *UICommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := c.env.coreConfig()
	if err != nil {
		return err
	}
	uiCfg, err := c.env.wiring.loadUIConfig()
	if err != nil {
		return err
	}

	// The UI owns the terminal, so logs go to a file.
	logger, closeLog := logging.Nop(), func() {}
	if c.env.wiring.configureUILogging != nil {
		logger, closeLog = c.env.wiring.configureUILogging(logging.ParseLevel(cfg.LogLevel()))
	}
	defer closeLog()

	agent, err := c.env.client(cfg, logger)
	if err != nil {
		return err
	}
	persist, closeStore, err := c.env.persistence(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	logger.Info("ui starting",
		logging.F("server", agent.BaseURL()),
		logging.F("storage", persist.Backend()),
		logging.F("version", c.env.wiring.version),
	)
	return c.env.wiring.runUI(cmd.Context(), app.Deps{
		Gateway:     agent,
		Events:      agent,
		Persistence: persist,
		Logger:      logger,
		UI:          uiCfg,
		ServerURL:   agent.BaseURL(),
	})
}

func configureUILogging(level logging.Level) (logging.Logger, func()) {
	path, err := config.UILogPath()
	if err != nil {
		return logging.Nop(), func() {}
	}
	logger, closer, err := logging.OpenFile(path, level)
	if err != nil {
		return logging.Nop(), func() {}
	}
	return logger, func() { _ = closer.Close() }
}
