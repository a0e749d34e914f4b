package main

import (
	"errors"

	"github.com/spf13/cobra"

	"taskchat/internal/console"
	"taskchat/internal/session"
)

type ShutdownCommand struct {
	env *commandEnv
}

func NewShutdownCommand(env *commandEnv) *ShutdownCommand {
	return &ShutdownCommand{env: env}
}

func (c *ShutdownCommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Ask the agent server to stop",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
}

func (c *ShutdownCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := c.env.coreConfig()
	if err != nil {
		return err
	}
	logger := c.env.logger(cfg)
	agent, err := c.env.client(cfg, logger)
	if err != nil {
		return err
	}
	printer, err := c.env.printer(console.Options{ShowStatus: true})
	if err != nil {
		return err
	}
	controller := session.NewController(agent, scratchPersistence(logger), printer, logger)
	if controller.Shutdown(cmd.Context()) == session.ShutdownFailed {
		return errors.New("shutdown request failed")
	}
	return nil
}
