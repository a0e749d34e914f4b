package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"taskchat/internal/console"
	"taskchat/internal/session"
)

type WatchCommand struct {
	env        *commandEnv
	timestamps bool
}

func NewWatchCommand(env *commandEnv) *WatchCommand {
	return &WatchCommand{env: env}
}

func (c *WatchCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print stream events until interrupted",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	cmd.Flags().BoolVar(&c.timestamps, "timestamps", false, "prefix messages with their time")
	return cmd
}

func (c *WatchCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := c.env.coreConfig()
	if err != nil {
		return err
	}
	logger := c.env.logger(cfg)
	agent, err := c.env.client(cfg, logger)
	if err != nil {
		return err
	}
	printer, err := c.env.printer(console.Options{ShowStatus: true, Timestamps: c.timestamps})
	if err != nil {
		return err
	}

	// Watching never writes history; the chat UI owns the store.
	controller := session.NewController(agent, scratchPersistence(logger), printer, logger)
	ctx := cmd.Context()
	events := agent.Events(ctx)
	controller.RefreshStatus(ctx)
	if err := controller.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
