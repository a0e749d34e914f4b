package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"taskchat/internal/console"
	"taskchat/internal/session"
)

type HistoryCommand struct {
	env        *commandEnv
	clear      bool
	timestamps bool
}

func NewHistoryCommand(env *commandEnv) *HistoryCommand {
	return &HistoryCommand{env: env}
}

func (c *HistoryCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print or clear the saved chat history",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	cmd.Flags().BoolVar(&c.clear, "clear", false, "delete the saved history here and on the server")
	cmd.Flags().BoolVar(&c.timestamps, "timestamps", true, "prefix messages with their time")
	return cmd
}

func (c *HistoryCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := c.env.coreConfig()
	if err != nil {
		return err
	}
	logger := c.env.logger(cfg)
	persist, closeStore, err := c.env.persistence(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if c.clear {
		agent, err := c.env.client(cfg, logger)
		if err != nil {
			return err
		}
		printer, err := c.env.printer(console.Options{ShowStatus: true})
		if err != nil {
			return err
		}
		controller := session.NewController(agent, persist, printer, logger)
		if controller.Clear(cmd.Context()) == session.OutcomeFailed {
			return errors.New("could not clear saved history")
		}
		return nil
	}

	history, outcome := persist.Load()
	switch outcome {
	case session.OutcomeCorrupt:
		fmt.Fprintln(c.env.stderr(), "saved history is unreadable")
	case session.OutcomeFailed:
		return errors.New("could not load saved history")
	}
	if len(history) == 0 {
		fmt.Fprintln(c.env.stderr(), "no saved history")
		return nil
	}
	printer, err := c.env.printer(console.Options{Timestamps: c.timestamps})
	if err != nil {
		return err
	}
	for _, msg := range history {
		printer.RenderMessage(msg)
	}
	return nil
}
