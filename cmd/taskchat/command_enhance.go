package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"taskchat/internal/console"
	"taskchat/internal/session"
)

type EnhanceCommand struct {
	env *commandEnv
}

func NewEnhanceCommand(env *commandEnv) *EnhanceCommand {
	return &EnhanceCommand{env: env}
}

func (c *EnhanceCommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "enhance <text...>",
		Short: "Print an improved version of a task description",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.run,
	}
}

func (c *EnhanceCommand) run(cmd *cobra.Command, args []string) error {
	draft := joinArgs(args)
	if draft == "" {
		return errors.New("text is required")
	}
	cfg, err := c.env.coreConfig()
	if err != nil {
		return err
	}
	logger := c.env.logger(cfg)
	agent, err := c.env.client(cfg, logger)
	if err != nil {
		return err
	}
	printer, err := c.env.printer(console.Options{})
	if err != nil {
		return err
	}
	controller := session.NewController(agent, scratchPersistence(logger), printer, logger)

	switch outcome := controller.Enhance(cmd.Context(), draft); outcome {
	case session.EnhanceApplied:
		return nil
	case session.EnhanceRateLimited:
		return errors.New("enhance is rate limited, try again shortly")
	case session.EnhanceRejected:
		return errors.New("enhance returned no text")
	default:
		return fmt.Errorf("enhance %s", outcome)
	}
}
