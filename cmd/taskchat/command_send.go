package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taskchat/internal/console"
	"taskchat/internal/session"
	"taskchat/internal/types"
)

const defaultSendWait = 2 * time.Minute

var errAgentFailed = errors.New("agent reported an error")

type SendCommand struct {
	env    *commandEnv
	output string
	wait   time.Duration
}

func NewSendCommand(env *commandEnv) *SendCommand {
	return &SendCommand{env: env}
}

func (c *SendCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <task...>",
		Short: "Send a task and print the stream until its result arrives",
		Long: "Send a task and print the stream until its result arrives.\n\n" +
			"Results of tasks queued ahead are printed while waiting; the command\n" +
			"returns once the server has started this task and reported its outcome.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.run,
	}
	cmd.Flags().StringVar(&c.output, "output", "", "describe the expected output format")
	cmd.Flags().DurationVar(&c.wait, "wait", defaultSendWait, "how long to wait for a result (0 returns right after sending)")
	return cmd
}

func (c *SendCommand) run(cmd *cobra.Command, args []string) error {
	task := joinArgs(args)
	if task == "" {
		return errors.New("task is required")
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
	persist, closeStore, err := c.env.persistence(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	printer, err := c.env.printer(console.Options{ShowStatus: true})
	if err != nil {
		return err
	}

	gate := &gatedRenderer{next: printer}
	controller := session.NewController(agent, persist, gate, logger)
	controller.Hydrate()
	gate.open = true

	ctx := cmd.Context()
	var events <-chan types.Event
	streamCtx := ctx
	if c.wait > 0 {
		var cancel context.CancelFunc
		streamCtx, cancel = context.WithTimeout(ctx, c.wait)
		defer cancel()
		// Subscribe first so a fast result is not missed.
		events = agent.Events(streamCtx)
	}

	switch outcome := controller.Submit(ctx, task, c.output); outcome {
	case session.SubmitSent:
	case session.SubmitFailed:
		return errors.New("task was not sent")
	default:
		return fmt.Errorf("task rejected: %s", outcome)
	}
	if events == nil {
		return nil
	}
	return awaitResult(streamCtx, controller, events, task, c.wait)
}

// awaitResult applies stream events until the result of task arrives.
// Results are only accepted once the server has dequeued task, so the
// outcome of a task queued ahead of it is printed but not taken as ours.
func awaitResult(ctx context.Context, controller *session.Controller, events <-chan types.Event, task string, wait time.Duration) error {
	running := false
	for event := range events {
		if event.Type == types.EventDequeued {
			goal := strings.TrimSpace(event.Goal)
			running = goal == "" || goal == task
		}
		msg, ok := appendedReply(controller.HandleEvent(event))
		if !ok || !running {
			continue
		}
		if strings.HasPrefix(msg.Text, "Error: ") {
			return errAgentFailed
		}
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("no result within %s", wait)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("event stream closed")
}

func appendedReply(t session.Transition) (types.Message, bool) {
	for _, effect := range t.Effects {
		if effect.Kind == session.EffectAppend && effect.Message.Role == types.RoleAgent {
			return effect.Message, true
		}
	}
	return types.Message{}, false
}
