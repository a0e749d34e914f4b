package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"taskchat/internal/sanitizer"
)

type StatusCommand struct {
	env      *commandEnv
	jsonOut  bool
	checkAll bool
}

func NewStatusCommand(env *commandEnv) *StatusCommand {
	return &StatusCommand{env: env}
}

func (c *StatusCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the agent status snapshot",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	cmd.Flags().BoolVar(&c.jsonOut, "json", false, "print JSON")
	cmd.Flags().BoolVar(&c.checkAll, "health", false, "also check server health")
	return cmd
}

type statusOutput struct {
	Server  string `json:"server"`
	Status  string `json:"status"`
	Healthy *bool  `json:"healthy,omitempty"`
}

func (c *StatusCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := c.env.coreConfig()
	if err != nil {
		return err
	}
	agent, err := c.env.client(cfg, c.env.logger(cfg))
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	out := statusOutput{Server: agent.BaseURL()}
	if c.checkAll {
		healthy := false
		if resp, err := agent.Health(ctx); err == nil && resp != nil {
			healthy = resp.OK
		}
		out.Healthy = &healthy
	}
	resp, err := agent.Status(ctx)
	if err != nil {
		return err
	}
	out.Status = sanitizer.Line(resp.Status)

	if c.jsonOut {
		encoder := json.NewEncoder(c.env.stdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}
	fmt.Fprintln(c.env.stdout(), out.Status)
	if out.Healthy != nil && !*out.Healthy {
		fmt.Fprintln(c.env.stderr(), "server health check failed")
	}
	return nil
}
