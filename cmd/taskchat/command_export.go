package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"taskchat/internal/session"
)

type ExportCommand struct {
	env    *commandEnv
	format string
	out    string
}

func NewExportCommand(env *commandEnv) *ExportCommand {
	return &ExportCommand{env: env}
}

func (c *ExportCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved chat as a transcript",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	cmd.Flags().StringVar(&c.format, "format", string(session.ExportText), "transcript format: text|html|json")
	cmd.Flags().StringVarP(&c.out, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

func (c *ExportCommand) run(cmd *cobra.Command, args []string) error {
	format, err := session.ParseExportFormat(c.format)
	if err != nil {
		return err
	}
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

	history, outcome := persist.Load()
	switch outcome {
	case session.OutcomeCorrupt:
		fmt.Fprintln(c.env.stderr(), "saved history is unreadable; exporting an empty transcript")
	case session.OutcomeFailed:
		return errors.New("could not load saved history")
	}

	var w io.Writer = c.env.stdout()
	if path := strings.TrimSpace(c.out); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return session.Export(w, history, format)
}
