package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"rostersync/internal/logging"
	"rostersync/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var raw bool
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the rostersync log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.LogDir(), logging.LogFileName)
			out := cmd.OutOrStdout()
			printLine := func(line string) {
				if !raw {
					line = logs.Format(line)
				}
				fmt.Fprintln(out, line)
			}

			tail := lines
			if filter != (logs.Filter{}) && tail > 0 {
				// Filtering happens after the tail, so read further back.
				tail *= 20
			}
			recent, offset, err := logs.Tail(path, tail)
			if err != nil {
				return err
			}
			var kept []string
			for _, line := range recent {
				if filter.Match(line) {
					kept = append(kept, line)
				}
			}
			if len(kept) > lines {
				kept = kept[len(kept)-lines:]
			}
			for _, line := range kept {
				printLine(line)
			}
			if !follow {
				return nil
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			err = logs.Follow(signalCtx, path, offset, logs.DefaultPoll, func(line string) {
				if filter.Match(line) {
					printLine(line)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON records unformatted")
	cmd.Flags().StringVar(&filter.OperationID, "operation", "", "Only show records of this operation id (prefix match)")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level: debug, info, warn, or error")
	cmd.Flags().StringVar(&filter.EventType, "event", "", "Only show records with this event_type")
	return cmd
}
