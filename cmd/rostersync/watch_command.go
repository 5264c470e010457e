package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rostersync/internal/installer"
	"rostersync/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var settle time.Duration
	var skipExisting bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Install archives as they arrive in the downloads directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withSession(func(s *session) error {
				out := cmd.OutOrStdout()
				w := watch.New(s.installer, watch.Options{
					Dir:             s.cfg.Paths.DownloadsDir,
					IsArchive:       s.cfg.IsArchive,
					Settle:          settle,
					IncludeExisting: !skipExisting,
					Logger:          s.logger,
					OnResult: func(result installer.Result) {
						line := fmt.Sprintf("%s: %s", filepath.Base(result.Archive), result.Status)
						if result.Error != "" {
							line += " (" + result.Error + ")"
						}
						fmt.Fprintln(out, line)
					},
				})
				fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", s.cfg.Paths.DownloadsDir)
				err := w.Run(signalCtx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "How long an archive must be unchanged before it is installed")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Ignore archives already in the downloads directory")
	return cmd
}
