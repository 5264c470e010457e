package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rostersync/internal/config"
	"rostersync/internal/fileutil"
)

func newDumpCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the raw roster file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(cfg.Paths.RosterFile)
			if err != nil {
				return fmt.Errorf("read roster: %w", err)
			}

			target := strings.TrimSpace(outputPath)
			if target == "" || target == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			target, err = config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
				return fmt.Errorf("write dump: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes from %s to %s\n", len(data), cfg.Paths.RosterFile, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the roster to this file instead of stdout")
	return cmd
}
