package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rostersync/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the game directories and roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			failed := preflight.Failed(results)

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
				return errSummary(len(failed), "check")
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{result.Name, statusLabel(result.Passed, colorize), result.Detail})
			}
			printTable(cmd, []string{"Check", "Status", "Detail"}, rows, nil, "No checks ran")
			if len(failed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All checks passed")
			}
			return errSummary(len(failed), "check")
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output check results as JSON")
	return cmd
}
