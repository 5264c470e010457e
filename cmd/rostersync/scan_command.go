package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rostersync/internal/roster"
	"rostersync/internal/rostersync"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Add installed characters and stages missing from the roster",
		Long: "Scan chars/ and stages/ for installed assets, add the ones missing from the\n" +
			"roster, and report roster entries with nothing on disk. Reported entries are\n" +
			"never removed automatically.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				result, err := s.installer.Scan(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}

				out := cmd.OutOrStdout()
				chars := result.Reconcile.Section(roster.SectionCharacters)
				stages := result.Reconcile.Section(roster.SectionExtraStages)
				fmt.Fprintf(out, "Characters: %d found, %d added\n", len(result.Characters), len(chars.Added))
				fmt.Fprintf(out, "Stages: %d found, %d added\n", len(result.Stages), len(stages.Added))
				for _, delta := range []rostersync.SectionDelta{chars, stages} {
					for _, entry := range delta.Added {
						fmt.Fprintf(out, "  + [%s] %s\n", delta.Section, entry.Name)
					}
				}
				if result.Reconcile.Backup != nil {
					fmt.Fprintf(out, "Backup: %s\n", result.Reconcile.Backup.Path)
				}
				if len(result.Orphans) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				rows := make([][]string, 0, len(result.Orphans))
				for _, orphan := range result.Orphans {
					rows = append(rows, []string{orphan.Section, orphan.Entry})
				}
				fmt.Fprintln(out, "Roster entries with nothing on disk:")
				printTable(cmd, []string{"Section", "Entry"}, rows, nil, "")
				fmt.Fprintf(out, "%s without files; remove unwanted ones with `rostersync remove <name>`\n",
					pluralize(len(rows), "entry", "entries"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	return cmd
}

func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
