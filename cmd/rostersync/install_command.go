package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rostersync/internal/config"
	"rostersync/internal/installer"
)

func newInstallCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "install [archive...]",
		Short: "Install character and stage archives",
		Long: "Install every archive in the downloads directory, or only the archives given\n" +
			"as arguments. Each archive is extracted, moved into chars/ or stages/, and\n" +
			"added to the roster. A failing archive does not stop the batch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				batch, err := runInstall(cmd, s, args)
				if jsonOutput {
					if encErr := writeJSON(cmd, batch); encErr != nil {
						return encErr
					}
				} else {
					renderInstallResults(cmd, batch)
				}
				if err != nil {
					return err
				}
				return errSummary(batch.Count(installer.StatusFailed), "archive")
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	return cmd
}

func runInstall(cmd *cobra.Command, s *session, args []string) (installer.BatchResult, error) {
	if len(args) == 0 {
		return s.installer.InstallAll(cmd.Context())
	}
	var batch installer.BatchResult
	for _, arg := range args {
		path, err := config.ExpandPath(strings.TrimSpace(arg))
		if err != nil {
			return batch, err
		}
		if err := cmd.Context().Err(); err != nil {
			return batch, err
		}
		batch.Results = append(batch.Results, s.installer.Install(cmd.Context(), path))
	}
	return batch, nil
}

func renderInstallResults(cmd *cobra.Command, batch installer.BatchResult) {
	rows := make([][]string, 0, len(batch.Results))
	for _, result := range batch.Results {
		detail := strings.Join(result.Entries, ", ")
		if result.Error != "" {
			detail = result.Error
		}
		rows = append(rows, []string{
			filepath.Base(result.Archive),
			string(result.Kind),
			string(result.Status),
			detail,
			yesNo(result.ArchiveRemoved),
		})
	}
	printTable(cmd, []string{"Archive", "Kind", "Status", "Entries", "Archive Removed"}, rows, nil,
		"No archives to install")
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d installed, %d already installed, %d unrecognized, %d failed\n",
		batch.Count(installer.StatusInstalled),
		batch.Count(installer.StatusAlreadyInstalled),
		batch.Count(installer.StatusUnrecognized),
		batch.Count(installer.StatusFailed),
	)
}
