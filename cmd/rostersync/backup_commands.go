package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rostersync/internal/backup"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage roster backups",
	}

	backupCmd.AddCommand(newBackupCreateCommand(ctx))
	backupCmd.AddCommand(newBackupListCommand(ctx))
	backupCmd.AddCommand(newBackupRestoreCommand(ctx))

	return backupCmd
}

func newBackupCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Snapshot the roster now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(s *session) error {
				snapshot, err := s.engine.Backups().Create(s.cfg.Paths.RosterFile)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created backup %s\n", snapshot.Path)
				return nil
			})
		},
	}
}

func newBackupListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List roster backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshots, err := backup.NewManager(cfg.Paths.BackupDir, nil).List(cfg.Paths.RosterFile)
			if err != nil {
				return err
			}
			if jsonOutput {
				if snapshots == nil {
					snapshots = []backup.Snapshot{}
				}
				return writeJSON(cmd, snapshots)
			}
			rows := make([][]string, 0, len(snapshots))
			for _, snapshot := range snapshots {
				rows = append(rows, []string{
					snapshot.Name(),
					snapshot.CreatedAt.Local().Format(time.DateTime),
					fmt.Sprintf("%d", snapshot.Size),
				})
			}
			printTable(cmd, []string{"Backup", "Created", "Bytes"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
				fmt.Sprintf("No backups in %s", cfg.Paths.BackupDir))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output backups as JSON")
	return cmd
}

func newBackupRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [backup]",
		Short: "Replace the roster with a backup (default: latest)",
		Long: "Replace the roster with a backup, named by file name or path. The newest\n" +
			"backup is used when none is given. The current roster is backed up first.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "latest"
			if len(args) == 1 {
				ref = args[0]
			}
			return ctx.withSession(func(s *session) error {
				result, err := s.engine.Restore(cmd.Context(), s.cfg.Paths.RosterFile, ref)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Restored %s from %s\n", s.cfg.Paths.RosterFile, result.Restored.Name())
				if result.Previous != nil {
					fmt.Fprintf(out, "Previous roster saved as %s\n", result.Previous.Name())
				}
				return nil
			})
		},
	}
}
