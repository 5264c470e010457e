package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"rostersync/internal/installer"
)

var errRemoveCancelled = errors.New("remove cancelled")

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool
	var force bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "remove <character>",
		Aliases: []string{"uninstall"},
		Short:   "Remove a character from the roster and delete its folder",
		Long: `Remove every roster entry for a character, then delete its folder under chars/.

The roster is backed up before it changes, and the folder is only deleted once
that update succeeded. A folder whose character is not listed in the roster
has no backup behind it and is kept unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if !assumeYes && isInteractive(cmd.InOrStdin()) {
				confirmed, err := confirmRemove(name)
				if err != nil {
					return err
				}
				if !confirmed {
					return errRemoveCancelled
				}
			}

			return ctx.withSession(func(s *session) error {
				result, err := s.installer.Uninstall(cmd.Context(), name, force)
				if errors.Is(err, installer.ErrNotInRoster) {
					return fmt.Errorf("%s is not in the roster; rerun with --force to delete %s", name, result.Folder)
				}
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				if len(result.Removed) == 0 && !result.FolderRemoved {
					fmt.Fprintf(out, "%s is not installed\n", name)
					return nil
				}
				for _, entry := range result.Removed {
					fmt.Fprintf(out, "Removed roster entry %s\n", entry)
				}
				if result.FolderRemoved {
					fmt.Fprintf(out, "Deleted %s\n", result.Folder)
				}
				if result.Backup != nil {
					fmt.Fprintf(out, "Backup: %s\n", result.Backup.Path)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&force, "force", false, "Delete the character folder even when the roster does not list it")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	return cmd
}

func confirmRemove(name string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Remove %s?", name)).
			Description("The roster entry is removed and the character folder deleted.").
			Affirmative("Remove").
			Negative("Cancel").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirm remove: %w", err)
	}
	return confirmed, nil
}
