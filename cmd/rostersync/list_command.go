package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rostersync/internal/roster"
	"rostersync/internal/rostersync"
)

type listedEntry struct {
	Name string `json:"name"`
	Line string `json:"line"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list [section]",
		Short: "List the entries of a roster section",
		Long:  "List the entries of a roster section. The section defaults to Characters.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			section := roster.SectionCharacters
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				section = sectionName(args[0])
			}

			engine, err := rostersync.NewFromConfig(cfg, nil, nil, "")
			if err != nil {
				return err
			}
			entries, err := engine.Entries(cfg.Paths.RosterFile, section)
			if err != nil {
				return err
			}

			listed := make([]listedEntry, 0, len(entries))
			for _, entry := range entries {
				listed = append(listed, listedEntry{Name: entry.Name, Line: entry.Raw})
			}
			if jsonOutput {
				return writeJSON(cmd, listed)
			}
			rows := make([][]string, 0, len(listed))
			for i, entry := range listed {
				line := ""
				if entry.Line != entry.Name {
					line = entry.Line
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), entry.Name, line})
			}
			printTable(cmd, []string{"#", "Entry", "Line"}, rows, []columnAlignment{alignRight},
				fmt.Sprintf("[%s] is empty", section))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output entries as JSON")
	return cmd
}

// sectionName maps common shorthands onto the managed section names.
func sectionName(arg string) string {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(arg), "[]")) {
	case "characters", "chars", "character":
		return roster.SectionCharacters
	case "extrastages", "stages", "stage":
		return roster.SectionExtraStages
	}
	return strings.Trim(strings.TrimSpace(arg), "[]")
}
