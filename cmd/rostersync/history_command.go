package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"rostersync/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var operationID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent roster changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			var records []history.Record
			if id := strings.TrimSpace(operationID); id != "" {
				records, err = store.ByOperation(cmd.Context(), id)
			} else {
				records, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				if records == nil {
					records = []history.Record{}
				}
				return writeJSON(cmd, records)
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.CreatedAt.Local().Format(time.DateTime),
					shortID(rec.OperationID),
					string(rec.Kind),
					rec.Section,
					rec.Entry,
					string(rec.Outcome),
					rec.Detail,
				})
			}
			printTable(cmd, []string{"Time", "Operation", "Kind", "Section", "Entry", "Outcome", "Detail"}, rows, nil,
				"No history recorded yet")
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show")
	cmd.Flags().StringVar(&operationID, "operation", "", "Show only the records of one operation id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output records as JSON")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
