package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"screenwatch/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded rotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cmd.Context(), cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No rotations recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of rotations to show")
	return cmd
}

func renderHistoryTable(rows []history.Rotation) string {
	headers := []string{"ID", "Finished", "Trigger", "Moved", "Failed", "Result"}
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		result := filepath.Base(r.BackupDir)
		if !r.Succeeded() {
			result = "error: " + r.Error
		}
		data = append(data, []string{
			strconv.FormatInt(r.ID, 10),
			r.FinishedAt.Local().Format(time.DateTime),
			string(r.Trigger),
			strconv.Itoa(r.Moved),
			strconv.Itoa(r.Failed),
			result,
		})
	}
	return renderTable(headers, data, []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft})
}
