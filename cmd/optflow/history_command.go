package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"optflow/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(out, "Run history is disabled (history.enabled = false)")
				return nil
			}

			store, err := history.Open(cmd.Context(), cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					shortRunID(e.RunID),
					e.StartedAt.Local().Format("2006-01-02 15:04:05"),
					describeMode(e),
					string(e.Status),
					strconv.Itoa(e.ExitCode),
					fmt.Sprintf("%d/%d", e.ContentIndex, e.ContentLength),
					e.Duration.Round(time.Millisecond).String(),
					truncate(e.ErrorMessage, 50),
				})
			}
			headers := []string{"Run", "Started", "Mode", "Status", "Exit", "Consumed", "Duration", "Error"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	return cmd
}

func describeMode(e history.Entry) string {
	if e.Mode == history.ModePrefix {
		return fmt.Sprintf("prefix %d", e.StopCount)
	}
	return fmt.Sprintf("all (%d)", e.FragmentCount)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return string(runes[:width-3]) + "..."
}
