package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lecturesync/internal/history"
	"lecturesync/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sync runs",
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

			store, err := history.Open(cfg)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "", "open history", cfg.History.Path, err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 lists all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func renderHistoryTable(runs []history.Run) string {
	headers := []string{"Started", "Mode", "Status", "Video", "Offset", "State", "Error", "Output"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status, video, offset := "-", "-", "-"
		if run.SyncStatus != "" {
			status = run.SyncStatus
			video = run.SyncVideo
			offset = strconv.FormatFloat(run.OffsetSeconds, 'f', 2, 64)
		}
		errorKind := run.ErrorKind
		if errorKind == "" {
			errorKind = "-"
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format(time.DateTime),
			run.Mode,
			status,
			video,
			offset,
			run.FinalState,
			errorKind,
			run.Output,
		})
	}
	return renderTable(headers, rows, aligns)
}
