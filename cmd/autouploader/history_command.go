package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"autouploader/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent upload outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ctx.env()
			if err != nil {
				return err
			}
			store, err := history.Open(e.cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx := ctx.runContext(cmd)
			out := cmd.OutOrStdout()
			if asCSV {
				return store.ExportCSV(runCtx, out)
			}
			events, err := store.Recent(runCtx, limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "No history recorded")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				post := ""
				if ev.PostID > 0 {
					post = strconv.FormatInt(ev.PostID, 10)
				}
				rows = append(rows, []string{
					ev.RecordedAt.Local().Format("2006-01-02 15:04"),
					ev.Status.Label(),
					truncate(ev.Title, 50),
					dash(post),
					truncate(ev.Detail, 40),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Status", "Title", "Post", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show (0 for all)")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Export every event as CSV")
	return cmd
}
