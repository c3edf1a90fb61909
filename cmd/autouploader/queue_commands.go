package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"autouploader/internal/linkqueue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage queued links",
	}
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueDrainCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var flags postFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue a link for the next drain",
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := flags.event()
			if ev.Link == "" || ev.Filename == "" {
				return usageError(cmd, "--link and --filename must both be set")
			}
			e, err := ctx.env()
			if err != nil {
				return err
			}
			path, err := e.queue().Enqueue(ctx.runContext(cmd), linkqueue.Item{
				Link:          ev.Link,
				Filename:      ev.Filename,
				ThumbnailPath: ev.ThumbnailPath,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s\n", filepath.Base(path))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newQueueDrainCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Process every queued link",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrain(cmd, ctx)
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued links, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ctx.env()
			if err != nil {
				return err
			}
			q := e.queue()
			entries, err := q.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for i, entry := range entries {
				row := []string{
					strconv.Itoa(i + 1),
					entry.ModTime.Format("2006-01-02 15:04:05"),
				}
				item, err := q.Load(entry.Path)
				switch {
				case errors.Is(err, linkqueue.ErrCorrupt):
					row = append(row, filepath.Base(entry.Path), "(corrupt)")
				case err != nil:
					row = append(row, filepath.Base(entry.Path), "(unreadable)")
				default:
					row = append(row, truncate(item.Filename, 60), truncate(item.Link, 60))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Queued", "Filename", "Link"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued link without processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ctx.env()
			if err != nil {
				return err
			}
			removed, err := e.queue().Clear(ctx.runContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d queued item(s)\n", removed)
			return nil
		},
	}
}
