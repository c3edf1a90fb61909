package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the release to post mapping",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerForgetCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List published releases and their post ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ctx.env()
			if err != nil {
				return err
			}
			entries, err := e.ledger().List(ctx.runContext(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Ledger is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{truncate(entry.Key, 70), strconv.FormatInt(entry.PostID, 10)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Release", "Post"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newLedgerForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <release-key>",
		Short: "Remove a release so its next link creates a new post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ctx.env()
			if err != nil {
				return err
			}
			key := strings.TrimSpace(args[0])
			removed, err := e.ledger().Forget(ctx.runContext(cmd), key)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("release %q is not in the ledger", key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", key)
			return nil
		},
	}
}
