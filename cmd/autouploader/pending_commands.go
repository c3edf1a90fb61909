package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"autouploader/internal/hosts"
	"autouploader/internal/readiness"
)

func newPendingCommand(ctx *commandContext) *cobra.Command {
	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect link sets waiting for primary hosts",
	}
	pendingCmd.AddCommand(newPendingListCommand(ctx))
	pendingCmd.AddCommand(newPendingDropCommand(ctx))
	return pendingCmd
}

func newPendingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending link sets and the primary hosts they lack",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ctx.env()
			if err != nil {
				return err
			}
			runCtx := ctx.runContext(cmd)
			entries, err := e.links().List(runCtx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No pending releases")
				return nil
			}
			hostCfg := e.hosts(runCtx)
			posted := e.ledger()
			rows := make([][]string, 0, len(entries))
			stranded := 0
			for _, entry := range entries {
				missing := readiness.Missing("", entry.Links, hostCfg.PrimaryHosts)
				note := ""
				if !hasPrimary(hostCfg, entry.Links.Hosts()) {
					note = "mirror only"
					if postID, ok, err := posted.Lookup(runCtx, entry.Key); err == nil && ok {
						note = fmt.Sprintf("stranded; post %d exists", postID)
						stranded++
					}
				}
				rows = append(rows, []string{
					truncate(entry.Key, 60),
					strings.Join(entry.Links.Hosts(), ", "),
					dash(strings.Join(missing, ", ")),
					dash(note),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Release", "Hosts", "Missing", "Note"},
				rows,
				nil,
			))
			if stranded > 0 {
				fmt.Fprintf(out, "%d release(s) were already posted and only hold mirror links; they publish only when a primary link arrives again. Use \"pending drop\" to discard them.\n", stranded)
			}
			return nil
		},
	}
}

func newPendingDropCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <release-key>",
		Short: "Discard the pending links of a release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ctx.env()
			if err != nil {
				return err
			}
			runCtx := ctx.runContext(cmd)
			key := strings.TrimSpace(args[0])
			store := e.links()
			if len(store.Get(runCtx, key)) == 0 {
				return fmt.Errorf("no pending links for %q", key)
			}
			if err := store.Delete(runCtx, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped pending links for %s\n", key)
			return nil
		},
	}
}

func hasPrimary(cfg hosts.Config, present []string) bool {
	for _, host := range present {
		if cfg.IsPrimary(host) {
			return true
		}
	}
	return false
}
