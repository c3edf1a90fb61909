package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"autouploader/internal/hosts"
)

func newHostsCommand(ctx *commandContext) *cobra.Command {
	hostsCmd := &cobra.Command{
		Use:   "hosts",
		Short: "Inspect and edit the file host table",
	}
	hostsCmd.AddCommand(newHostsListCommand(ctx))
	hostsCmd.AddCommand(newHostsDetectCommand(ctx))
	hostsCmd.AddCommand(newHostsSetPrimaryCommand(ctx))
	hostsCmd.AddCommand(newHostsAddMirrorCommand(ctx))
	hostsCmd.AddCommand(newHostsRemoveCommand(ctx))
	return hostsCmd
}

func newHostsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show primary and mirror hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ctx.env()
			if err != nil {
				return err
			}
			table := e.hosts(ctx.runContext(cmd))
			var rows [][]string
			for _, host := range table.PrimaryHosts {
				rows = append(rows, []string{host, "primary", table.DisplayName(host), dash(table.Patterns[host])})
			}
			for _, host := range table.MirrorHosts {
				rows = append(rows, []string{host, "mirror", table.DisplayName(host), dash(table.Patterns[host])})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Host", "Role", "Display", "Pattern"}, rows, nil))
			fmt.Fprintf(out, "Host table: %s\n", e.cfg.HostConfigPath())
			return nil
		},
	}
}

func newHostsDetectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <url>",
		Short: "Show which host a link belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ctx.env()
			if err != nil {
				return err
			}
			table := e.hosts(ctx.runContext(cmd))
			detector, err := hosts.NewDetector(table)
			if err != nil {
				return err
			}
			host := detector.Detect(args[0])
			role := "mirror"
			switch {
			case host == hosts.Unknown:
				role = "unrecognized"
			case table.IsPrimary(host):
				role = "primary"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", host, detector.DisplayName(host), role)
			return nil
		},
	}
}

// editHosts loads the host table, applies fn and saves the result.
func editHosts(cmd *cobra.Command, ctx *commandContext, fn func(hosts.Config) (hosts.Config, error)) error {
	e, err := ctx.env()
	if err != nil {
		return err
	}
	runCtx := ctx.runContext(cmd)
	next, err := fn(e.hosts(runCtx))
	if err != nil {
		return err
	}
	return hosts.Save(runCtx, e.cfg.HostConfigPath(), e.lockOpts, next)
}

func newHostsSetPrimaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-primary <host>...",
		Short: "Replace the primary host list",
		Long:  "Replace the primary host list. Hosts dropped from the list stay known as mirrors.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := editHosts(cmd, ctx, func(c hosts.Config) (hosts.Config, error) {
				return c.SetPrimary(args)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Primary hosts: %s\n", strings.Join(args, ", "))
			return nil
		},
	}
}

func newHostsAddMirrorCommand(ctx *commandContext) *cobra.Command {
	var display string
	cmd := &cobra.Command{
		Use:   "add-mirror <host> <pattern>",
		Short: "Register a mirror host and its URL pattern",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := editHosts(cmd, ctx, func(c hosts.Config) (hosts.Config, error) {
				return c.AddMirror(args[0], args[1], display)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added mirror %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&display, "display", "", "Name shown in posts (defaults to the host id)")
	return cmd
}

func newHostsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <host>",
		Short: "Forget a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := editHosts(cmd, ctx, func(c hosts.Config) (hosts.Config, error) {
				next, removed := c.Remove(args[0])
				if !removed {
					return c, fmt.Errorf("host %q is not configured", args[0])
				}
				return next, nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}
