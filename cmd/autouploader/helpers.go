package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// usageError prints the command usage to stderr and returns msg as the
// command error.
func usageError(cmd *cobra.Command, msg string) error {
	fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	return fmt.Errorf("usage: %s", msg)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
