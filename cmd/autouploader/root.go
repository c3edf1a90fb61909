package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var post postFlags
	var processQueue bool

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "autouploader",
		Short: "Publish release download links to WordPress",
		Long: `Publish release download links to WordPress.

Run with --link and --filename each time a file host finishes an upload, or
with --process-queue to drain links queued with "autouploader queue add".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case processQueue:
				return runDrain(cmd, ctx)
			case post.link != "" || post.filename != "":
				return runPost(cmd, ctx, post)
			default:
				return usageError(cmd, "either --process-queue or both --link and --filename are required")
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	post.register(rootCmd)
	rootCmd.Flags().BoolVar(&processQueue, "process-queue", false, "Process queued links, including ones queued during the run, until none are left to try")
	rootCmd.MarkFlagsMutuallyExclusive("process-queue", "link")
	rootCmd.MarkFlagsMutuallyExclusive("process-queue", "filename")

	rootCmd.AddCommand(newPostCommand(ctx))
	rootCmd.AddCommand(newQueueCommand(ctx))
	rootCmd.AddCommand(newPendingCommand(ctx))
	rootCmd.AddCommand(newLedgerCommand(ctx))
	rootCmd.AddCommand(newHostsCommand(ctx))
	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
