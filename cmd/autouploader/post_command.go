package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"autouploader/internal/pipeline"
)

type postFlags struct {
	link          string
	filename      string
	thumbnailPath string
}

func (f *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.link, "link", "", "Download link reported by the file host")
	cmd.Flags().StringVar(&f.filename, "filename", "", "Release filename the link belongs to")
	cmd.Flags().StringVar(&f.thumbnailPath, "thumbnail-path", "", "Path of the release file, used to find a local thumbnail")
}

func (f postFlags) event() pipeline.Event {
	return pipeline.Event{
		Link:          strings.TrimSpace(f.link),
		Filename:      strings.TrimSpace(f.filename),
		ThumbnailPath: strings.TrimSpace(f.thumbnailPath),
	}
}

func newPostCommand(ctx *commandContext) *cobra.Command {
	var flags postFlags
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Process one uploaded link immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, ctx, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runPost(cmd *cobra.Command, ctx *commandContext, flags postFlags) error {
	ev := flags.event()
	if ev.Link == "" || ev.Filename == "" {
		return usageError(cmd, "--link and --filename must both be set")
	}
	uploader, closeFn, err := ctx.openUploader()
	if err != nil {
		return err
	}
	defer closeFn()

	res, runErr := uploader.Process(ctx.runContext(cmd), ev)
	printResult(cmd, res, runErr)
	return runErr
}

func runDrain(cmd *cobra.Command, ctx *commandContext) error {
	uploader, closeFn, err := ctx.openUploader()
	if err != nil {
		return err
	}
	defer closeFn()
	e, err := ctx.env()
	if err != nil {
		return err
	}

	summary, err := uploader.Drain(ctx.runContext(cmd), e.queue())
	printDrainSummary(cmd, summary)
	return err
}

func printResult(cmd *cobra.Command, res pipeline.Result, runErr error) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	if res.Title != "" {
		fmt.Fprintln(out, renderField("Release", res.Title))
	}
	if res.Host != "" {
		fmt.Fprintln(out, renderField("Host", res.Host))
	}
	kind, msg := describeResult(res, runErr)
	fmt.Fprintln(out, renderStatusLine("Result", kind, msg, colorize))
}

func describeResult(res pipeline.Result, runErr error) (statusKind, string) {
	switch res.State {
	case pipeline.StateWaiting:
		return statusWarn, "waiting for " + strings.Join(res.Missing, ", ")
	case pipeline.StateFailed:
		msg := fmt.Sprintf("failed while %s", strings.ToLower(string(res.FailedAt)))
		if runErr != nil {
			msg += ": " + runErr.Error()
		}
		return statusError, msg
	case pipeline.StateDone:
	default:
		return statusInfo, strings.ToLower(string(res.State))
	}

	var msg string
	kind := statusOK
	switch res.Action {
	case pipeline.StatePublishing:
		msg = fmt.Sprintf("published post %d", res.PostID)
	case pipeline.StateUpdating:
		msg = fmt.Sprintf("updated post %d", res.PostID)
	case pipeline.StateMerging:
		if res.Merged {
			msg = fmt.Sprintf("merged post %d into %d", res.ChallengerID, res.PostID)
		} else {
			kind = statusWarn
			msg = fmt.Sprintf("duplicate post %d not merged into %d", res.ChallengerID, res.PostID)
		}
	default:
		msg = "done"
	}
	if res.PostURL != "" {
		msg += " " + res.PostURL
	}
	return kind, msg
}

func printDrainSummary(cmd *cobra.Command, summary pipeline.DrainSummary) {
	out := cmd.OutOrStdout()
	if summary.Total() == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return
	}
	kind := statusOK
	if summary.Failed > 0 {
		kind = statusWarn
	}
	msg := fmt.Sprintf("%d processed, %d failed, %d discarded in %s",
		summary.Processed, summary.Failed, summary.Discarded, summary.Duration.Round(time.Millisecond))
	fmt.Fprintln(out, renderStatusLine("Queue", kind, msg, shouldColorize(out)))
}
