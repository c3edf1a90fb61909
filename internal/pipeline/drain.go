package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"autouploader/internal/history"
	"autouploader/internal/linkqueue"
	"autouploader/internal/logging"
)

// Drain processes queued items oldest first until a listing shows nothing it
// has not already tried, so links queued while the drain runs are picked up
// too. Each item is isolated: a failure leaves that item queued for the next
// drain and this one moves on. Corrupt items are removed. Only listing the
// queue or cancellation stops the drain early.
func (u *Uploader) Drain(ctx context.Context, q *linkqueue.Queue) (DrainSummary, error) {
	start := time.Now()
	logger := logging.WithContext(ctx, u.logger).With(logging.String("queue_dir", q.Dir()))

	var summary DrainSummary
	tried := make(map[string]struct{})
	for pass := 1; ; pass++ {
		entries, err := q.List()
		if err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("list queue: %w", err)
		}
		fresh := entries[:0]
		for _, entry := range entries {
			if _, ok := tried[entry.Path]; !ok {
				fresh = append(fresh, entry)
			}
		}
		if len(fresh) == 0 {
			break
		}
		if pass == 1 {
			logger.Info("queue drain started", logging.Int("items", len(fresh)))
		} else {
			logger.Info("new queue items found", logging.Int("items", len(fresh)), logging.Int("pass", pass))
		}

		for _, entry := range fresh {
			if err := ctx.Err(); err != nil {
				summary.Duration = time.Since(start)
				return summary, err
			}
			tried[entry.Path] = struct{}{}
			u.drainItem(ctx, logger, q, entry.Path, &summary)
		}
	}
	summary.Duration = time.Since(start)

	logger.Info("queue drain completed",
		logging.String(logging.FieldEventType, "queue_drained"),
		logging.Int("processed", summary.Processed),
		logging.Int("failed", summary.Failed),
		logging.Int("discarded", summary.Discarded),
		logging.Duration("duration", summary.Duration),
	)
	if summary.Total() > 0 {
		if err := u.notifier.NotifyDrainCompleted(ctx, summary.Processed, summary.Failed, summary.Discarded, summary.Duration); err != nil {
			logger.Debug("notification failed", logging.String("notification", "drain"), logging.Error(err))
		}
	}
	return summary, nil
}

func (u *Uploader) drainItem(ctx context.Context, logger *slog.Logger, q *linkqueue.Queue, path string, summary *DrainSummary) {
	name := filepath.Base(path)

	item, err := q.Load(path)
	switch {
	case errors.Is(err, linkqueue.ErrCorrupt):
		u.discard(ctx, q, path, err)
		summary.Discarded++
		return
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("queue item taken by another drain", logging.String("item", name))
		return
	case err != nil:
		logging.WarnWithContext(logger, "queue item unreadable", "queue_item_unreadable",
			logging.String("item", name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "item left in the queue"),
		)
		summary.Failed++
		return
	}

	if _, err := u.Process(ctx, Event{Link: item.Link, Filename: item.Filename, ThumbnailPath: item.ThumbnailPath}); err != nil {
		summary.Failed++
		return
	}
	if err := q.Remove(path); err != nil {
		logging.WarnWithContext(logger, "processed queue item not removed", "queue_remove_failed",
			logging.String("item", name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the link is processed again on the next drain"),
		)
	}
	summary.Processed++
}

func (u *Uploader) discard(ctx context.Context, q *linkqueue.Queue, path string, cause error) {
	logger := u.logger.With(logging.String("item", filepath.Base(path)))
	logging.WarnWithContext(logger, "discarding corrupt queue item", "queue_item_corrupt",
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "re-enqueue the link if it is still needed"),
		logging.String(logging.FieldImpact, "item removed without processing"),
	)
	if err := q.Remove(path); err != nil {
		logger.Warn("corrupt queue item not removed", logging.Error(err))
	}
	if u.history == nil {
		return
	}
	if err := u.history.Record(ctx, history.Event{
		Title:  filepath.Base(path),
		Status: history.StatusDiscarded,
		Detail: cause.Error(),
	}); err != nil {
		logger.Debug("history record failed", logging.Error(err))
	}
}
