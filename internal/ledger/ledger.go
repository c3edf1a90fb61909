// Package ledger records which remote post was created for each release.
//
// The file maps a release RawKey to a post id. It shares the statefile lock
// and atomic write discipline with the link aggregate store. Entries are only
// removed by reconciliation or by an operator.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"autouploader/internal/logging"
	"autouploader/internal/statefile"
)

type document = map[string]int64

// Ledger is the posted-items file.
type Ledger struct {
	file   *statefile.File[document]
	logger *slog.Logger
}

// New binds a Ledger to path.
func New(path string, opts statefile.Options, logger *slog.Logger) *Ledger {
	return &Ledger{
		file:   statefile.New[document](path, opts, logger),
		logger: logging.NewComponentLogger(logger, "ledger"),
	}
}

// Lookup returns the post id recorded for key. A corrupt file is logged and
// reads as absent; a lock timeout is returned so callers do not mistake
// contention for a first sighting. Zero ids (null values written by older
// tools) read as absent.
func (l *Ledger) Lookup(ctx context.Context, key string) (int64, bool, error) {
	doc, err := l.file.Load(ctx)
	if err != nil {
		if errors.Is(err, statefile.ErrCorrupt) {
			logging.WarnWithContext(l.logger, "ledger corrupt; treating release as new", "ledger_corrupt",
				logging.String(logging.FieldReleaseKey, key),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the file is quarantined on the next record"),
				logging.String(logging.FieldImpact, "a duplicate post may be created and later reconciled"),
			)
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("ledger lookup %s: %w", key, err)
	}
	id, ok := doc[key]
	if !ok || id <= 0 {
		return 0, false, nil
	}
	return id, true, nil
}

// IsNew reports whether no post is recorded for key.
func (l *Ledger) IsNew(ctx context.Context, key string) (bool, error) {
	_, ok, err := l.Lookup(ctx, key)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Record upserts the post id for key.
func (l *Ledger) Record(ctx context.Context, key string, postID int64) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("release key is required")
	}
	if postID <= 0 {
		return fmt.Errorf("invalid post id %d", postID)
	}
	_, err := l.file.Update(ctx, func(doc *document) error {
		if *doc == nil {
			*doc = make(document)
		}
		(*doc)[key] = postID
		return nil
	})
	if err != nil {
		return fmt.Errorf("record post for %s: %w", key, err)
	}
	l.logger.Debug("post recorded",
		logging.String(logging.FieldReleaseKey, key),
		logging.Int64("post_id", postID),
	)
	return nil
}

// Forget removes key. The bool reports whether an entry existed.
func (l *Ledger) Forget(ctx context.Context, key string) (bool, error) {
	existed := false
	_, err := l.file.Update(ctx, func(doc *document) error {
		if *doc == nil {
			*doc = make(document)
		}
		_, existed = (*doc)[key]
		delete(*doc, key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("forget %s: %w", key, err)
	}
	return existed, nil
}

// Entry is one ledger row.
type Entry struct {
	Key    string
	PostID int64
}

// List returns every entry sorted by key.
func (l *Ledger) List(ctx context.Context) ([]Entry, error) {
	doc, err := l.file.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(doc))
	for k, v := range doc {
		out = append(out, Entry{Key: k, PostID: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
