package linkstore

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

type document = map[string]Aggregate

// Store is the durable aggregate file.
type Store struct {
	file   *statefile.File[document]
	logger *slog.Logger
}

// NewStore binds a Store to path.
func NewStore(path string, opts statefile.Options, logger *slog.Logger) *Store {
	return &Store{
		file:   statefile.New[document](path, opts, logger),
		logger: logging.NewComponentLogger(logger, "linkstore"),
	}
}

// Get returns a copy of the aggregate for key. It never fails: lock timeouts
// and unreadable files are logged and yield an empty aggregate.
func (s *Store) Get(ctx context.Context, key string) Aggregate {
	doc, err := s.file.Load(ctx)
	if err != nil {
		logging.WarnWithContext(s.logger, "link aggregate unavailable; treating as empty", "aggregate_read_failed",
			logging.String(logging.FieldReleaseKey, key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
			logging.String(logging.FieldImpact, "readiness is evaluated without previously stored links"),
		)
		return Aggregate{}
	}
	if agg, ok := doc[key]; ok {
		return agg.Clone()
	}
	return Aggregate{}
}

// Merge stores link in the slot for host and returns the aggregate after the
// write. A later link for the same host replaces the earlier one.
func (s *Store) Merge(ctx context.Context, key, host, link string) (Aggregate, error) {
	key = strings.TrimSpace(key)
	link = strings.TrimSpace(link)
	if key == "" {
		return nil, errors.New("release key is required")
	}
	if link == "" {
		return nil, errors.New("link is required")
	}
	slot := Slot(host, link)

	var merged Aggregate
	_, err := s.file.Update(ctx, func(doc *document) error {
		if *doc == nil {
			*doc = make(document)
		}
		agg := (*doc)[key]
		if agg == nil {
			agg = Aggregate{}
		}
		agg[slot] = link
		(*doc)[key] = agg
		merged = agg.Clone()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("merge link for %s: %w", key, err)
	}
	s.logger.Debug("link merged",
		logging.String(logging.FieldReleaseKey, key),
		logging.String(logging.FieldHost, slot),
		logging.Int("slots", len(merged)),
	)
	return merged, nil
}

// Delete removes the aggregate for key. Deleting an absent key is not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.file.Update(ctx, func(doc *document) error {
		if *doc == nil {
			*doc = make(document)
		}
		delete(*doc, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete aggregate for %s: %w", key, err)
	}
	return nil
}

// Entry is one aggregate in List output.
type Entry struct {
	Key   string
	Links Aggregate
}

// List returns every aggregate sorted by key.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	doc, err := s.file.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(doc))
	for key, agg := range doc {
		out = append(out, Entry{Key: key, Links: agg.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, statefile.ErrLockTimeout):
		return "another uploader held the aggregate lock; the next link arrival re-reads it"
	case errors.Is(err, statefile.ErrCorrupt):
		return "the aggregate file is quarantined on the next write"
	default:
		return "check permissions on the state directory"
	}
}
