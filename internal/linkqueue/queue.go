// Package linkqueue stores links waiting to be published, one JSON file per
// link, so producers never contend on a shared file.
package linkqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"autouploader/internal/logging"
	"autouploader/internal/statefile"
)

// ErrCorrupt marks a queue file that cannot be decoded or lacks a link or
// filename. Such files are discarded rather than retried.
var ErrCorrupt = errors.New("queue item is corrupt")

const (
	filePrefix      = "link_"
	fileSuffix      = ".json"
	timestampLayout = "20060102_150405"
)

// Item is the persisted unit of work.
type Item struct {
	Link          string `json:"link"`
	Filename      string `json:"filename"`
	Timestamp     string `json:"timestamp"`
	Processed     bool   `json:"processed"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
}

// Entry is a queue file on disk.
type Entry struct {
	Path    string
	ModTime time.Time
}

// Queue is a directory of pending items.
type Queue struct {
	dir    string
	opts   statefile.Options
	logger *slog.Logger
	now    func() time.Time
}

// New returns a queue rooted at dir.
func New(dir string, opts statefile.Options, logger *slog.Logger) *Queue {
	return &Queue{
		dir:    dir,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "linkqueue"),
		now:    time.Now,
	}
}

// formatTimestamp renders t as 20060102_150405 plus microseconds.
func formatTimestamp(t time.Time) string {
	return fmt.Sprintf("%s_%06d", t.Format(timestampLayout), t.Nanosecond()/int(time.Microsecond))
}

// Dir returns the queue directory.
func (q *Queue) Dir() string {
	return q.dir
}

func (q *Queue) lockPath() string {
	return filepath.Join(q.dir, ".queue")
}

// Enqueue writes item as a new queue file and returns its path. Timestamp is
// filled in when empty.
func (q *Queue) Enqueue(ctx context.Context, item Item) (string, error) {
	item.Link = strings.TrimSpace(item.Link)
	item.Filename = strings.TrimSpace(item.Filename)
	item.ThumbnailPath = strings.TrimSpace(item.ThumbnailPath)
	if item.Link == "" || item.Filename == "" {
		return "", errors.New("queue item requires link and filename")
	}
	if item.Timestamp == "" {
		item.Timestamp = formatTimestamp(q.now())
	}
	item.Processed = false

	unlock, err := statefile.Lock(ctx, q.lockPath(), q.opts)
	if err != nil {
		return "", err
	}
	defer unlock()

	name := filePrefix + item.Timestamp + "_" + uuid.NewString()[:8] + fileSuffix
	path := filepath.Join(q.dir, name)
	if err := statefile.WriteAtomic(path, item); err != nil {
		return "", fmt.Errorf("write queue item: %w", err)
	}
	q.logger.Debug("queued link",
		logging.String("queue_file", name),
		logging.String("filename", item.Filename),
	)
	return path, nil
}

// List returns queue files oldest first by modification time, ties broken by
// name.
func (q *Queue) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(q.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read queue dir: %w", err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Path: filepath.Join(q.dir, name), ModTime: info.ModTime()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.Before(entries[j].ModTime)
		}
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// Load decodes the item at path.
func (q *Queue) Load(path string) (Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Item{}, fmt.Errorf("read queue item: %w", err)
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return Item{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	if strings.TrimSpace(item.Link) == "" || strings.TrimSpace(item.Filename) == "" {
		return Item{}, fmt.Errorf("%w: %s: missing link or filename", ErrCorrupt, filepath.Base(path))
	}
	return item, nil
}

// Remove deletes a queue file. A file that is already gone is not an error.
func (q *Queue) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove queue item: %w", err)
	}
	return nil
}

// Clear removes every queue file and returns how many were removed.
func (q *Queue) Clear(ctx context.Context) (int, error) {
	unlock, err := statefile.Lock(ctx, q.lockPath(), q.opts)
	if err != nil {
		return 0, err
	}
	defer unlock()

	entries, err := q.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := q.Remove(e.Path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
