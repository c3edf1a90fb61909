package history

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the outcome recorded for an invocation.
type Status string

const (
	StatusPublished Status = "published"
	StatusUpdated   Status = "updated"
	StatusMerged    Status = "merged"
	StatusWaiting   Status = "waiting"
	StatusFailed    Status = "failed"
	StatusDiscarded Status = "discarded"
)

// Label is the human-readable status used in CSV exports and tables.
func (s Status) Label() string {
	switch s {
	case StatusPublished:
		return "✅ Posted"
	case StatusUpdated:
		return "🔄 Updated with new links"
	case StatusMerged:
		return "🔄 Merged duplicate posts"
	case StatusWaiting:
		return "⏳ Waiting for primary hosts"
	case StatusFailed:
		return "❌ Error"
	case StatusDiscarded:
		return "🗑 Discarded"
	default:
		return string(s)
	}
}

// Event is one recorded outcome.
type Event struct {
	ID         int64
	RecordedAt time.Time
	ReleaseKey string
	Title      string
	Link       string
	PostID     int64
	PostURL    string
	Status     Status
	Detail     string
}

const maxFieldLen = 200

// Store is the audit database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func truncate(s string) string {
	if len(s) <= maxFieldLen {
		return s
	}
	cut := maxFieldLen
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

// Record appends ev. RecordedAt defaults to now.
func (s *Store) Record(ctx context.Context, ev Event) error {
	if s == nil {
		return nil
	}
	if ev.Status == "" {
		return errors.New("history event requires a status")
	}
	at := ev.RecordedAt
	if at.IsZero() {
		at = s.now()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO events (recorded_at, release_key, title, link, post_id, post_url, status, detail)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			at.UTC().Format(time.RFC3339Nano),
			ev.ReleaseKey,
			truncate(ev.Title),
			truncate(ev.Link),
			ev.PostID,
			truncate(ev.PostURL),
			string(ev.Status),
			ev.Detail,
		)
		return err
	})
}

// Recent returns up to limit events, newest first. A non-positive limit
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	query := `SELECT id, recorded_at, release_key, title, link, post_id, post_url, status, detail
		FROM events ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev     Event
			at     string
			status string
		)
		if err := rows.Scan(&ev.ID, &at, &ev.ReleaseKey, &ev.Title, &ev.Link, &ev.PostID, &ev.PostURL, &status, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Status = Status(status)
		if parsed, err := time.Parse(time.RFC3339Nano, at); err == nil {
			ev.RecordedAt = parsed
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ExportCSV writes every event oldest first with the columns Timestamp,
// Title, Source Link, WP Link, Status.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	events, err := s.Recent(ctx, 0)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Timestamp", "Title", "Source Link", "WP Link", "Status"}); err != nil {
		return err
	}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		status := ev.Status.Label()
		if ev.Status == StatusFailed && ev.Detail != "" {
			status += ": " + ev.Detail
		}
		wpLink := ev.PostURL
		if wpLink == "" && ev.PostID > 0 {
			wpLink = "post " + strconv.FormatInt(ev.PostID, 10)
		}
		if err := cw.Write([]string{ev.RecordedAt.Format(time.RFC3339), ev.Title, ev.Link, wpLink, status}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
