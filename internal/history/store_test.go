package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	events := []Event{
		{RecordedAt: base, ReleaseKey: "A", Title: "A", Link: "https://x/1", Status: StatusWaiting},
		{RecordedAt: base.Add(time.Minute), ReleaseKey: "A", Title: "A", Link: "https://x/2", PostID: 5, PostURL: "https://site/a", Status: StatusPublished},
		{ReleaseKey: "B", Title: strings.Repeat("é", 150), Status: StatusFailed, Detail: "boom"},
	}
	for _, ev := range events {
		if err := store.Record(ctx, ev); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent returned %d events", len(recent))
	}
	if recent[0].ReleaseKey != "B" || recent[0].Status != StatusFailed || recent[0].RecordedAt.IsZero() {
		t.Fatalf("newest event = %+v", recent[0])
	}
	if len(recent[0].Title) > maxFieldLen || !strings.HasPrefix(recent[0].Title, "éé") {
		t.Fatalf("title not truncated on a rune boundary: %d bytes", len(recent[0].Title))
	}
	if recent[1].PostID != 5 || recent[1].PostURL != "https://site/a" || !recent[1].RecordedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("second event = %+v", recent[1])
	}

	all, err := store.Recent(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("Recent(0) = %d events, %v", len(all), err)
	}
}

func TestRecordRequiresStatus(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), Event{Title: "x"}); err == nil {
		t.Fatal("expected error for missing status")
	}
}

func TestReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Record(context.Background(), Event{Title: "x", Status: StatusUpdated}); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	events, err := reopened.Recent(context.Background(), 10)
	if err != nil || len(events) != 1 || events[0].Status != StatusUpdated {
		t.Fatalf("Recent after reopen = %+v, %v", events, err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Open error = %v, want ErrSchemaMismatch", err)
	}
}

func TestConcurrentRecords(t *testing.T) {
	store := openStore(t)
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Record(context.Background(), Event{Title: "x", Status: StatusPublished})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	events, _ := store.Recent(context.Background(), 0)
	if len(events) != 20 {
		t.Fatalf("expected 20 events, got %d", len(events))
	}
}

func TestExportCSV(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	_ = store.Record(ctx, Event{RecordedAt: at, Title: "Movie", Link: "https://x/1", PostURL: "https://site/m", Status: StatusPublished})
	_ = store.Record(ctx, Event{RecordedAt: at.Add(time.Second), Title: "Other, \"quoted\"", Link: "https://x/2", Status: StatusFailed, Detail: "timeout"})

	var buf bytes.Buffer
	if err := store.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "Timestamp" || records[0][4] != "Status" {
		t.Fatalf("header = %v", records[0])
	}
	if records[1][0] != "2024-01-02T03:04:05Z" || records[1][1] != "Movie" || records[1][3] != "https://site/m" || records[1][4] != "✅ Posted" {
		t.Fatalf("row 1 = %v", records[1])
	}
	if records[2][1] != `Other, "quoted"` || records[2][4] != "❌ Error: timeout" {
		t.Fatalf("row 2 = %v", records[2])
	}
}
