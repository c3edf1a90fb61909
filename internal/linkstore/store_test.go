package linkstore

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"autouploader/internal/statefile"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pending_links.json")
	opts := statefile.Options{Attempts: 200, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	return NewStore(path, opts, nil), path
}

func TestGetMissingKeyIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	if got := store.Get(context.Background(), "nothing"); len(got) != 0 {
		t.Fatalf("expected empty aggregate, got %v", got)
	}
}

func TestMergeRoundTripAcrossInstances(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Merge(ctx, "Show.S01E01", "rapidgator", "https://rapidgator.net/a"); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	fresh := NewStore(path, statefile.DefaultOptions(), nil)
	got := fresh.Get(ctx, "Show.S01E01")
	want := Aggregate{"rapidgator": "https://rapidgator.net/a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Get = %v, want %v", got, want)
	}
}

func TestMergeIsOrderIndependent(t *testing.T) {
	ctx := context.Background()
	want := Aggregate{"rapidgator": "L1", "nitroflare": "L2"}

	a, _ := newTestStore(t)
	_, _ = a.Merge(ctx, "k", "rapidgator", "L1")
	gotA, err := a.Merge(ctx, "k", "nitroflare", "L2")
	if err != nil {
		t.Fatal(err)
	}

	b, _ := newTestStore(t)
	_, _ = b.Merge(ctx, "k", "nitroflare", "L2")
	gotB, err := b.Merge(ctx, "k", "rapidgator", "L1")
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(gotA, want) || !reflect.DeepEqual(gotB, want) {
		t.Fatalf("merge not convergent: %v vs %v", gotA, gotB)
	}
}

func TestMergeLastWriterWinsPerHost(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = store.Merge(ctx, "k", "rapidgator", "old")
	got, err := store.Merge(ctx, "k", "rapidgator", "new")
	if err != nil {
		t.Fatal(err)
	}
	if got["rapidgator"] != "new" || len(got) != 1 {
		t.Fatalf("aggregate = %v", got)
	}
}

func TestUnknownLinksAccumulate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = store.Merge(ctx, "k", "unknown", "https://a.example/1")
	got, err := store.Merge(ctx, "k", "", "https://b.example/2")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two unknown slots, got %v", got)
	}
	if len(got.Hosts()) != 0 {
		t.Fatalf("unknown slots reported as hosts: %v", got.Hosts())
	}
	wantMirrors := []string{"https://a.example/1", "https://b.example/2"}
	if links := got.MirrorLinks([]string{"rapidgator"}); !reflect.DeepEqual(links, wantMirrors) {
		t.Fatalf("MirrorLinks = %v", links)
	}
}

func TestMergeRejectsEmptyInput(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.Merge(context.Background(), "", "rapidgator", "x"); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := store.Merge(context.Background(), "k", "rapidgator", " "); err == nil {
		t.Fatal("expected error for empty link")
	}
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = store.Merge(ctx, "a", "rapidgator", "1")
	_, _ = store.Merge(ctx, "b", "rapidgator", "2")

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Key != "b" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestGetDegradesOnCorruptFile(t *testing.T) {
	store, path := newTestStore(t)
	if err := os.WriteFile(path, []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := store.Get(context.Background(), "k"); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
	// A merge starts over from an empty document.
	got, err := store.Merge(context.Background(), "k", "rapidgator", "L")
	if err != nil {
		t.Fatalf("Merge after corrupt: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("aggregate = %v", got)
	}
}

func TestGetDegradesAndMergeFailsWhileLocked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pending_links.json")
	quick := statefile.Options{Attempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	store := NewStore(path, quick, nil)
	ctx := context.Background()
	if _, err := store.Merge(ctx, "k", "rapidgator", "L"); err != nil {
		t.Fatal(err)
	}

	release, err := statefile.Lock(ctx, path, quick)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	if got := store.Get(ctx, "k"); len(got) != 0 {
		t.Fatalf("expected empty while locked, got %v", got)
	}
	if _, err := store.Merge(ctx, "k", "nitroflare", "M"); err == nil {
		t.Fatal("expected Merge to fail while locked")
	}
	if err := store.Delete(ctx, "k"); err == nil {
		t.Fatal("expected Delete to fail while locked")
	}
}

func TestConcurrentMergesKeepEveryHost(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()
	hostsList := []string{"rapidgator", "nitroflare", "uploadgig", "filefactory", "keep2share", "mega"}

	var wg sync.WaitGroup
	for _, h := range hostsList {
		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			other := NewStore(path, statefile.Options{Attempts: 500, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}, nil)
			if _, err := other.Merge(ctx, "k", host, "link-"+host); err != nil {
				t.Errorf("Merge %s: %v", host, err)
			}
		}(h)
	}
	wg.Wait()

	got := store.Get(ctx, "k")
	if len(got) != len(hostsList) {
		t.Fatalf("aggregate = %v", got)
	}
}
