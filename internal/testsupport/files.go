package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path, and any missing parent directories, holding size
// filler bytes. A size <= 0 writes a single byte. Thumbnail and poster
// fixtures only need to exist with a known size.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xFF}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
