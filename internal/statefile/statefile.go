package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"autouploader/internal/fileutil"
	"autouploader/internal/logging"
)

var (
	// ErrLockTimeout is returned when the advisory lock could not be taken
	// within the configured attempts.
	ErrLockTimeout = errors.New("state file lock not acquired")
	// ErrCorrupt is returned when a state file exists but does not decode.
	ErrCorrupt = errors.New("state file is corrupt")
)

const (
	defaultAttempts       = 5
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
)

// Options bounds how long a caller waits for the lock.
type Options struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultOptions returns a handful of attempts with short exponential backoff.
func DefaultOptions() Options {
	return Options{
		Attempts:       defaultAttempts,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
	}
}

func (o Options) normalized() Options {
	if o.Attempts < 1 {
		o.Attempts = defaultAttempts
	}
	if o.InitialBackoff < 0 {
		o.InitialBackoff = defaultInitialBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = defaultMaxBackoff
	}
	return o
}

// Lock takes an exclusive advisory lock on <path>.lock. The returned release
// function must be called on every exit path.
func Lock(ctx context.Context, path string, opts Options) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts = opts.normalized()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	delay := opts.InitialBackoff
	for attempt := 0; attempt < opts.Attempts; attempt++ {
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", path, err)
		}
		if ok {
			return func() { _ = lock.Unlock() }, nil
		}
		if attempt == opts.Attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if next := delay * 2; next <= opts.MaxBackoff {
			delay = next
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
}

// Read decodes path into v. Missing or empty files report ok=false.
func Read(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return true, nil
}

// WriteAtomic encodes v as indented JSON and atomically replaces path.
func WriteAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// File is a JSON document on disk guarded by an advisory lock. All reads and
// writes take the lock so concurrent processes never interleave a
// read-modify-write.
type File[T any] struct {
	path   string
	opts   Options
	logger *slog.Logger
}

// New returns a File bound to path.
func New[T any](path string, opts Options, logger *slog.Logger) *File[T] {
	return &File[T]{path: path, opts: opts.normalized(), logger: logging.NewComponentLogger(logger, "statefile")}
}

// Path returns the backing file location.
func (f *File[T]) Path() string {
	return f.path
}

// Load reads the current value under the lock. A missing file yields the zero
// value. Corrupt files return ErrCorrupt and are left untouched.
func (f *File[T]) Load(ctx context.Context) (T, error) {
	var value T
	unlock, err := Lock(ctx, f.path, f.opts)
	if err != nil {
		return value, err
	}
	defer unlock()

	if _, err := Read(f.path, &value); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

// Update runs fn against the current value and persists the result. If fn
// returns an error nothing is written. A corrupt file is moved aside to
// <path>.corrupt-<unix> and fn starts from the zero value, so other keys are
// recoverable by hand rather than silently overwritten.
func (f *File[T]) Update(ctx context.Context, fn func(*T) error) (T, error) {
	var value T
	unlock, err := Lock(ctx, f.path, f.opts)
	if err != nil {
		return value, err
	}
	defer unlock()

	if _, err := Read(f.path, &value); err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return value, err
		}
		var zero T
		value = zero
		f.quarantine(err)
	}

	if err := fn(&value); err != nil {
		var zero T
		return zero, err
	}
	if err := WriteAtomic(f.path, value); err != nil {
		var zero T
		return zero, fmt.Errorf("persist %s: %w", filepath.Base(f.path), err)
	}
	return value, nil
}

func (f *File[T]) quarantine(cause error) {
	backup := f.path + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
	renameErr := os.Rename(f.path, backup)
	attrs := []logging.Attr{
		logging.String("path", f.path),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "inspect the quarantined copy and restore entries by hand if needed"),
		logging.String(logging.FieldImpact, "state restarts empty for this file"),
	}
	if renameErr == nil {
		attrs = append(attrs, logging.String("quarantined_to", backup))
	} else {
		attrs = append(attrs, logging.String("quarantine_error", renameErr.Error()))
	}
	logging.WarnWithContext(f.logger, "corrupt state file replaced", "state_file_corrupt", attrs...)
}
