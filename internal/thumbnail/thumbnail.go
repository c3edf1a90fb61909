package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"autouploader/internal/apiclient"
	"autouploader/internal/logging"
	"autouploader/internal/metadata"
	"autouploader/internal/release"
	"autouploader/internal/textutil"
	"autouploader/internal/wordpress"
)

// MediaStore is the part of the publishing backend that stores images.
type MediaStore interface {
	FindMedia(ctx context.Context, search string) (wordpress.Media, bool, error)
	UploadMedia(ctx context.Context, path string) (wordpress.Media, error)
}

// Options configures an Acquirer.
type Options struct {
	Enabled        bool
	PreferredImage string
	MaxImageBytes  int64
	ThumbnailDir   string
	TempDir        string
	Timeout        time.Duration
	HTTPClient     *http.Client
}

// Request describes the release an image is wanted for. Hint is the path of
// the release file on disk, if known.
type Request struct {
	Identity release.Identity
	Info     metadata.Info
	Hint     string
}

// Result holds the acquired images. Zero values mean none.
type Result struct {
	FeaturedMediaID int64
	PosterURL       string
	ThumbnailURL    string
}

// HTML returns an img tag for the body thumbnail, falling back to the poster.
func (r Result) HTML(alt string) string {
	src := r.ThumbnailURL
	if src == "" {
		src = r.PosterURL
	}
	if src == "" {
		return ""
	}
	return fmt.Sprintf(`<img src="%s" alt="%s">`, html.EscapeString(src), html.EscapeString(alt))
}

// Acquirer finds or uploads post images.
type Acquirer struct {
	store  MediaStore
	opts   Options
	http   *apiclient.Client
	logger *slog.Logger
}

// New builds an Acquirer.
func New(store MediaStore, opts Options, logger *slog.Logger) *Acquirer {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = 5 * 1024 * 1024
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Acquirer{
		store:  store,
		opts:   opts,
		http:   apiclient.New(opts.Timeout, 0, apiclient.WithHTTPClient(opts.HTTPClient)),
		logger: logging.NewComponentLogger(logger, "thumbnail"),
	}
}

// Acquire resolves the featured poster and the body thumbnail for req. Only
// a failed upload of a thumbnail found on disk is returned as an error.
func (a *Acquirer) Acquire(ctx context.Context, req Request) (Result, error) {
	var result Result
	if a == nil || !a.opts.Enabled || a.store == nil {
		return result, nil
	}
	logger := a.logger.With(logging.String(logging.FieldReleaseKey, req.Identity.RawKey))

	if media, ok := a.poster(ctx, req, logger); ok {
		result.FeaturedMediaID = media.ID
		result.PosterURL = media.SourceURL
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	thumbURL, err := a.thumbnail(ctx, req, logger)
	if err != nil {
		return result, err
	}
	result.ThumbnailURL = thumbURL
	return result, nil
}

func (a *Acquirer) poster(ctx context.Context, req Request, logger *slog.Logger) (wordpress.Media, bool) {
	slug := textutil.Slug(req.Identity.CleanTitle)
	if slug == "" {
		slug = "release"
	}
	name := slug + "_poster"
	if media, ok, err := a.store.FindMedia(ctx, name); err != nil {
		logging.WarnWithContext(logger, "poster lookup failed", "poster_lookup_failed",
			logging.Error(err),
			logging.String("media_search", name),
			logging.String(logging.FieldImpact, "a duplicate poster may be uploaded"),
		)
	} else if ok {
		logger.Debug("reusing poster", logging.Int64("media_id", media.ID))
		return media, true
	}

	imageURL := req.Info.Image(a.opts.PreferredImage)
	if imageURL == "" {
		return wordpress.Media{}, false
	}
	local, cleanup, err := a.download(ctx, imageURL, name)
	if err != nil {
		logging.WarnWithContext(logger, "poster download failed", "poster_download_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "post is published without a featured image"),
		)
		return wordpress.Media{}, false
	}
	defer cleanup()

	media, err := a.store.UploadMedia(ctx, local)
	if err != nil {
		logging.WarnWithContext(logger, "poster upload failed", "poster_upload_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "post is published without a featured image"),
		)
		return wordpress.Media{}, false
	}
	logger.Info("uploaded poster", logging.Int64("media_id", media.ID))
	return media, true
}

func (a *Acquirer) thumbnail(ctx context.Context, req Request, logger *slog.Logger) (string, error) {
	base := req.Identity.RawKey
	if base == "" {
		return "", nil
	}

	pattern := corePattern(base)
	if media, ok, err := a.store.FindMedia(ctx, pattern); err != nil {
		logger.Debug("thumbnail lookup failed", logging.Error(err))
	} else if ok && strings.Contains(strings.ToLower(media.SourceURL), "_thumb_1") {
		return media.SourceURL, nil
	}

	dirs := []string{a.opts.ThumbnailDir}
	if hint := strings.TrimSpace(req.Hint); hint != "" {
		dirs = append(dirs, filepath.Dir(hint))
	}
	local, ok := FindLocal(dirs, base)
	if !ok {
		logger.Debug("no local thumbnail found")
		return "", nil
	}
	media, err := a.store.UploadMedia(ctx, local)
	if err != nil {
		return "", fmt.Errorf("upload thumbnail %s: %w", filepath.Base(local), err)
	}
	logger.Info("uploaded thumbnail",
		logging.String("thumbnail_path", local),
		logging.Int64("media_id", media.ID),
	)
	return media.SourceURL, nil
}

// download fetches imageURL into a temporary "<name><ext>" file, refusing
// bodies larger than MaxImageBytes.
func (a *Acquirer) download(ctx context.Context, imageURL, name string) (string, func(), error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", nil, fmt.Errorf("unsupported image url %q", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.ContentLength > a.opts.MaxImageBytes {
		return "", nil, fmt.Errorf("image too large: %d bytes", resp.ContentLength)
	}

	dir, err := os.MkdirTemp(a.opts.TempDir, "poster-")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	target := filepath.Join(dir, name+imageExt(parsed.Path))
	file, err := os.Create(target)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	n, copyErr := io.Copy(file, io.LimitReader(resp.Body, a.opts.MaxImageBytes+1))
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		err = copyErr
	case closeErr != nil:
		err = closeErr
	case n == 0:
		err = errors.New("image is empty")
	case n > a.opts.MaxImageBytes:
		err = fmt.Errorf("image exceeds %d bytes", a.opts.MaxImageBytes)
	}
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return target, cleanup, nil
}

func imageExt(p string) string {
	ext := strings.ToLower(path.Ext(p))
	for _, known := range imageExtensions {
		if ext == "."+known {
			return ext
		}
	}
	return ".jpg"
}
