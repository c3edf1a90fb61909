package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"autouploader/internal/apiclient"
	"autouploader/internal/history"
	"autouploader/internal/hosts"
	"autouploader/internal/linkstore"
	"autouploader/internal/logging"
	"autouploader/internal/metadata"
	"autouploader/internal/readiness"
	"autouploader/internal/reconcile"
	"autouploader/internal/release"
	"autouploader/internal/render"
	"autouploader/internal/statefile"
	"autouploader/internal/thumbnail"
	"autouploader/internal/wordpress"
)

// invocation is the working state of one Process call.
type invocation struct {
	u      *Uploader
	ev     Event
	id     release.Identity
	logger *slog.Logger

	detector *hosts.Detector
	host     string
	agg      linkstore.Aggregate
	info     metadata.Info
	thumb    thumbnail.Result

	result Result
}

// Process runs one link arrival through the state machine. The error is
// non-nil only when the invocation ends in FAILED; Result is populated
// either way.
func (u *Uploader) Process(ctx context.Context, ev Event) (Result, error) {
	ev = ev.normalized()
	id := release.Parse(ev.Filename)
	ctx = logging.WithReleaseKey(ctx, id.RawKey)

	r := &invocation{
		u:  u,
		ev: ev,
		id: id,
		logger: logging.WithContext(ctx, u.logger).With(
			logging.String("link", ev.Link),
			logging.String("filename", ev.Filename),
		),
		result: Result{State: StateParsed, Key: id.RawKey, Title: id.PostTitle()},
	}
	if err := r.run(ctx); err != nil {
		return r.fail(ctx, err)
	}
	return r.result, nil
}

func (r *invocation) run(ctx context.Context) error {
	if r.ev.Link == "" || r.ev.Filename == "" {
		return ErrInvalidEvent
	}
	if err := r.aggregate(ctx); err != nil {
		return err
	}

	primaries := r.detector.PrimaryHosts()
	if !readiness.IsReady(r.host, r.agg, primaries, r.u.cfg.Posting.RequireAllPrimaryHosts) {
		r.wait(ctx, readiness.Missing(r.host, r.agg, primaries))
		return nil
	}
	r.transition(StateReady)

	if err := r.lookupMetadata(ctx); err != nil {
		return err
	}
	thumb, err := r.u.thumbs.Acquire(ctx, thumbnail.Request{
		Identity: r.id,
		Info:     r.info,
		Hint:     firstNonEmpty(r.ev.ThumbnailPath, r.ev.Filename),
	})
	if err != nil {
		return fmt.Errorf("acquire thumbnail: %w", err)
	}
	r.thumb = thumb

	return r.publish(ctx)
}

func (r *invocation) transition(next State) {
	r.logger.Debug("state transition",
		logging.String("from", string(r.result.State)),
		logging.String(logging.FieldState, string(next)),
	)
	r.result.State = next
}

// aggregate takes the host table snapshot used for the rest of the
// invocation and records the link.
func (r *invocation) aggregate(ctx context.Context) error {
	r.transition(StateAggregating)

	cfg := hosts.Load(ctx, r.u.cfg.HostConfigPath(), r.u.lockOpts, r.u.base)
	detector, err := hosts.NewDetector(cfg)
	if err != nil {
		// Hosts with valid patterns still resolve; the broken ones fall
		// through to unknown.
		logging.WarnWithContext(r.logger, "host pattern invalid; skipping it", "host_pattern_invalid",
			logging.String("path", r.u.cfg.HostConfigPath()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the regular expression in the host config patterns"),
			logging.String(logging.FieldImpact, "links for that host are recorded as unknown"),
		)
	}
	r.detector = detector
	r.host = detector.Detect(r.ev.Link)
	r.result.Host = r.host
	r.logger = r.logger.With(logging.String(logging.FieldHost, r.host))

	agg, err := r.u.links.Merge(ctx, r.id.RawKey, r.host, r.ev.Link)
	if err != nil {
		return fmt.Errorf("record link: %w", err)
	}
	r.agg = agg
	return nil
}

func (r *invocation) wait(ctx context.Context, missing []string) {
	r.transition(StateWaiting)
	r.result.Missing = missing
	r.logger.Info("waiting for primary hosts",
		logging.String("missing_hosts", strings.Join(missing, ",")),
		logging.Int("links", len(r.agg)),
	)
	r.audit(ctx, history.StatusWaiting, "missing: "+strings.Join(missing, ", "))
}

// lookupMetadata decorates the release with catalog data. Anime titles are
// replaced by the romaji title before anything is rendered or searched.
func (r *invocation) lookupMetadata(ctx context.Context) error {
	if r.u.metadata == nil {
		return nil
	}
	if r.u.cfg.Metadata.SkipLookupIfUnrecognized && !recognized(r.id) {
		r.logger.Debug("skipping metadata lookup for unrecognized filename")
		return nil
	}
	info, ok, err := r.u.metadata.Lookup(ctx, metadata.QueryFor(r.id))
	if err != nil {
		return fmt.Errorf("metadata lookup: %w", err)
	}
	if !ok {
		r.logger.Debug("no metadata found", logging.String("query", r.id.CleanTitle))
		return nil
	}
	r.info = info
	if r.id.IsAnime() && strings.TrimSpace(info.RomajiTitle) != "" {
		r.logger.Info("using romaji title",
			logging.String("parsed_title", r.id.CleanTitle),
			logging.String("romaji_title", info.RomajiTitle),
		)
		r.id = r.id.WithTitle(info.RomajiTitle)
		r.result.Title = r.id.PostTitle()
	}
	return nil
}

// recognized reports whether the parser produced a usable title. A title
// equal to the raw key means stripping found nothing but noise.
func recognized(id release.Identity) bool {
	if id.CleanTitle == "" || id.CleanTitle == "unknown" {
		return false
	}
	if id.CleanTitle != id.RawKey || id.Episode != nil {
		return true
	}
	plain := strings.IndexFunc(id.RawKey, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' '
	}) < 0
	return plain && id.Quality == release.QualityUnknown
}

// publish picks PUBLISHING, UPDATING or MERGING from the ledger entry and a
// single backend search.
func (r *invocation) publish(ctx context.Context) error {
	recordID, known, err := r.u.ledger.Lookup(ctx, r.id.RawKey)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	foundID, found, err := r.u.backend.Search(ctx, r.id)
	if err != nil {
		return fmt.Errorf("search existing post: %w", err)
	}
	links := reconcile.FromAggregate(r.agg, r.detector.PrimaryHosts())

	switch {
	case !known:
		r.transition(StatePublishing)
		if found {
			err = r.adopt(ctx, foundID, links)
		} else {
			err = r.create(ctx, links)
		}
	case !found || foundID == recordID:
		r.transition(StateUpdating)
		err = r.update(ctx, recordID, links)
	default:
		r.transition(StateMerging)
		if !r.merge(ctx, recordID, foundID, links) {
			r.finish(ctx, false)
			return nil
		}
	}
	if err != nil {
		return err
	}
	r.finish(ctx, true)
	return nil
}

func (r *invocation) create(ctx context.Context, links reconcile.Links) error {
	categories, tags, err := r.terms(ctx)
	if err != nil {
		return err
	}
	post, err := r.u.backend.Create(ctx, wordpress.NewPost{
		Title:         r.id.PostTitle(),
		Content:       r.body(links),
		Status:        r.u.cfg.WordPress.PostStatus,
		FeaturedMedia: r.thumb.FeaturedMediaID,
		Categories:    categories,
		Tags:          tags,
	})
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	r.setPost(post)
	if err := r.u.ledger.Record(ctx, r.id.RawKey, post.ID); err != nil {
		return fmt.Errorf("record post %d in ledger: %w", post.ID, err)
	}

	r.logger.Info("post created",
		logging.String(logging.FieldEventType, "post_created"),
		logging.Int64("post_id", post.ID),
		logging.String("post_url", post.Link),
	)
	r.audit(ctx, history.StatusPublished, "")
	r.notify(ctx, "published", func(ctx context.Context) error {
		return r.u.notifier.NotifyPublished(ctx, r.result.Title, post.Link)
	})
	return nil
}

// adopt takes over a post a peer created before our ledger write.
func (r *invocation) adopt(ctx context.Context, id int64, links reconcile.Links) error {
	r.logger.Info("adopting existing post", logging.Int64("post_id", id))
	if _, err := r.refresh(ctx, id, links); err != nil {
		return err
	}
	if err := r.u.ledger.Record(ctx, r.id.RawKey, id); err != nil {
		return fmt.Errorf("record post %d in ledger: %w", id, err)
	}
	r.updated(ctx)
	return nil
}

func (r *invocation) update(ctx context.Context, id int64, links reconcile.Links) error {
	gone, err := r.refresh(ctx, id, links)
	if err != nil {
		return err
	}
	if gone {
		logging.WarnWithContext(r.logger, "ledger post no longer exists; publishing a new one", "ledger_post_missing",
			logging.Int64("post_id", id),
			logging.String(logging.FieldErrorHint, "the post was deleted on the site"),
			logging.String(logging.FieldImpact, "a new post replaces it in the ledger"),
		)
		r.transition(StatePublishing)
		return r.create(ctx, links)
	}
	r.updated(ctx)
	return nil
}

// refresh re-renders post id with links merged over what the post already
// shows. gone reports that the post does not exist.
func (r *invocation) refresh(ctx context.Context, id int64, links reconcile.Links) (gone bool, err error) {
	existing, err := r.u.backend.Fetch(ctx, id)
	if apiclient.NotFound(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetch post %d: %w", id, err)
	}
	links = reconcile.MergeLinks(links, reconcile.Extract(existing.Content, r.detector), r.detector.PrimaryHosts())

	post, err := r.u.backend.Update(ctx, id, r.body(links))
	if err != nil {
		return false, fmt.Errorf("update post %d: %w", id, err)
	}
	r.setPost(post)
	return false, nil
}

func (r *invocation) updated(ctx context.Context) {
	r.logger.Info("post updated",
		logging.String(logging.FieldEventType, "post_updated"),
		logging.Int64("post_id", r.result.PostID),
		logging.String("post_url", r.result.PostURL),
	)
	r.audit(ctx, history.StatusUpdated, "")
	r.notify(ctx, "updated", func(ctx context.Context) error {
		return r.u.notifier.NotifyUpdated(ctx, r.result.Title, r.result.PostURL)
	})
}

// merge reconciles duplicate posts. Failures are reported, not returned.
func (r *invocation) merge(ctx context.Context, recordID, challengerID int64, links reconcile.Links) bool {
	r.logger.Warn("duplicate post detected",
		logging.String(logging.FieldEventType, "duplicate_detected"),
		logging.Int64("record_post_id", recordID),
		logging.Int64("challenger_post_id", challengerID),
	)
	engine := reconcile.NewEngine(r.u.backend, r.detector, r.u.cfg.WordPress.AllowPostDeletion, r.u.base)
	out := engine.Reconcile(ctx, reconcile.Request{
		Key:          r.id.RawKey,
		RecordID:     recordID,
		ChallengerID: challengerID,
		Current:      links,
		Render:       r.body,
	})
	r.result.PostID = recordID
	r.result.ChallengerID = challengerID
	r.result.Merged = out.Merged
	if out.Err != nil {
		r.audit(ctx, history.StatusFailed, "merge duplicate posts: "+out.Err.Error())
		return false
	}

	r.audit(ctx, history.StatusMerged, fmt.Sprintf("merged post %d into %d", challengerID, recordID))
	r.notify(ctx, "merged", func(ctx context.Context) error {
		return r.u.notifier.NotifyMerged(ctx, r.result.Title, out.DeletedChallenger)
	})
	return true
}

// finish moves to DONE. The aggregate is dropped only when cleanup is set
// and every primary host holds a link.
func (r *invocation) finish(ctx context.Context, cleanup bool) {
	r.result.Action = r.result.State
	r.transition(StateDone)
	if !cleanup {
		return
	}
	if !readiness.AllPresent(r.agg, r.detector.PrimaryHosts()) {
		r.logger.Debug("keeping link aggregate; primary hosts incomplete")
		return
	}
	if err := r.u.links.Delete(ctx, r.id.RawKey); err != nil {
		logging.WarnWithContext(r.logger, "link aggregate not removed", "aggregate_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale links stay on disk until the next arrival"),
		)
		return
	}
	r.result.AggregateCleared = true
}

func (r *invocation) fail(ctx context.Context, err error) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	r.result.FailedAt = r.result.State
	r.result.State = StateFailed

	logging.ErrorWithContext(r.logger, "upload failed", "upload_failed",
		logging.String("failed_state", string(r.result.FailedAt)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(err)),
	)
	r.audit(ctx, history.StatusFailed, err.Error())
	r.notify(ctx, "failed", func(ctx context.Context) error {
		return r.u.notifier.NotifyFailed(ctx, r.ev.Filename, err)
	})
	return r.result, err
}

func hintFor(err error) string {
	var status *wordpress.StatusError
	switch {
	case errors.Is(err, ErrInvalidEvent):
		return "pass both --link and --filename"
	case errors.Is(err, statefile.ErrLockTimeout):
		return "another upload holds the state files; retry shortly"
	case errors.As(err, &status) && (status.StatusCode == http.StatusUnauthorized || status.StatusCode == http.StatusForbidden):
		return "check wordpress.user and the application password"
	case apiclient.NotFound(err):
		return "the site returned 404; check wordpress.url"
	}
	return "queued items stay in the queue and are retried on the next drain"
}

func (r *invocation) setPost(post wordpress.Post) {
	r.result.PostID = post.ID
	r.result.PostURL = post.Link
}

func (r *invocation) terms(ctx context.Context) ([]int64, []int64, error) {
	categories := append([]string{r.id.CleanTitle}, r.u.cfg.WordPress.Categories...)
	categoryIDs, err := r.u.backend.ResolveTerms(ctx, categories, wordpress.TaxonomyCategories)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve categories: %w", err)
	}
	tags := append(r.id.Tags(), r.u.cfg.WordPress.Tags...)
	tagIDs, err := r.u.backend.ResolveTerms(ctx, tags, wordpress.TaxonomyTags)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve tags: %w", err)
	}
	return categoryIDs, tagIDs, nil
}

// body renders the post for links using the template for the release kind.
func (r *invocation) body(links reconcile.Links) string {
	return r.u.renderer.Render(string(r.id.Kind), r.renderContext(links))
}

func (r *invocation) renderContext(links reconcile.Links) render.Context {
	rc := render.Context{
		Title:        r.id.CleanTitle,
		FullTitle:    r.id.DisplayTitle(),
		Season:       r.id.Season(),
		Episode:      r.id.EpisodeIndex(),
		Quality:      string(r.id.Quality),
		Overview:     r.info.Overview,
		Rating:       r.info.Rating,
		Year:         r.info.Year,
		ReleaseDate:  r.info.ReleaseDate,
		Thumbnail:    r.thumb.HTML(r.id.CleanTitle),
		RomajiTitle:  r.info.RomajiTitle,
		EnglishTitle: r.info.EnglishTitle,
		Episodes:     r.info.Episodes,
		Studio:       r.info.Studio,
		Mirrors:      links.Mirrors,
	}
	for _, host := range r.detector.PrimaryHosts() {
		rc.Primaries = append(rc.Primaries, render.HostLink{
			Host:    host,
			Display: r.detector.DisplayName(host),
			Link:    links.Primary[host],
		})
	}
	return rc
}

func (r *invocation) audit(ctx context.Context, status history.Status, detail string) {
	if r.u.history == nil {
		return
	}
	err := r.u.history.Record(ctx, history.Event{
		ReleaseKey: r.id.RawKey,
		Title:      r.result.Title,
		Link:       r.ev.Link,
		PostID:     r.result.PostID,
		PostURL:    r.result.PostURL,
		Status:     status,
		Detail:     detail,
	})
	if err != nil {
		logging.WarnWithContext(r.logger, "history record failed", "history_write_failed",
			logging.String("status", string(status)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "event missing from the audit trail"),
		)
	}
}

func (r *invocation) notify(ctx context.Context, event string, send func(context.Context) error) {
	if err := send(ctx); err != nil {
		r.logger.Debug("notification failed", logging.String("notification", event), logging.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
