package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"autouploader/internal/apiclient"
	"autouploader/internal/hosts"
	"autouploader/internal/logging"
	"autouploader/internal/wordpress"
)

// Backend is the subset of the publishing backend reconciliation needs.
type Backend interface {
	Fetch(ctx context.Context, id int64) (wordpress.Post, error)
	Update(ctx context.Context, id int64, content string) (wordpress.Post, error)
	Delete(ctx context.Context, id int64) error
}

// Request identifies the two posts. RecordID is the ledger's post; Current
// holds links known locally that fill gaps left by both posts. Render
// produces the new body for the merged links.
type Request struct {
	Key          string
	RecordID     int64
	ChallengerID int64
	Current      Links
	Render       func(Links) string
}

// Outcome reports what reconciliation did. Err is set when a backend call
// failed; the posts are then left as they were as far as possible.
type Outcome struct {
	RecordID          int64
	ChallengerID      int64
	Links             Links
	Merged            bool
	DeletedChallenger bool
	Err               error
}

// Engine merges duplicate posts.
type Engine struct {
	backend     Backend
	detector    *hosts.Detector
	allowDelete bool
	logger      *slog.Logger
}

// NewEngine builds an Engine. When allowDelete is false the challenger post
// is left in place after its links are merged.
func NewEngine(backend Backend, detector *hosts.Detector, allowDelete bool, logger *slog.Logger) *Engine {
	return &Engine{
		backend:     backend,
		detector:    detector,
		allowDelete: allowDelete,
		logger:      logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Reconcile merges the challenger post into the record post. It never
// returns an error; problems are logged and reported in the Outcome.
func (e *Engine) Reconcile(ctx context.Context, req Request) Outcome {
	out := Outcome{RecordID: req.RecordID, ChallengerID: req.ChallengerID}
	logger := e.logger.With(
		logging.String(logging.FieldReleaseKey, req.Key),
		logging.Int64("record_post_id", req.RecordID),
		logging.Int64("challenger_post_id", req.ChallengerID),
	)

	out.Err = e.reconcile(ctx, req, &out, logger)
	if out.Err != nil {
		logging.WarnWithContext(logger, "reconciliation failed; both posts left live", "reconcile_failed",
			logging.Error(out.Err),
			logging.Bool("merged", out.Merged),
			logging.String(logging.FieldErrorHint, "resolve the duplicate posts manually or retry the release"),
			logging.String(logging.FieldImpact, "duplicate posts remain on the site"),
		)
		return out
	}
	logger.Info("reconciled duplicate posts",
		logging.Bool("deleted_challenger", out.DeletedChallenger),
		logging.Int("primary_links", len(out.Links.Primary)),
		logging.Int("mirror_links", len(out.Links.Mirrors)),
	)
	return out
}

func (e *Engine) reconcile(ctx context.Context, req Request, out *Outcome, logger *slog.Logger) error {
	if req.RecordID <= 0 || req.ChallengerID <= 0 || req.RecordID == req.ChallengerID {
		return fmt.Errorf("invalid post pair %d/%d", req.RecordID, req.ChallengerID)
	}
	if req.Render == nil {
		return errors.New("no renderer supplied")
	}

	var record, challenger wordpress.Post
	challengerGone := false
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.backend.Fetch(gctx, req.RecordID)
		if err != nil {
			return fmt.Errorf("fetch record post: %w", err)
		}
		record = p
		return nil
	})
	g.Go(func() error {
		p, err := e.backend.Fetch(gctx, req.ChallengerID)
		if apiclient.NotFound(err) {
			challengerGone = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch challenger post: %w", err)
		}
		challenger = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	primaries := e.detector.PrimaryHosts()
	merged := MergeLinks(Extract(record.Content, e.detector), Extract(challenger.Content, e.detector), primaries)
	merged = MergeLinks(merged, req.Current, primaries)
	out.Links = merged

	if _, err := e.backend.Update(ctx, req.RecordID, req.Render(merged)); err != nil {
		return fmt.Errorf("update record post: %w", err)
	}
	out.Merged = true

	switch {
	case challengerGone:
		logger.Debug("challenger post already gone")
	case !e.allowDelete:
		logger.Info("post deletion disabled; challenger left in place")
	default:
		if err := e.backend.Delete(ctx, req.ChallengerID); err != nil && !apiclient.NotFound(err) {
			return fmt.Errorf("delete challenger post: %w", err)
		}
		out.DeletedChallenger = true
	}
	return nil
}
