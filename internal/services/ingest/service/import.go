package service

import (
	"context"
	"strings"

	"postlens/internal/adapters/xapi"
	"postlens/internal/core/normalize"
	"postlens/internal/core/resolver"
	"postlens/internal/modkit/repokit"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
	pstr "postlens/internal/platform/strings"

	"postlens/internal/services/ingest/domain"
	irepo "postlens/internal/services/ingest/repo"
	udom "postlens/internal/services/usage/domain"
)

// Fetcher names reported on ImportResult
const (
	FetcherPrimary = "x_api"
	FetcherCapture = "capture"
)

// import outcome labels
const (
	outcomeCached       = "cached"
	outcomeFetched      = "fetched"
	outcomeAuthWall     = "auth_wall"
	outcomeUnresolvable = "unresolvable"
	outcomeError        = "error"
)

// fetched is post content from whichever fetcher answered
type fetched struct {
	text         string
	handle       string
	requiresAuth bool
	fetcher      string
}

// CreatePost stores pasted text as a pending manual post
func (s *Svc) CreatePost(ctx context.Context, owner string, in domain.CreateInput) (domain.Post, error) {
	text := normalize.Text(in.Text)
	if text == "" {
		return domain.Post{}, perr.WithField(perr.InvalidArgf("post text is empty"), "text")
	}
	p := domain.Post{
		OwnerID:      owner,
		Text:         text,
		SourceURL:    pstr.Ptr(strings.TrimSpace(in.SourceURL)),
		Source:       domain.SourceManual,
		AuthorHandle: pstr.Ptr(pstr.Handle(in.AuthorHandle)),
		Status:       domain.StatusPending,
	}
	return s.Repo.Bind(s.DB).CreatePost(ctx, p)
}

// Import resolves a post URL, serves it from cache when a finished analysis
// of the same URL exists, and otherwise fetches it and stores a pending post
func (s *Svc) Import(ctx context.Context, owner, url string) (domain.ImportResult, error) {
	log := logger.C(ctx).With().Str("url", url).Logger()

	res := resolver.Resolve(url)
	if !res.OK {
		s.metrics.Import(outcomeUnresolvable)
		return domain.ImportResult{}, perr.WithField(perr.Unresolvablef("unsupported post url"), "url")
	}

	if out, ok, err := s.fromCache(ctx, owner, url); err != nil {
		s.metrics.Import(outcomeError)
		return domain.ImportResult{}, err
	} else if ok {
		s.metrics.Import(outcomeCached)
		log.Info().Str("post_id", out.Post.ID).Msg("import served from cache")
		return out, nil
	}

	f, err := s.fetch(ctx, res, url)
	if err != nil {
		s.metrics.Import(outcomeError)
		log.Warn().Err(err).Uint16("code", uint16(perr.CodeOf(err))).Msg("import fetch failed")
		return domain.ImportResult{}, err
	}

	handle := f.handle
	if handle == "" {
		handle = res.HandleHint
	}
	post, err := s.Repo.Bind(s.DB).CreatePost(ctx, domain.Post{
		OwnerID:      owner,
		Text:         normalize.Text(f.text),
		SourceURL:    pstr.Ptr(url),
		Source:       domain.SourceX,
		AuthorHandle: pstr.Ptr(pstr.Handle(handle)),
		Status:       domain.StatusPending,
		RequiresAuth: f.requiresAuth,
	})
	if err != nil {
		s.metrics.Import(outcomeError)
		return domain.ImportResult{}, err
	}

	if f.requiresAuth {
		s.metrics.Import(outcomeAuthWall)
	} else {
		s.metrics.Import(outcomeFetched)
	}
	log.Info().Str("post_id", post.ID).Str("fetcher", f.fetcher).Bool("requires_auth", f.requiresAuth).Msg("post imported")
	return domain.ImportResult{Post: post, RequiresAuth: f.requiresAuth, Fetcher: f.fetcher}, nil
}

// fromCache copies a finished analysis of the same URL onto a new post for owner
func (s *Svc) fromCache(ctx context.Context, owner, url string) (domain.ImportResult, bool, error) {
	var (
		out domain.ImportResult
		hit bool
	)
	err := repokit.InTx(ctx, s.DB, s.Repo, func(r irepo.Repo) error {
		cached, ok, err := r.CachedByURL(ctx, url, s.cfg.BatchWindow)
		if err != nil || !ok {
			return err
		}

		post, err := r.CreatePost(ctx, domain.Post{
			OwnerID:      owner,
			Text:         cached.Post.Text,
			SourceURL:    pstr.Ptr(url),
			Source:       cached.Post.Source,
			AuthorHandle: cached.AuthorHandle,
			Status:       domain.StatusAnalyzed,
		})
		if err != nil {
			return err
		}
		if cached.Post.AuthorID != nil {
			if err := r.SetStatus(ctx, post.ID, domain.StatusAnalyzed, cached.Post.AuthorID, ""); err != nil {
				return err
			}
			post.AuthorID = cached.Post.AuthorID
		}

		batch := make([]domain.SuggestionWrite, 0, len(cached.Suggestions))
		for _, sv := range cached.Suggestions {
			batch = append(batch, domain.SuggestionWrite{ConceptID: sv.ConceptID, Score: sv.Score, Rationale: sv.Rationale})
		}
		if err := r.InsertSuggestions(ctx, post.ID, batch); err != nil {
			return err
		}

		out = domain.ImportResult{Post: post, Cached: true}
		hit = true
		return nil
	})
	return out, hit, err
}

// fetch runs the primary fetcher under the rate check and falls back to capture
func (s *Svc) fetch(ctx context.Context, res resolver.Result, url string) (fetched, error) {
	primaryOn := s.primary != nil && s.primary.Configured()
	captureOn := s.capture != nil && s.capture.Configured()
	if !primaryOn && !captureOn {
		return fetched{}, perr.Unavailablef("no content fetcher is configured")
	}

	var primaryErr error
	if primaryOn {
		f, err := s.fetchPrimary(ctx, res.PostID)
		if err == nil {
			return f, nil
		}
		if !captureOn || !fallsBack(err) {
			return fetched{}, err
		}
		logger.C(ctx).Info().Err(err).Msg("primary fetch failed, trying capture")
		primaryErr = err
	}

	f, err := s.fetchCapture(ctx, url)
	if err != nil {
		if primaryErr != nil {
			logger.C(ctx).Warn().Err(err).Msg("capture fallback failed")
			return fetched{}, primaryErr
		}
		return fetched{}, err
	}
	return f, nil
}

func (s *Svc) fetchPrimary(ctx context.Context, id string) (fetched, error) {
	if s.ledger != nil {
		if err := s.ledger.Check(ctx, s.now()); err != nil {
			return fetched{}, err
		}
	}

	post, att, err := s.primary.FetchPost(ctx, id)
	s.record(ctx, att)
	if err != nil {
		return fetched{}, err
	}
	return fetched{text: post.Text, handle: post.AuthorHandle, fetcher: FetcherPrimary}, nil
}

func (s *Svc) fetchCapture(ctx context.Context, url string) (fetched, error) {
	r, err := s.capture.Capture(ctx, url, false)
	if err != nil {
		s.metrics.Capture(outcomeError)
		return fetched{}, err
	}
	if r.RequiresAuth {
		s.metrics.Capture(outcomeAuthWall)
		return fetched{handle: r.AuthorHandle, requiresAuth: true, fetcher: FetcherCapture}, nil
	}
	if strings.TrimSpace(r.Text) == "" {
		s.metrics.Capture(outcomeError)
		return fetched{}, perr.EmptyContentf("capture returned no post text")
	}
	s.metrics.Capture("ok")
	return fetched{text: r.Text, handle: r.AuthorHandle, fetcher: FetcherCapture}, nil
}

// record appends one attempt to the usage ledger. A ledger failure is logged, not returned
func (s *Svc) record(ctx context.Context, att xapi.Attempt) {
	if s.ledger == nil || att.Endpoint == "" {
		return
	}
	e := udom.Entry{
		Endpoint:   att.Endpoint,
		ExternalID: att.ExternalID,
		Status:     udom.Status(att.Status),
		HTTPStatus: att.HTTPStatus,
		ResetAt:    att.ResetAt,
		Message:    att.Message,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.ledger.Log(ctx, e); err != nil {
		logger.C(ctx).Error().Err(err).Str("external_id", att.ExternalID).Msg("usage ledger write failed")
	}
}

// fallsBack reports whether a primary failure should be retried through capture.
// Rejected credentials are a configuration problem and surface as is
func fallsBack(err error) bool {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeEmptyContent, perr.ErrorCodeTooManyRequests, perr.ErrorCodeUpstream, perr.ErrorCodeUnavailable:
		return true
	}
	return false
}
