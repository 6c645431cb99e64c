package service

import (
	"context"
	"strings"

	"postlens/internal/core/normalize"
	"postlens/internal/modkit/repokit"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
	pstr "postlens/internal/platform/strings"

	"postlens/internal/services/ingest/domain"
	irepo "postlens/internal/services/ingest/repo"
)

// Analyze extracts concepts for a post and stores them as a new suggestion batch.
// Failures inside the analysis are recorded on the post, not returned: the post
// ends up failed with one placeholder suggestion and the call reports success
func (s *Svc) Analyze(ctx context.Context, postID string) (domain.AnalyzeResult, error) {
	ctx = logger.WithPost(ctx, postID)
	log := logger.C(ctx)

	post, err := s.Repo.Bind(s.DB).GetPost(ctx, postID)
	if err != nil {
		return domain.AnalyzeResult{}, err
	}

	if err := s.analyze(ctx, post); err != nil {
		log.Warn().Err(err).Msg("analysis failed")
		if ferr := s.markFailed(ctx, post.ID, err.Error()); ferr != nil {
			s.metrics.Analysis(outcomeError)
			return domain.AnalyzeResult{}, ferr
		}
		s.metrics.Analysis(string(domain.StatusFailed))
		return domain.AnalyzeResult{PostID: post.ID, Status: domain.StatusFailed}, nil
	}

	s.metrics.Analysis(string(domain.StatusAnalyzed))
	log.Info().Msg("post analyzed")
	return domain.AnalyzeResult{PostID: post.ID, Status: domain.StatusAnalyzed}, nil
}

func (s *Svc) analyze(ctx context.Context, post domain.Post) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.Newf(perr.ErrorCodeAnalysis, "analysis panicked: %v", r)
		}
	}()

	avoid, err := s.Repo.Bind(s.DB).AvoidList(ctx, post.OwnerID, s.cfg.AvoidLimit)
	if err != nil {
		return err
	}

	ex := s.extractor.Extract(ctx, post.Text, avoid)
	if len(ex.Concepts) == 0 {
		return perr.New(perr.ErrorCodeAnalysis, "no concepts could be extracted")
	}

	handle := pstr.Handle(ex.AuthorHandle)
	if handle == "" && post.AuthorHandle != nil {
		handle = *post.AuthorHandle
	}

	return repokit.InTx(ctx, s.DB, s.Repo, func(r irepo.Repo) error {
		batch := make([]domain.SuggestionWrite, 0, len(ex.Concepts))
		for _, c := range ex.Concepts {
			key := normalize.Key(c.Name)
			if key == "" {
				continue
			}
			desc := c.Description
			if desc == "" && c.Category != "" {
				desc = "Category: " + c.Category
			}
			id, err := r.UpsertConcept(ctx, domain.ConceptWrite{
				Name:        strings.TrimSpace(c.Name),
				Normalized:  key,
				Description: desc,
				Status:      domain.ConceptActive,
			})
			if err != nil {
				return err
			}
			batch = append(batch, domain.SuggestionWrite{ConceptID: id, Score: c.Score, Rationale: c.Rationale})
		}
		if len(batch) == 0 {
			return perr.New(perr.ErrorCodeAnalysis, "no extracted concept has a usable name")
		}

		var authorID *string
		if handle != "" {
			id, err := r.UpsertAuthor(ctx, handle)
			if err != nil {
				return err
			}
			authorID = &id
		}

		if err := r.InsertSuggestions(ctx, post.ID, batch); err != nil {
			return err
		}
		return r.SetStatus(ctx, post.ID, domain.StatusAnalyzed, authorID, "")
	})
}

// markFailed flips the post to failed and attaches the placeholder suggestion
func (s *Svc) markFailed(ctx context.Context, postID, reason string) error {
	return repokit.InTx(ctx, s.DB, s.Repo, func(r irepo.Repo) error {
		if err := r.SetStatus(ctx, postID, domain.StatusFailed, nil, reason); err != nil {
			return err
		}
		id, err := r.UpsertConcept(ctx, domain.ConceptWrite{
			Name:        domain.FailedConceptName,
			Normalized:  normalize.Key(domain.FailedConceptName),
			Description: reason,
			Status:      domain.ConceptPending,
		})
		if err != nil {
			return err
		}
		return r.InsertSuggestions(ctx, postID, []domain.SuggestionWrite{
			{ConceptID: id, Score: 0, Rationale: domain.FailedConceptName},
		})
	})
}
