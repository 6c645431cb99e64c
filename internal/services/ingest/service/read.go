package service

import (
	"context"

	"postlens/internal/modkit/repokit"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"

	"postlens/internal/services/ingest/domain"
	irepo "postlens/internal/services/ingest/repo"
)

// Get returns one of owner's posts with its current suggestion batch
func (s *Svc) Get(ctx context.Context, owner, id string) (domain.PostDetail, error) {
	r := s.Repo.Bind(s.DB)
	post, err := s.owned(ctx, r, owner, id)
	if err != nil {
		return domain.PostDetail{}, err
	}
	all, err := r.Suggestions(ctx, post.ID)
	if err != nil {
		return domain.PostDetail{}, err
	}
	current := s.current(all)
	if current == nil {
		current = []domain.SuggestionView{}
	}
	return domain.PostDetail{Post: post, Suggestions: current}, nil
}

// List returns owner's newest posts
func (s *Svc) List(ctx context.Context, owner string) ([]domain.Post, error) {
	out, err := s.Repo.Bind(s.DB).ListPosts(ctx, owner, s.cfg.ListLimit)
	if out == nil && err == nil {
		out = []domain.Post{}
	}
	return out, err
}

// Reset drops every suggestion of a post (and the feedback on them) and
// puts it back to pending so it is analyzed again
func (s *Svc) Reset(ctx context.Context, owner, id string) error {
	return repokit.InTx(ctx, s.DB, s.Repo, func(r irepo.Repo) error {
		post, err := s.owned(ctx, r, owner, id)
		if err != nil {
			return err
		}
		n, err := r.DeleteSuggestions(ctx, post.ID)
		if err != nil {
			return err
		}
		logger.C(logger.WithPost(ctx, post.ID)).Info().Int("suggestions", n).Msg("analysis reset")
		return r.SetStatus(ctx, post.ID, domain.StatusPending, nil, "")
	})
}

// Feedback records a user's vote on a suggestion
func (s *Svc) Feedback(ctx context.Context, user string, in domain.FeedbackInput) (domain.FeedbackResult, error) {
	created, err := s.Repo.Bind(s.DB).UpsertFeedback(ctx, user, in)
	if err != nil {
		return domain.FeedbackResult{}, err
	}
	if created {
		return domain.FeedbackResult{Status: "created"}, nil
	}
	return domain.FeedbackResult{Status: "updated"}, nil
}

// Concepts lists the active concept catalog
func (s *Svc) Concepts(ctx context.Context) ([]domain.Concept, error) {
	out, err := s.Repo.Bind(s.DB).ListConcepts(ctx, domain.ConceptActive)
	if out == nil && err == nil {
		out = []domain.Concept{}
	}
	return out, err
}

// owned loads a post and hides it from anyone but its owner
func (s *Svc) owned(ctx context.Context, r irepo.Repo, owner, id string) (domain.Post, error) {
	post, err := r.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, err
	}
	if post.OwnerID != owner {
		return domain.Post{}, perr.NotFoundf("post %s not found", id)
	}
	return post, nil
}
