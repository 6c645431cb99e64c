// Package repo provides the ingestion storage on Postgres
package repo

import (
	"context"
	"time"

	"postlens/internal/modkit/repokit"
	"postlens/internal/services/ingest/domain"
)

// Repo is the storage contract for posts, concepts, suggestions and feedback
type Repo interface {
	// Posts
	CreatePost(ctx context.Context, p domain.Post) (domain.Post, error)
	GetPost(ctx context.Context, id string) (domain.Post, error)
	ListPosts(ctx context.Context, owner string, limit int) ([]domain.Post, error)
	SetStatus(ctx context.Context, postID string, status domain.Status, authorID *string, lastErr string) error

	// Cache lookup by exact URL
	CachedByURL(ctx context.Context, url string, window time.Duration) (domain.Cached, bool, error)

	// Concepts and authors
	UpsertConcept(ctx context.Context, c domain.ConceptWrite) (string, error)
	UpsertAuthor(ctx context.Context, handle string) (string, error)
	ListConcepts(ctx context.Context, status string) ([]domain.Concept, error)

	// Suggestions
	InsertSuggestions(ctx context.Context, postID string, batch []domain.SuggestionWrite) error
	Suggestions(ctx context.Context, postID string) ([]domain.SuggestionView, error)
	DeleteSuggestions(ctx context.Context, postID string) (int, error)

	// Feedback
	AvoidList(ctx context.Context, owner string, limit int) ([]string, error)
	UpsertFeedback(ctx context.Context, user string, in domain.FeedbackInput) (bool, error)

	// Analysis queue
	LeasePending(ctx context.Context, n int, leaseFor time.Duration) ([]domain.Lease, error)
	Release(ctx context.Context, postID string, backoff time.Duration, lastErr string) error
}

type (
	// PG is a Postgres ingestion repository
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres ingestion repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }
