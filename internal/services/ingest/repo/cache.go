package repo

import (
	"context"
	"time"

	"postlens/internal/core/suggest"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/store"
	"postlens/internal/services/ingest/domain"
)

// CachedByURL finds the newest analyzed post for the exact URL that still has suggestions.
// The URL is compared byte for byte; tracking parameters make a different key
func (r *queries) CachedByURL(ctx context.Context, url string, window time.Duration) (domain.Cached, bool, error) {
	sql := `
		SELECT ` + postColumns + `, COALESCE(p.author_handle, a.handle)
		FROM posts p
		LEFT JOIN authors a ON a.id = p.author_id
		WHERE p.source_url = $1
		  AND p.status = 'analyzed'
		  AND EXISTS (SELECT 1 FROM suggestions s WHERE s.post_id = p.id)
		ORDER BY p.created_at DESC
		LIMIT 1`

	var handle *string
	post, err := store.One(ctx, r.q, func(row store.Row) (domain.Post, error) {
		var (
			p              domain.Post
			source, status string
		)
		err := row.Scan(
			&p.ID, &p.OwnerID, &p.Text, &p.SourceURL, &source, &p.AuthorHandle, &p.AuthorID,
			&status, &p.RequiresAuth, &p.Attempts, &p.LastError, &p.LeaseUntil, &p.CreatedAt,
			&handle,
		)
		p.Source = domain.Source(source)
		p.Status = domain.Status(status)
		return p, err
	}, sql, url)
	if err != nil {
		if perr.IsNoRows(err) {
			return domain.Cached{}, false, nil
		}
		return domain.Cached{}, false, perr.FromPostgres(err, "cache lookup")
	}

	all, err := r.Suggestions(ctx, post.ID)
	if err != nil {
		return domain.Cached{}, false, err
	}
	current := suggest.SelectCurrentBatch(all, func(s domain.SuggestionView) time.Time { return s.CreatedAt }, window)
	if len(current) == 0 {
		return domain.Cached{}, false, nil
	}
	return domain.Cached{Post: post, AuthorHandle: handle, Suggestions: current}, true, nil
}
