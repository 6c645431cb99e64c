package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/store"
	"postlens/internal/services/ingest/domain"
)

const postColumns = `
	p.id::text, p.owner_id, p.text, p.source_url, p.source, p.author_handle, p.author_id::text,
	p.status, p.requires_auth, p.attempts, p.last_error, p.lease_until, p.created_at`

func scanPost(r store.Row) (domain.Post, error) {
	var (
		p              domain.Post
		source, status string
	)
	err := r.Scan(
		&p.ID, &p.OwnerID, &p.Text, &p.SourceURL, &source, &p.AuthorHandle, &p.AuthorID,
		&status, &p.RequiresAuth, &p.Attempts, &p.LastError, &p.LeaseUntil, &p.CreatedAt,
	)
	p.Source = domain.Source(source)
	p.Status = domain.Status(status)
	return p, err
}

// CreatePost inserts a post and returns it as stored
func (r *queries) CreatePost(ctx context.Context, p domain.Post) (domain.Post, error) {
	const sql = `
		INSERT INTO posts AS p (id, owner_id, text, source_url, source, author_handle, status, requires_auth, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
		RETURNING ` + postColumns
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Source == "" {
		p.Source = domain.SourceManual
	}
	if p.Status == "" {
		p.Status = domain.StatusPending
	}
	var created *time.Time
	if !p.CreatedAt.IsZero() {
		created = &p.CreatedAt
	}
	out, err := scanPost(r.q.QueryRow(ctx, sql,
		p.ID, p.OwnerID, p.Text, p.SourceURL, string(p.Source), p.AuthorHandle, string(p.Status), p.RequiresAuth, created,
	))
	if err != nil {
		return domain.Post{}, perr.FromPostgres(err, "create post")
	}
	return out, nil
}

// GetPost loads one post by id
func (r *queries) GetPost(ctx context.Context, id string) (domain.Post, error) {
	sql := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1`
	p, err := store.One(ctx, r.q, scanPost, sql, id)
	if err != nil {
		if perr.IsNoRows(err) {
			return domain.Post{}, perr.NotFoundf("post %s not found", id)
		}
		return domain.Post{}, perr.FromPostgres(err, "get post")
	}
	return p, nil
}

// ListPosts returns an owner's newest posts first
func (r *queries) ListPosts(ctx context.Context, owner string, limit int) ([]domain.Post, error) {
	sql := `
		SELECT ` + postColumns + `
		FROM posts p
		WHERE p.owner_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2`
	out, err := store.Many(ctx, r.q, scanPost, sql, owner, limit)
	return out, perr.FromPostgres(err, "list posts")
}

// SetStatus moves a post to a new status and clears its lease
func (r *queries) SetStatus(ctx context.Context, postID string, status domain.Status, authorID *string, lastErr string) error {
	const sql = `
		UPDATE posts
		SET status = $2,
		    author_id = COALESCE($3::uuid, author_id),
		    last_error = NULLIF(LEFT($4, 500), ''),
		    lease_until = NULL
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, sql, postID, string(status), authorID, lastErr)
	if err != nil {
		return perr.FromPostgres(err, "set post status")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("post %s not found", postID)
	}
	return nil
}

// LeasePending hands out up to n pending posts whose lease expired. Auth wall
// imports wait for the owner to paste the text and are never leased
func (r *queries) LeasePending(ctx context.Context, n int, leaseFor time.Duration) ([]domain.Lease, error) {
	const sql = `
		WITH cte AS (
			SELECT id
			FROM posts
			WHERE status = 'pending'
			  AND NOT (requires_auth AND text = '')
			  AND (lease_until IS NULL OR lease_until <= NOW())
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE posts p
		SET lease_until = NOW() + make_interval(secs => $2)
		FROM cte
		WHERE p.id = cte.id
		RETURNING p.id::text, p.attempts
	`
	rows, err := r.q.Query(ctx, sql, n, leaseFor.Seconds())
	if err != nil {
		return nil, perr.FromPostgres(err, "lease pending posts")
	}
	defer rows.Close()

	var out []domain.Lease
	for rows.Next() {
		var l domain.Lease
		if err := rows.Scan(&l.PostID, &l.Attempts); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Release pushes a leased post back with a backoff after a worker error
func (r *queries) Release(ctx context.Context, postID string, backoff time.Duration, lastErr string) error {
	const sql = `
		UPDATE posts
		SET attempts = attempts + 1,
		    last_error = LEFT($2, 500),
		    lease_until = NOW() + make_interval(secs => $3)
		WHERE id = $1
	`
	_, err := r.q.Exec(ctx, sql, postID, lastErr, backoff.Seconds())
	return perr.FromPostgres(err, "release post")
}
