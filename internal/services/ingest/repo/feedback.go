package repo

import (
	"context"

	"github.com/google/uuid"

	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/store"
	"postlens/internal/services/ingest/domain"
)

// AvoidList returns the distinct concept names an owner downvoted, most recent first
func (r *queries) AvoidList(ctx context.Context, owner string, limit int) ([]string, error) {
	const sql = `
		SELECT c.name
		FROM feedback f
		JOIN suggestions s ON s.id = f.suggestion_id
		JOIN concepts c ON c.id = s.concept_id
		WHERE f.user_id = $1 AND f.vote = 'down'
		GROUP BY c.name
		ORDER BY MAX(f.created_at) DESC
		LIMIT $2
	`
	out, err := store.Many(ctx, r.q, func(row store.Row) (string, error) {
		var s string
		return s, row.Scan(&s)
	}, sql, owner, limit)
	return out, perr.FromPostgres(err, "avoid list")
}

// UpsertFeedback records a vote, replacing an earlier vote by the same user.
// Only the owner of the suggested post may vote; anything else is NotFound.
// It reports true when the row was newly created
func (r *queries) UpsertFeedback(ctx context.Context, user string, in domain.FeedbackInput) (bool, error) {
	const sql = `
		INSERT INTO feedback (id, user_id, suggestion_id, vote)
		SELECT $1::uuid, $2::text, s.id, $4::text
		FROM suggestions s
		JOIN posts p ON p.id = s.post_id
		WHERE s.id = $3 AND p.owner_id = $2
		ON CONFLICT (user_id, suggestion_id) DO UPDATE SET vote = EXCLUDED.vote
		RETURNING (xmax = 0)
	`
	created, err := store.Scalar[bool](ctx, r.q, sql, uuid.NewString(), user, in.SuggestionID, string(in.Vote))
	if err != nil {
		if perr.IsNoRows(err) {
			return false, perr.NotFoundf("suggestion %s not found", in.SuggestionID)
		}
		return false, perr.FromPostgres(err, "upsert feedback")
	}
	return created, nil
}
