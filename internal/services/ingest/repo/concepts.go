package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/store"
	"postlens/internal/services/ingest/domain"
)

// UpsertConcept inserts a concept or resolves the existing one by normalized name.
// An existing concept keeps its name and only gains a description if it had none
func (r *queries) UpsertConcept(ctx context.Context, c domain.ConceptWrite) (string, error) {
	const sql = `
		INSERT INTO concepts (id, name, normalized_name, description, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (normalized_name) DO UPDATE
		SET description = COALESCE(concepts.description, EXCLUDED.description)
		RETURNING id::text
	`
	if c.Normalized == "" {
		return "", perr.InvalidArgf("concept %q has an empty normalized name", c.Name)
	}
	status := c.Status
	if status == "" {
		status = domain.ConceptActive
	}
	id, err := store.Scalar[string](ctx, r.q, sql, uuid.NewString(), c.Name, c.Normalized, c.Description, status)
	if err != nil {
		return "", perr.FromPostgresf(err, "upsert concept %q", c.Normalized)
	}
	return id, nil
}

// UpsertAuthor resolves an author id by handle, creating it on first sight
func (r *queries) UpsertAuthor(ctx context.Context, handle string) (string, error) {
	const sql = `
		INSERT INTO authors (id, handle)
		VALUES ($1, $2)
		ON CONFLICT (handle) DO UPDATE SET handle = EXCLUDED.handle
		RETURNING id::text
	`
	id, err := store.Scalar[string](ctx, r.q, sql, uuid.NewString(), handle)
	if err != nil {
		return "", perr.FromPostgresf(err, "upsert author %q", handle)
	}
	return id, nil
}

// ListConcepts returns concepts with the given status ordered by name
func (r *queries) ListConcepts(ctx context.Context, status string) ([]domain.Concept, error) {
	const sql = `
		SELECT id::text, name, normalized_name, description, aliases, status, created_at
		FROM concepts
		WHERE status = $1
		ORDER BY name ASC
	`
	out, err := store.Many(ctx, r.q, func(row store.Row) (domain.Concept, error) {
		var c domain.Concept
		err := row.Scan(&c.ID, &c.Name, &c.NormalizedName, &c.Description, &c.Aliases, &c.Status, &c.CreatedAt)
		return c, err
	}, sql, status)
	return out, perr.FromPostgres(err, "list concepts")
}

// InsertSuggestions writes one analysis batch. Rows share the statement timestamp
func (r *queries) InsertSuggestions(ctx context.Context, postID string, batch []domain.SuggestionWrite) error {
	if len(batch) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO suggestions (id, post_id, concept_id, score, rationale, created_at) VALUES `)

	args := make([]any, 0, len(batch)*5)
	for i, s := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*5 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,NOW())", base, base+1, base+2, base+3, base+4)
		args = append(args, uuid.NewString(), postID, s.ConceptID, s.Score, s.Rationale)
	}
	_, err := r.q.Exec(ctx, sb.String(), args...)
	return perr.FromPostgres(err, "insert suggestions")
}

func scanSuggestionView(row store.Row) (domain.SuggestionView, error) {
	var v domain.SuggestionView
	var score float32
	err := row.Scan(&v.ID, &v.PostID, &v.ConceptID, &score, &v.Rationale, &v.CreatedAt, &v.ConceptName)
	v.Score = float64(score)
	return v, err
}

const suggestionViewSQL = `
	SELECT s.id::text, s.post_id::text, s.concept_id::text, s.score, s.rationale, s.created_at, c.name
	FROM suggestions s
	JOIN concepts c ON c.id = s.concept_id
	WHERE s.post_id = $1
	ORDER BY s.created_at DESC, s.id`

// Suggestions returns every suggestion of a post, newest batch first
func (r *queries) Suggestions(ctx context.Context, postID string) ([]domain.SuggestionView, error) {
	out, err := store.Many(ctx, r.q, scanSuggestionView, suggestionViewSQL, postID)
	return out, perr.FromPostgres(err, "list suggestions")
}

// DeleteSuggestions drops all suggestions of a post; feedback on them cascades
func (r *queries) DeleteSuggestions(ctx context.Context, postID string) (int, error) {
	const sql = `DELETE FROM suggestions WHERE post_id = $1`
	tag, err := r.q.Exec(ctx, sql, postID)
	if err != nil {
		return 0, perr.FromPostgres(err, "delete suggestions")
	}
	return int(tag.RowsAffected()), nil
}
