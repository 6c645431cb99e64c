// Package repo provides the usage ledger storage
package repo

import (
	"context"
	"time"

	"postlens/internal/modkit/repokit"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
	"postlens/internal/platform/store"
	"postlens/internal/services/usage/domain"
)

// Repo is the append-only x_requests ledger
type Repo interface {
	Append(ctx context.Context, e domain.Entry) error
	CountSince(ctx context.Context, since time.Time) (domain.Window, error)
	Breakdown(ctx context.Context, since time.Time) (map[domain.Status]int, error)
}

type (
	// PG is a Postgres usage repository
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres usage repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Append writes one ledger row
func (r *queries) Append(ctx context.Context, e domain.Entry) error {
	const sql = `
		INSERT INTO x_requests (endpoint, external_id, status, http_status, reset_at, message, created_at)
		VALUES ($1, NULLIF($2,''), $3, NULLIF($4,0), $5, NULLIF(LEFT($6, 500),''), $7)
	`
	_, err := r.q.Exec(ctx, sql, e.Endpoint, e.ExternalID, string(e.Status), e.HTTPStatus, e.ResetAt, e.Message, e.CreatedAt)
	return perr.FromPostgres(err, "append x request")
}

// CountSince counts rows with created_at >= since and the latest reset seen among them
func (r *queries) CountSince(ctx context.Context, since time.Time) (domain.Window, error) {
	const sql = `
		SELECT COUNT(*), MAX(reset_at)
		FROM x_requests
		WHERE created_at >= $1
	`
	var w domain.Window
	if err := r.q.QueryRow(ctx, sql, since).Scan(&w.Count, &w.MaxResetAt); err != nil {
		return domain.Window{}, perr.FromPostgres(err, "count x requests")
	}
	return w, nil
}

// Breakdown groups rows since a point in time by status
func (r *queries) Breakdown(ctx context.Context, since time.Time) (map[domain.Status]int, error) {
	const sql = `
		SELECT status, COUNT(*)
		FROM x_requests
		WHERE created_at >= $1
		GROUP BY status
	`
	rows, err := r.q.Query(ctx, sql, since)
	if err != nil {
		return nil, perr.FromPostgres(err, "x request breakdown")
	}
	defer rows.Close()

	out := map[domain.Status]int{}
	for rows.Next() {
		var (
			s string
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[domain.Status(s)] = n
	}
	return out, rows.Err()
}

// NewMirrored wraps a binder so every Append is also written to ClickHouse.
// Reads stay on the inner repo. A nil ch returns inner unchanged
func NewMirrored(inner repokit.Binder[Repo], ch store.Clickhouse) repokit.Binder[Repo] {
	if ch == nil {
		return inner
	}
	return &mirrorBinder{inner: inner, ch: ch}
}

// MirrorTable is the ClickHouse table the ledger is mirrored into
const MirrorTable = "x_requests"

type mirrorBinder struct {
	inner repokit.Binder[Repo]
	ch    store.Clickhouse
}

func (b *mirrorBinder) Bind(q repokit.Queryer) Repo {
	return &mirrored{Repo: b.inner.Bind(q), ch: b.ch}
}

type mirrored struct {
	Repo
	ch store.Clickhouse
}

// Append writes to the primary store, then best-effort to ClickHouse
func (m *mirrored) Append(ctx context.Context, e domain.Entry) error {
	if err := m.Repo.Append(ctx, e); err != nil {
		return err
	}
	row := []any{e.Endpoint, e.ExternalID, string(e.Status), int32(e.HTTPStatus), e.ResetAt, e.Message, e.CreatedAt}
	if err := m.ch.Insert(ctx, MirrorTable, [][]any{row}); err != nil {
		logger.C(ctx).Warn().Err(err).Str("table", MirrorTable).Msg("usage mirror insert failed")
	}
	return nil
}
