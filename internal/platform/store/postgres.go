package store

import (
	"context"
	"fmt"
	"time"

	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
	"postlens/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// txAttempts bounds how often Tx reruns fn after a retryable failure
const txAttempts = 3

// pgxQuerier is what pgxpool.Pool and pgx.Tx have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// traced runs statements on a pool or a tx and reports them to the client's tracer
type traced struct {
	q   pgxQuerier
	cli *pg.PG
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.q.Exec(ctx, sql, args...)
	t.cli.Trace(ctx, sql, args, start, err)
	return ct, err
}

func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.q.Query(ctx, sql, args...)
	t.cli.Trace(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgxRows{rs}, nil
}

func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := t.q.QueryRow(ctx, sql, args...)
	return rowFunc(func(dst ...any) error {
		err := r.Scan(dst...)
		t.cli.Trace(ctx, sql, args, start, err)
		return err
	})
}

type rowFunc func(dst ...any) error

func (f rowFunc) Scan(dst ...any) error { return f(dst...) }

type pgxRows struct{ pgx.Rows }

func (r pgxRows) Columns() []string {
	fds := r.FieldDescriptions()
	out := make([]string, len(fds))
	for i, fd := range fds {
		out[i] = fd.Name
	}
	return out
}

// postgres is the TxRunner over a pgx pool
type postgres struct {
	traced
}

func (p *postgres) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	var err error
	for attempt := 1; attempt <= txAttempts; attempt++ {
		err = p.once(ctx, fn)
		if err == nil || !perr.IsRetryable(err) || ctx.Err() != nil {
			return err
		}
		logger.C(ctx).Debug().Err(err).Int("attempt", attempt).Msg("retrying transaction")
	}
	return err
}

func (p *postgres) once(ctx context.Context, fn func(q RowQuerier) error) (err error) {
	tx, err := p.cli.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()
	if err := fn(traced{q: tx, cli: p.cli}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Ping runs a trivial query through the tracer
func (p *postgres) Ping(ctx context.Context) error {
	var one int
	return p.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (p *postgres) Close() error {
	p.cli.Close()
	return nil
}

func openPostgres(ctx context.Context, cfg PGConfig, log logger.Logger) (*postgres, error) {
	opts := []pg.Option{pg.WithSlowMs(cfg.SlowQueryMs)}
	if cfg.LogSQL {
		opts = append(opts, pg.WithTracer(pg.LogTracer(log)))
	}
	cli, err := pg.Open(ctx, pg.Config{URL: cfg.URL, MaxConns: cfg.MaxConns}, opts...)
	if err != nil {
		return nil, err
	}

	attempts, timeout := cfg.ConnectRetries, cfg.PingTimeout
	if attempts <= 0 {
		attempts = 20
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if err := cli.WaitReady(ctx, attempts, timeout); err != nil {
		cli.Close()
		return nil, fmt.Errorf("postgres not ready: %w", err)
	}
	return &postgres{traced{q: cli.Pool, cli: cli}}, nil
}
