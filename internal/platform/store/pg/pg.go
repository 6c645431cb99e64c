// Package pg owns the pgx pool, the boot readiness loop and query tracing
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is the pool surface postlens uses
type Config struct {
	URL      string
	MaxConns int32
}

// PG is a pgx pool plus its tracer
type PG struct {
	Pool *pgxpool.Pool

	tracer QueryTracer
	slow   time.Duration
}

// Option adjusts a PG during Open
type Option func(*PG, *pgxpool.Config)

// WithTracer reports every statement to t
func WithTracer(t QueryTracer) Option {
	return func(p *PG, _ *pgxpool.Config) { p.tracer = t }
}

// WithSlowMs marks statements at or above ms as slow. Zero or negative disables the flag
func WithSlowMs(ms int) Option {
	return func(p *PG, _ *pgxpool.Config) {
		if ms <= 0 {
			p.slow = -1
			return
		}
		p.slow = time.Duration(ms) * time.Millisecond
	}
}

// WithPoolConfig edits the parsed pool config before the pool is built
func WithPoolConfig(fn func(*pgxpool.Config)) Option {
	return func(_ *PG, c *pgxpool.Config) { fn(c) }
}

// newPool is swapped in tests
var newPool = pgxpool.NewWithConfig

// Open parses cfg and builds the pool. pgxpool connects lazily so this does not dial
func Open(ctx context.Context, cfg Config, opts ...Option) (*PG, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	p := &PG{slow: -1}
	for _, o := range opts {
		o(p, pc)
	}
	pool, err := newPool(ctx, pc)
	if err != nil {
		return nil, err
	}
	p.Pool = pool
	return p, nil
}

// pingFn is swapped in tests
var pingFn = func(ctx context.Context, p *PG) error { return p.Pool.Ping(ctx) }

// WaitReady pings until the server answers, backing off from 150ms up to 2s
func (p *PG) WaitReady(ctx context.Context, attempts int, timeout time.Duration) error {
	backoff := 150 * time.Millisecond
	var err error
	for i := 0; i < attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err = pingFn(pctx, p)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 2*time.Second)
	}
	return err
}

// Trace reports one finished statement to the tracer, if any
func (p *PG) Trace(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if p == nil || p.tracer == nil {
		return
	}
	took := time.Since(start)
	p.tracer.OnQuery(ctx, QueryEvent{
		SQL:  sql,
		Args: args,
		Took: took,
		Err:  err,
		Slow: p.slow >= 0 && took >= p.slow,
	})
}

// Close closes the pool; nil safe
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
