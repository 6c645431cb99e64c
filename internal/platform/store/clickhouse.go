package store

import (
	"context"
	"fmt"

	"postlens/internal/platform/store/ch"
)

// clickhouse adapts *ch.CH to the Clickhouse seam
type clickhouse struct{ c *ch.CH }

func openClickhouse(ctx context.Context, cfg CHConfig) (*clickhouse, error) {
	c, err := ch.Open(ctx, ch.Config{URL: cfg.URL, ClientName: cfg.ClientName, ClientTag: cfg.ClientTag})
	if err != nil {
		return nil, err
	}
	return &clickhouse{c: c}, nil
}

// Insert takes rows as [][]any in table column order
func (a *clickhouse) Insert(ctx context.Context, table string, data any) error {
	rows, ok := data.([][]any)
	if !ok {
		return fmt.Errorf("clickhouse insert into %s: want [][]any, got %T", table, data)
	}
	return a.c.Insert(ctx, table, rows)
}

func (a *clickhouse) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := a.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{rs}, nil
}

func (a *clickhouse) Ping(ctx context.Context) error { return a.c.Ping(ctx) }

func (a *clickhouse) Close() error { return a.c.Close() }

type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
