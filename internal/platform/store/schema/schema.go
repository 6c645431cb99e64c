// Package schema embeds the database DDL and applies it
package schema

import (
	"context"
	_ "embed"
	"strings"

	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/store"
)

var (
	//go:embed schema.sql
	postgresDDL string

	//go:embed clickhouse.sql
	clickhouseDDL string
)

// Postgres returns the Postgres DDL
func Postgres() string { return postgresDDL }

// Clickhouse returns the ClickHouse DDL for the usage mirror
func Clickhouse() string { return clickhouseDDL }

// Apply runs the Postgres DDL statement by statement
func Apply(ctx context.Context, q store.RowQuerier) error {
	for i, stmt := range Statements(postgresDDL) {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return perr.FromPostgresf(err, "apply schema statement %d", i+1)
		}
	}
	return nil
}

// ApplyClickhouse creates the mirror table
func ApplyClickhouse(ctx context.Context, ch store.Clickhouse) error {
	rows, err := ch.Query(ctx, clickhouseDDL)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "apply clickhouse schema")
	}
	rows.Close()
	return nil
}

// Statements splits DDL on semicolons, dropping comments and blanks
func Statements(ddl string) []string {
	var out []string
	for _, part := range strings.Split(ddl, ";") {
		var lines []string
		for _, ln := range strings.Split(part, "\n") {
			if t := strings.TrimSpace(ln); t == "" || strings.HasPrefix(t, "--") {
				continue
			}
			lines = append(lines, ln)
		}
		if len(lines) > 0 {
			out = append(out, strings.TrimSpace(strings.Join(lines, "\n")))
		}
	}
	return out
}
