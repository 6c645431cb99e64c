// Package repokit holds the types repos and services share so they never
// import a database driver directly
package repokit

import (
	"context"

	"postlens/internal/platform/store"
)

type (
	// Queryer is the sql surface a bound repo runs on, either the pool or an open tx
	Queryer = store.RowQuerier

	// TxRunner is the pool handle services keep
	TxRunner = store.TxRunner

	Rows       = store.Rows
	Row        = store.Row
	CommandTag = store.CommandTag
)

// Binder builds a domain repo on top of a Queryer
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a plain function to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// InTx binds a repo to a fresh transaction and runs fn with it. The tx commits
// when fn returns nil
func InTx[T any](ctx context.Context, db TxRunner, b Binder[T], fn func(T) error) error {
	return db.Tx(ctx, func(q Queryer) error {
		return fn(b.Bind(q))
	})
}
