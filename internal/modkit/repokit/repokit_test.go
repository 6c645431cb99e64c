package repokit

import (
	"context"
	"errors"
	"testing"
)

type fakeTx struct {
	Queryer
	committed bool
}

func (f *fakeTx) Tx(_ context.Context, fn func(Queryer) error) error {
	if err := fn(f); err != nil {
		return err
	}
	f.committed = true
	return nil
}

type postRepo struct{ q Queryer }

func TestBindFunc(t *testing.T) {
	db := &fakeTx{}
	b := BindFunc[postRepo](func(q Queryer) postRepo { return postRepo{q: q} })
	if got := b.Bind(db); got.q != db {
		t.Fatalf("Bind did not pass the queryer through")
	}
}

func TestInTx(t *testing.T) {
	ctx := context.Background()
	b := BindFunc[postRepo](func(q Queryer) postRepo { return postRepo{q: q} })

	db := &fakeTx{}
	var seen Queryer
	err := InTx(ctx, db, b, func(r postRepo) error {
		seen = r.q
		return nil
	})
	if err != nil || !db.committed || seen != db {
		t.Fatalf("InTx err=%v committed=%v", err, db.committed)
	}

	db = &fakeTx{}
	boom := errors.New("duplicate concept")
	if err := InTx(ctx, db, b, func(postRepo) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want %v", err, boom)
	}
	if db.committed {
		t.Fatalf("failed fn must not commit")
	}
}
