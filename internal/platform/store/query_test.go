package store

import (
	"context"
	"errors"
	"testing"

	perr "postlens/internal/platform/errors"
)

// fakeRows serves a fixed set of single-column rows
type fakeRows struct {
	vals   []any
	i      int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.vals) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dst ...any) error {
	switch d := dst[0].(type) {
	case *string:
		*d = r.vals[r.i-1].(string)
	case *int:
		*d = r.vals[r.i-1].(int)
	}
	return nil
}

func (r *fakeRows) Err() error        { return r.err }
func (r *fakeRows) Close()            { r.closed = true }
func (r *fakeRows) Columns() []string { return []string{"v"} }

type fakeQ struct {
	rows     *fakeRows
	queryErr error
	lastSQL  string
}

func (q *fakeQ) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	q.lastSQL = sql
	return nil, q.queryErr
}

func (q *fakeQ) Query(_ context.Context, sql string, _ ...any) (Rows, error) {
	q.lastSQL = sql
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return q.rows, nil
}

func (q *fakeQ) QueryRow(ctx context.Context, sql string, args ...any) Row {
	rs, err := q.Query(ctx, sql, args...)
	return rowFunc(func(dst ...any) error {
		if err != nil {
			return err
		}
		if !rs.Next() {
			return perr.ErrNotFound
		}
		return rs.Scan(dst...)
	})
}

func scanString(r Row) (string, error) {
	var s string
	err := r.Scan(&s)
	return s, err
}

func TestOne(t *testing.T) {
	ctx := context.Background()

	q := &fakeQ{rows: &fakeRows{vals: []any{"docker"}}}
	got, err := One(ctx, q, scanString, "SELECT name FROM concepts WHERE id = $1", 1)
	if err != nil || got != "docker" {
		t.Fatalf("One = %q, %v", got, err)
	}
	if !q.rows.closed {
		t.Fatalf("rows not closed")
	}

	_, err = One(ctx, &fakeQ{rows: &fakeRows{}}, scanString, "SELECT 1")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("empty One err = %v, want NotFound", err)
	}

	_, err = One(ctx, &fakeQ{rows: &fakeRows{vals: []any{"a", "b"}}}, scanString, "SELECT 1")
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("two-row One err = %v, want DB", err)
	}

	boom := errors.New("conn reset")
	if _, err := One(ctx, &fakeQ{queryErr: boom}, scanString, "SELECT 1"); !errors.Is(err, boom) {
		t.Fatalf("query error not returned: %v", err)
	}
}

func TestMany(t *testing.T) {
	ctx := context.Background()

	got, err := Many(ctx, &fakeQ{rows: &fakeRows{vals: []any{"go", "rust", "zig"}}}, scanString, "SELECT name FROM concepts")
	if err != nil || len(got) != 3 || got[2] != "zig" {
		t.Fatalf("Many = %v, %v", got, err)
	}

	iterErr := errors.New("stream broke")
	if _, err := Many(ctx, &fakeQ{rows: &fakeRows{vals: []any{"go"}, err: iterErr}}, scanString, "SELECT 1"); !errors.Is(err, iterErr) {
		t.Fatalf("Many should surface rows.Err, got %v", err)
	}
}

func TestScalarAndExec(t *testing.T) {
	ctx := context.Background()

	n, err := Scalar[int](ctx, &fakeQ{rows: &fakeRows{vals: []any{42}}}, "SELECT count(*) FROM posts")
	if err != nil || n != 42 {
		t.Fatalf("Scalar = %d, %v", n, err)
	}

	q := &fakeQ{}
	if _, err := Exec(ctx, q, "DELETE FROM post_cache"); err != nil || q.lastSQL != "DELETE FROM post_cache" {
		t.Fatalf("Exec = %v sql %q", err, q.lastSQL)
	}
}
