package suggest

import (
	"fmt"
	"testing"
	"time"
)

type item struct {
	id string
	at time.Time
}

func at(i item) time.Time { return i.at }

func ids(in []item) string {
	s := ""
	for _, i := range in {
		s += i.id
	}
	return s
}

func TestSelectCurrentBatch(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ms := func(n int) time.Time { return base.Add(time.Duration(n) * time.Millisecond) }

	cases := []struct {
		name string
		in   []item
		want string
	}{
		{"empty", nil, ""},
		{"single", []item{{"a", ms(0)}}, "a"},
		{"two batches", []item{{"a", ms(0)}, {"b", ms(10)}, {"c", ms(60_000)}, {"d", ms(60_050)}}, "cd"},
		{"boundary inclusive", []item{{"a", ms(0)}, {"b", ms(2000)}}, "ab"},
		{"just outside", []item{{"a", ms(0)}, {"b", ms(2001)}}, "b"},
		{"order preserved", []item{{"z", ms(5000)}, {"y", ms(4000)}, {"x", ms(100)}}, "zy"},
	}
	for _, c := range cases {
		got := SelectCurrentBatch(c.in, at, DefaultWindow)
		if ids(got) != c.want {
			t.Fatalf("%s: SelectCurrentBatch() = %q, want %q", c.name, ids(got), c.want)
		}
	}
}

func TestSelectCurrentBatch_Properties(t *testing.T) {
	t.Parallel()

	base := time.Unix(1_700_000_000, 0)
	var in []item
	for i := 0; i < 30; i++ {
		in = append(in, item{fmt.Sprint(i % 10), base.Add(time.Duration(i*i*37) * time.Millisecond)})
	}
	out := SelectCurrentBatch(in, at, DefaultWindow)
	if len(out) == 0 {
		t.Fatalf("non-empty input must yield a non-empty batch")
	}
	max := in[0].at
	for _, i := range in {
		if i.at.After(max) {
			max = i.at
		}
	}
	for _, o := range out {
		if max.Sub(o.at) > DefaultWindow {
			t.Fatalf("item %v outside window of %v", o.at, max)
		}
	}
	if got := SelectCurrentBatch(out, at, DefaultWindow); len(got) != len(out) {
		t.Fatalf("selecting twice changed the batch: %d vs %d", len(got), len(out))
	}
}

func TestSelectCurrentBatch_NilReturnsEmpty(t *testing.T) {
	t.Parallel()

	out := SelectCurrentBatch[item](nil, at, DefaultWindow)
	if out == nil || len(out) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", out)
	}
}
