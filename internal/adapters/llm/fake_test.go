package llm

import (
	"context"
	"sync"
)

// fakeProvider replays a canned answer and records what it was asked
type fakeProvider struct {
	name  string
	out   []byte
	err   error
	panic bool

	mu    sync.Mutex
	calls []Request
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Extract(_ context.Context, req Request) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	return f.out, f.err
}

func (f *fakeProvider) called() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
