package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"postlens/internal/adapters/capture"
	"postlens/internal/adapters/xapi"
	"postlens/internal/core/concepts"
	"postlens/internal/core/suggest"
	"postlens/internal/modkit/repokit"
	perr "postlens/internal/platform/errors"
	"postlens/internal/services/ingest/domain"
	irepo "postlens/internal/services/ingest/repo"
	udom "postlens/internal/services/usage/domain"
)

// txStub runs fn inline with itself as the Queryer
type txStub struct{}

func (txStub) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, nil }
func (txStub) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, nil }
func (txStub) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (s txStub) Tx(_ context.Context, fn func(q repokit.Queryer) error) error   { return fn(s) }

// memRepo is an in-memory irepo.Repo; it is not transactional
type memRepo struct {
	mu  sync.Mutex
	now func() time.Time
	seq int

	posts       map[string]*domain.Post
	concepts    map[string]domain.Concept // by normalized name
	authors     map[string]string
	suggestions []domain.Suggestion
	feedback    map[string]domain.Vote // user|suggestion

	leased   []string
	released map[string]time.Duration
}

var _ irepo.Repo = (*memRepo)(nil)

func newMemRepo(now func() time.Time) *memRepo {
	return &memRepo{
		now:      now,
		posts:    map[string]*domain.Post{},
		concepts: map[string]domain.Concept{},
		authors:  map[string]string{},
		feedback: map[string]domain.Vote{},
		released: map[string]time.Duration{},
	}
}

func (m *memRepo) id(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memRepo) CreatePost(_ context.Context, p domain.Post) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id("post")
	p.CreatedAt = m.now()
	cp := p
	m.posts[p.ID] = &cp
	return p, nil
}

func (m *memRepo) GetPost(_ context.Context, id string) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return domain.Post{}, perr.NotFoundf("post %s not found", id)
	}
	return *p, nil
}

func (m *memRepo) ListPosts(_ context.Context, owner string, limit int) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Post
	for _, p := range m.posts {
		if p.OwnerID == owner {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) SetStatus(_ context.Context, postID string, status domain.Status, authorID *string, lastErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[postID]
	if !ok {
		return perr.NotFoundf("post %s not found", postID)
	}
	p.Status = status
	if authorID != nil {
		p.AuthorID = authorID
	}
	if lastErr != "" {
		p.LastError = &lastErr
	} else {
		p.LastError = nil
	}
	p.LeaseUntil = nil
	return nil
}

// CachedByURL mirrors the SQL: the newest analyzed post for url that has any
// suggestion, then its current batch
func (m *memRepo) CachedByURL(ctx context.Context, url string, window time.Duration) (domain.Cached, bool, error) {
	m.mu.Lock()
	var candidates []domain.Post
	for _, p := range m.posts {
		if p.SourceURL != nil && *p.SourceURL == url && p.Status == domain.StatusAnalyzed {
			candidates = append(candidates, *p)
		}
	}
	m.mu.Unlock()
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].CreatedAt.After(candidates[j].CreatedAt) })

	for _, p := range candidates {
		all, _ := m.Suggestions(ctx, p.ID)
		if len(all) == 0 {
			continue
		}
		cur := suggest.SelectCurrentBatch(all, func(s domain.SuggestionView) time.Time { return s.CreatedAt }, window)
		return domain.Cached{Post: p, AuthorHandle: p.AuthorHandle, Suggestions: cur}, true, nil
	}
	return domain.Cached{}, false, nil
}

func (m *memRepo) UpsertConcept(_ context.Context, c domain.ConceptWrite) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Normalized == "" {
		return "", perr.InvalidArgf("concept %q has an empty normalized name", c.Name)
	}
	if got, ok := m.concepts[c.Normalized]; ok {
		return got.ID, nil
	}
	con := domain.Concept{ID: m.id("concept"), Name: c.Name, NormalizedName: c.Normalized, Status: c.Status, CreatedAt: m.now()}
	if c.Description != "" {
		d := c.Description
		con.Description = &d
	}
	m.concepts[c.Normalized] = con
	return con.ID, nil
}

func (m *memRepo) UpsertAuthor(_ context.Context, handle string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.authors[handle]; ok {
		return id, nil
	}
	id := m.id("author")
	m.authors[handle] = id
	return id, nil
}

func (m *memRepo) ListConcepts(_ context.Context, status string) ([]domain.Concept, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Concept
	for _, c := range m.concepts {
		if c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) InsertSuggestions(_ context.Context, postID string, batch []domain.SuggestionWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	at := m.now()
	for _, w := range batch {
		m.suggestions = append(m.suggestions, domain.Suggestion{
			ID: m.id("sugg"), PostID: postID, ConceptID: w.ConceptID, Score: w.Score, Rationale: w.Rationale, CreatedAt: at,
		})
	}
	return nil
}

func (m *memRepo) conceptByID(id string) domain.Concept {
	for _, c := range m.concepts {
		if c.ID == id {
			return c
		}
	}
	return domain.Concept{}
}

// Suggestions returns newest first like the SQL repo
func (m *memRepo) Suggestions(_ context.Context, postID string) ([]domain.SuggestionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SuggestionView
	for _, s := range m.suggestions {
		if s.PostID == postID {
			out = append(out, domain.SuggestionView{Suggestion: s, ConceptName: m.conceptByID(s.ConceptID).Name})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) DeleteSuggestions(_ context.Context, postID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.suggestions[:0]
	n := 0
	for _, s := range m.suggestions {
		if s.PostID == postID {
			n++
			continue
		}
		kept = append(kept, s)
	}
	m.suggestions = kept
	return n, nil
}

func (m *memRepo) AvoidList(_ context.Context, owner string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for key, v := range m.feedback {
		if v != domain.VoteDown {
			continue
		}
		user, sid, _ := strings.Cut(key, " ")
		if user != owner {
			continue
		}
		for _, s := range m.suggestions {
			if s.ID == sid {
				out = append(out, m.conceptByID(s.ConceptID).Name)
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) UpsertFeedback(_ context.Context, user string, in domain.FeedbackInput) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := false
	for _, sg := range m.suggestions {
		if p, ok := m.posts[sg.PostID]; ok && sg.ID == in.SuggestionID && p.OwnerID == user {
			owned = true
		}
	}
	if !owned {
		return false, perr.NotFoundf("suggestion %s not found", in.SuggestionID)
	}
	key := user + " " + in.SuggestionID
	_, existed := m.feedback[key]
	m.feedback[key] = in.Vote
	return !existed, nil
}

func (m *memRepo) LeasePending(_ context.Context, n int, _ time.Duration) ([]domain.Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lease
	for _, p := range m.posts {
		if len(out) == n {
			break
		}
		if p.Status != domain.StatusPending || p.LeaseUntil != nil || (p.RequiresAuth && p.Text == "") {
			continue
		}
		until := m.now().Add(time.Minute)
		p.LeaseUntil = &until
		m.leased = append(m.leased, p.ID)
		out = append(out, domain.Lease{PostID: p.ID, Attempts: p.Attempts})
	}
	return out, nil
}

func (m *memRepo) Release(_ context.Context, postID string, backoff time.Duration, lastErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.posts[postID]
	p.Attempts++
	p.LastError = &lastErr
	m.released[postID] = backoff
	return nil
}

func (m *memRepo) suggestionsOf(postID string) []domain.SuggestionView {
	out, _ := m.Suggestions(context.Background(), postID)
	return out
}

// fakeFetcher is a scripted primary API
type fakeFetcher struct {
	mu    sync.Mutex
	on    bool
	post  xapi.Post
	err   error
	calls int
}

func (f *fakeFetcher) Configured() bool { return f.on }

func (f *fakeFetcher) FetchPost(_ context.Context, id string) (xapi.Post, xapi.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	att := xapi.Attempt{Endpoint: xapi.EndpointLookup, ExternalID: id, Status: xapi.AttemptOK, HTTPStatus: 200}
	if f.err != nil {
		att.Status = xapi.AttemptError
		if perr.IsCode(f.err, perr.ErrorCodeTooManyRequests) {
			att.Status = xapi.AttemptRateLimited
		}
		att.HTTPStatus = perr.StatusOf(f.err)
		return xapi.Post{}, att, f.err
	}
	return f.post, att, nil
}

// fakeCapture is a scripted capture service
type fakeCapture struct {
	on    bool
	res   capture.Result
	err   error
	calls int
}

func (f *fakeCapture) Configured() bool { return f.on }

func (f *fakeCapture) Capture(context.Context, string, bool) (capture.Result, error) {
	f.calls++
	return f.res, f.err
}

// fakeLedger is an in-memory usage ledger with a fixed limit
type fakeLedger struct {
	mu      sync.Mutex
	limit   int
	resetAt time.Time
	entries []udom.Entry
}

func (l *fakeLedger) Log(_ context.Context, e udom.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return nil
}

func (l *fakeLedger) Check(context.Context, time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limit > 0 && len(l.entries) >= l.limit {
		return perr.RateLimited(l.resetAt, "x api window exhausted")
	}
	return nil
}

// extractFunc adapts a function to Extractor
type extractFunc func(ctx context.Context, text string, avoid []string) concepts.Extraction

func (f extractFunc) Extract(ctx context.Context, text string, avoid []string) concepts.Extraction {
	return f(ctx, text, avoid)
}

func fixedExtraction(names ...string) extractFunc {
	return func(context.Context, string, []string) concepts.Extraction {
		out := concepts.Extraction{}
		for _, n := range names {
			out.Concepts = append(out.Concepts, concepts.Candidate{Name: n, Rationale: "mentioned", Score: 0.8, Category: "Tooling"})
		}
		return out
	}
}

// clock is a manually advanced time source
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
