//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/store"
	"postlens/internal/platform/store/schema"
	"postlens/internal/services/ingest/domain"
)

func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postlens",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		cancel()
		t.Fatalf("start postgres: %v", err)
	}
	host, _ := c.Host(ctx)
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("mapped port: %v", err)
	}
	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postlens?sslmode=disable", host, mp.Port())
	return dsn, func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
}

func openRepo(t *testing.T) (context.Context, store.TxRunner, Repo) {
	t.Helper()
	dsn, stop := startPostgres(t)
	t.Cleanup(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	s, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 4}})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	if err := schema.Apply(ctx, s.PG); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	// the schema is idempotent
	if err := schema.Apply(ctx, s.PG); err != nil {
		t.Fatalf("re-apply schema: %v", err)
	}
	return ctx, s.PG, NewPG().Bind(s.PG)
}

func TestIntegration_IngestRepo(t *testing.T) {
	ctx, db, r := openRepo(t)

	url := "https://x.com/alice/status/42"
	post, err := r.CreatePost(ctx, domain.Post{OwnerID: "u1", Text: "Kubernetes operators", SourceURL: &url, Source: domain.SourceX})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.Status != domain.StatusPending || post.ID == "" {
		t.Fatalf("post = %+v", post)
	}

	t.Run("upsert concept is idempotent by normalized name", func(t *testing.T) {
		a, err := r.UpsertConcept(ctx, domain.ConceptWrite{Name: "Kubernetes", Normalized: "kubernetes", Description: "first", Status: domain.ConceptActive})
		if err != nil {
			t.Fatalf("UpsertConcept: %v", err)
		}
		b, err := r.UpsertConcept(ctx, domain.ConceptWrite{Name: "KUBERNETES", Normalized: "kubernetes", Description: "second", Status: domain.ConceptActive})
		if err != nil {
			t.Fatalf("UpsertConcept again: %v", err)
		}
		if a != b {
			t.Fatalf("ids differ: %s vs %s", a, b)
		}
		cs, err := r.ListConcepts(ctx, domain.ConceptActive)
		if err != nil || len(cs) != 1 {
			t.Fatalf("ListConcepts = %v, %v", cs, err)
		}
		if cs[0].Description == nil || *cs[0].Description != "first" {
			t.Fatalf("description should keep the first value, got %v", cs[0].Description)
		}
	})

	t.Run("cache lookup sees analyzed posts with suggestions", func(t *testing.T) {
		if _, ok, err := r.CachedByURL(ctx, url, 2*time.Second); err != nil || ok {
			t.Fatalf("pending post must not be cached: %v %v", ok, err)
		}

		cid, _ := r.UpsertConcept(ctx, domain.ConceptWrite{Name: "Operators", Normalized: "operators", Status: domain.ConceptActive})
		author, err := r.UpsertAuthor(ctx, "alice")
		if err != nil {
			t.Fatalf("UpsertAuthor: %v", err)
		}
		err = db.Tx(ctx, func(q store.RowQuerier) error {
			tx := NewPG().Bind(q)
			if err := tx.InsertSuggestions(ctx, post.ID, []domain.SuggestionWrite{{ConceptID: cid, Score: 0.9, Rationale: "topic"}}); err != nil {
				return err
			}
			return tx.SetStatus(ctx, post.ID, domain.StatusAnalyzed, &author, "")
		})
		if err != nil {
			t.Fatalf("store batch: %v", err)
		}

		hit, ok, err := r.CachedByURL(ctx, url, 2*time.Second)
		if err != nil || !ok {
			t.Fatalf("CachedByURL = %v, %v", ok, err)
		}
		if hit.Post.ID != post.ID || len(hit.Suggestions) != 1 || hit.Suggestions[0].ConceptName != "Operators" {
			t.Fatalf("hit = %+v", hit)
		}
		if hit.AuthorHandle == nil || *hit.AuthorHandle != "alice" {
			t.Fatalf("handle from authors table = %v", hit.AuthorHandle)
		}
		if _, ok, _ := r.CachedByURL(ctx, url+"?s=20", 2*time.Second); ok {
			t.Fatalf("cache key must be the exact url")
		}
	})

	t.Run("feedback upsert and avoid list", func(t *testing.T) {
		sugg, err := r.Suggestions(ctx, post.ID)
		if err != nil || len(sugg) == 0 {
			t.Fatalf("Suggestions = %v, %v", sugg, err)
		}
		in := domain.FeedbackInput{SuggestionID: sugg[0].ID, Vote: domain.VoteDown}
		created, err := r.UpsertFeedback(ctx, "u1", in)
		if err != nil || !created {
			t.Fatalf("first vote = %v, %v", created, err)
		}
		created, err = r.UpsertFeedback(ctx, "u1", in)
		if err != nil || created {
			t.Fatalf("second vote = %v, %v", created, err)
		}
		avoid, err := r.AvoidList(ctx, "u1", 40)
		if err != nil || len(avoid) != 1 || avoid[0] != "Operators" {
			t.Fatalf("AvoidList = %v, %v", avoid, err)
		}

		n, err := r.DeleteSuggestions(ctx, post.ID)
		if err != nil || n != 1 {
			t.Fatalf("DeleteSuggestions = %d, %v", n, err)
		}
		if avoid, _ := r.AvoidList(ctx, "u1", 40); len(avoid) != 0 {
			t.Fatalf("feedback should cascade with its suggestion, got %v", avoid)
		}
	})

	t.Run("lease hands a pending post out once", func(t *testing.T) {
		p, err := r.CreatePost(ctx, domain.Post{OwnerID: "u2", Text: "queue me"})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		first, err := r.LeasePending(ctx, 10, time.Minute)
		if err != nil {
			t.Fatalf("LeasePending: %v", err)
		}
		var found bool
		for _, l := range first {
			found = found || l.PostID == p.ID
		}
		if !found {
			t.Fatalf("lease %v does not include %s", first, p.ID)
		}
		again, _ := r.LeasePending(ctx, 10, time.Minute)
		for _, l := range again {
			if l.PostID == p.ID {
				t.Fatalf("post leased twice")
			}
		}

		if err := r.Release(ctx, p.ID, 0, "transient"); err != nil {
			t.Fatalf("Release: %v", err)
		}
		got, _ := r.GetPost(ctx, p.ID)
		if got.Attempts != 1 || got.LastError == nil || *got.LastError != "transient" {
			t.Fatalf("released post = %+v", got)
		}
	})

	t.Run("cache picks the newest analyzed post that has suggestions", func(t *testing.T) {
		shared := "https://x.com/bob/status/77"
		base := time.Now().Add(-time.Hour).UTC()
		mk := func(owner string, status domain.Status, at time.Duration) domain.Post {
			p, err := r.CreatePost(ctx, domain.Post{
				OwnerID: owner, Text: "Terraform modules", SourceURL: &shared, Source: domain.SourceX,
				Status: status, CreatedAt: base.Add(at),
			})
			if err != nil {
				t.Fatalf("CreatePost(%s): %v", owner, err)
			}
			return p
		}
		older := mk("u5", domain.StatusPending, 0)
		newer := mk("u6", domain.StatusAnalyzed, time.Minute)
		mk("u7", domain.StatusAnalyzed, 2*time.Minute)

		cid, err := r.UpsertConcept(ctx, domain.ConceptWrite{Name: "Terraform", Normalized: "terraform", Status: domain.ConceptActive})
		if err != nil {
			t.Fatalf("UpsertConcept: %v", err)
		}
		if err := r.InsertSuggestions(ctx, newer.ID, []domain.SuggestionWrite{{ConceptID: cid, Score: 0.8, Rationale: "iac"}}); err != nil {
			t.Fatalf("InsertSuggestions: %v", err)
		}

		hit, ok, err := r.CachedByURL(ctx, shared, 2*time.Second)
		if err != nil || !ok {
			t.Fatalf("CachedByURL = %v, %v", ok, err)
		}
		if hit.Post.ID != newer.ID || hit.Post.ID == older.ID {
			t.Fatalf("cache served %s, want %s", hit.Post.ID, newer.ID)
		}
		if len(hit.Suggestions) != 1 || hit.Suggestions[0].ConceptName != "Terraform" {
			t.Fatalf("suggestions = %+v", hit.Suggestions)
		}

		sid := hit.Suggestions[0].ID
		if _, err := r.UpsertFeedback(ctx, "u1", domain.FeedbackInput{SuggestionID: sid, Vote: domain.VoteDown}); !perr.IsCode(err, perr.ErrorCodeNotFound) {
			t.Fatalf("vote on a foreign post err = %v, want NotFound", err)
		}
		if created, err := r.UpsertFeedback(ctx, "u6", domain.FeedbackInput{SuggestionID: sid, Vote: domain.VoteUp}); err != nil || !created {
			t.Fatalf("owner vote = %v, %v", created, err)
		}
	})

	t.Run("auth wall imports are not leased", func(t *testing.T) {
		walled, err := r.CreatePost(ctx, domain.Post{OwnerID: "u8", Text: "", RequiresAuth: true, Source: domain.SourceX})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		leases, err := r.LeasePending(ctx, 100, time.Minute)
		if err != nil {
			t.Fatalf("LeasePending: %v", err)
		}
		for _, l := range leases {
			if l.PostID == walled.ID {
				t.Fatalf("auth wall post %s was leased", walled.ID)
			}
		}
	})
}
