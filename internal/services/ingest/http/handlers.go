// Package http provides HTTP transport for posts, feedback and the concept catalog
package http

import (
	stdhttp "net/http"

	"postlens/internal/modkit/httpkit"
	"postlens/internal/services/ingest/domain"
)

// Register mounts the post endpoints
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.ImportInput](r, "/import", h.importURL)
	httpkit.PostJSON[domain.CreateInput](r, "/", h.create)
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.Post(r, "/{id}/analyze", h.analyze)
	httpkit.Post(r, "/{id}/reset", h.reset)
}

// RegisterFeedback mounts the vote endpoint
func RegisterFeedback(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.FeedbackInput](r, "/", h.feedback)
}

// RegisterConcepts mounts the catalog endpoint
func RegisterConcepts(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/", h.concepts)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /posts/import Posts importPost
// @Summary Import a post by URL
// @Description Resolves the URL, reuses a cached analysis when one exists, otherwise fetches the post
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.ImportInput true "Import"
// @Success 200 {object} domain.ImportResult "ok"
// @Failure 422 {object} httpkit.Envelope "unresolvable url or empty content"
// @Failure 429 {object} httpkit.Envelope "primary api window exhausted"
// @Failure 502 {object} httpkit.Envelope "upstream failure"
// @Failure 503 {object} httpkit.Envelope "no fetcher configured"
// @Router /posts/import [post]
func (h *handlers) importURL(r *stdhttp.Request, in domain.ImportInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Import(r.Context(), uid, in.URL)
}

// swagger:route POST /posts Posts createPost
// @Summary Create a post from pasted text
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.CreateInput true "Post"
// @Success 200 {object} domain.Post "ok"
// @Failure 400 {object} httpkit.Envelope "invalid body"
// @Router /posts [post]
func (h *handlers) create(r *stdhttp.Request, in domain.CreateInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.CreatePost(r.Context(), uid, in)
}

// swagger:route GET /posts Posts listPosts
// @Summary List my posts, newest first
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Post "ok"
// @Router /posts [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.List(r.Context(), uid)
}

// swagger:route GET /posts/{id} Posts getPost
// @Summary Get a post with its current suggestions
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post id"
// @Success 200 {object} domain.PostDetail "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /posts/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	uid, id, err := userAndID(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), uid, id)
}

// swagger:route POST /posts/{id}/analyze Posts analyzePost
// @Summary Analyze a post now
// @Description A failed analysis still answers 200 with status failed
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post id"
// @Success 200 {object} domain.AnalyzeResult "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /posts/{id}/analyze [post]
func (h *handlers) analyze(r *stdhttp.Request) (any, error) {
	uid, id, err := userAndID(r)
	if err != nil {
		return nil, err
	}
	if _, err := h.svc.Get(r.Context(), uid, id); err != nil {
		return nil, err
	}
	return h.svc.Analyze(r.Context(), id)
}

// swagger:route POST /posts/{id}/reset Posts resetPost
// @Summary Drop suggestions and feedback and queue the post again
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post id"
// @Success 200 {object} domain.AnalyzeResult "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /posts/{id}/reset [post]
func (h *handlers) reset(r *stdhttp.Request) (any, error) {
	uid, id, err := userAndID(r)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Reset(r.Context(), uid, id); err != nil {
		return nil, err
	}
	return domain.AnalyzeResult{PostID: id, Status: domain.StatusPending}, nil
}

// swagger:route POST /feedback Feedback voteSuggestion
// @Summary Vote on a suggestion
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.FeedbackInput true "Vote"
// @Success 200 {object} domain.FeedbackResult "ok"
// @Failure 400 {object} httpkit.Envelope "invalid body"
// @Failure 404 {object} httpkit.Envelope "suggestion not found or not yours"
// @Failure 422 {object} httpkit.Envelope "malformed suggestion id"
// @Router /feedback [post]
func (h *handlers) feedback(r *stdhttp.Request, in domain.FeedbackInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Feedback(r.Context(), uid, in)
}

// swagger:route GET /concepts Concepts listConcepts
// @Summary Active concept catalog
// @Tags Concepts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Concept "ok"
// @Router /concepts [get]
func (h *handlers) concepts(r *stdhttp.Request) (any, error) {
	return h.svc.Concepts(r.Context())
}

func userAndID(r *stdhttp.Request) (string, string, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return "", "", err
	}
	id, err := httpkit.Param(r, "id")
	if err != nil {
		return "", "", err
	}
	return uid, id, nil
}
