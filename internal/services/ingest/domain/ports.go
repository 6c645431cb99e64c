package domain

import "context"

// ServicePort is the ingestion surface used by HTTP, the worker and the CLI
type ServicePort interface {
	CreatePost(ctx context.Context, owner string, in CreateInput) (Post, error)
	Import(ctx context.Context, owner, url string) (ImportResult, error)
	Analyze(ctx context.Context, postID string) (AnalyzeResult, error)

	Get(ctx context.Context, owner, id string) (PostDetail, error)
	List(ctx context.Context, owner string) ([]Post, error)
	Reset(ctx context.Context, owner, id string) error
	Feedback(ctx context.Context, user string, in FeedbackInput) (FeedbackResult, error)
	Concepts(ctx context.Context) ([]Concept, error)
}

// WorkerPort runs the analysis loop
type WorkerPort interface {
	Run(ctx context.Context) error
	RunOnce(ctx context.Context) (int, error)
}
