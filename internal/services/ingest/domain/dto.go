package domain

// ImportInput is the body of POST /posts/import
type ImportInput struct {
	URL string `json:"url" validate:"required,url,max=2048"`
}

// CreateInput is the body of POST /posts
type CreateInput struct {
	Text         string `json:"text" validate:"required,max=20000"`
	SourceURL    string `json:"sourceUrl,omitempty" validate:"omitempty,url,max=2048"`
	AuthorHandle string `json:"authorHandle,omitempty" validate:"omitempty,handle"`
}

// ImportResult is what an import returns to the caller
type ImportResult struct {
	Post         Post   `json:"post"`
	Cached       bool   `json:"cached"`
	RequiresAuth bool   `json:"requiresAuth"`
	Fetcher      string `json:"fetcher,omitempty"`
}

// PostDetail is a post with its current suggestion batch
type PostDetail struct {
	Post        Post             `json:"post"`
	Suggestions []SuggestionView `json:"suggestions"`
}

// FeedbackInput is the body of POST /feedback
type FeedbackInput struct {
	SuggestionID string `json:"suggestionId" validate:"required,uuid"`
	Vote         Vote   `json:"vote" validate:"required,oneof=up down"`
}

// FeedbackResult reports whether the vote was new
type FeedbackResult struct {
	Status string `json:"status"`
}

// AnalyzeResult reports the state an analysis left the post in
type AnalyzeResult struct {
	PostID string `json:"postId"`
	Status Status `json:"status"`
}
