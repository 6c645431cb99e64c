// Package domain holds the ingestion types and ports
package domain

import "time"

// Status is the analysis state of a post
type Status string

const (
	StatusPending  Status = "pending"
	StatusAnalyzed Status = "analyzed"
	StatusFailed   Status = "failed"
)

// Source records how a post entered the system
type Source string

const (
	SourceManual Source = "manual"
	SourceX      Source = "x"
)

// Vote is a user's verdict on a suggestion
type Vote string

const (
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

// Concept status values
const (
	ConceptActive  = "active"
	ConceptPending = "pending"
)

// FailedConceptName is the placeholder concept attached to failed analyses
const FailedConceptName = "Analysis failed"

// Post is a unit of ingested content owned by one user
type Post struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"ownerId"`
	Text         string     `json:"text"`
	SourceURL    *string    `json:"sourceUrl"`
	Source       Source     `json:"source"`
	AuthorHandle *string    `json:"authorHandle"`
	AuthorID     *string    `json:"authorId,omitempty"`
	Status       Status     `json:"status"`
	RequiresAuth bool       `json:"requiresAuth"`
	Attempts     int        `json:"attempts"`
	LastError    *string    `json:"lastError,omitempty"`
	LeaseUntil   *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Concept is a globally shared learning topic keyed by normalized name
type Concept struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalizedName"`
	Description    *string   `json:"description"`
	Aliases        []string  `json:"aliases"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ConceptWrite is the upsert payload for a concept
type ConceptWrite struct {
	Name        string
	Normalized  string
	Description string
	Status      string
}

// Suggestion links a post to a concept for one analysis run
type Suggestion struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	ConceptID string    `json:"conceptId"`
	Score     float64   `json:"score"`
	Rationale string    `json:"rationale"`
	CreatedAt time.Time `json:"createdAt"`
}

// SuggestionView is a suggestion with its concept name joined in
type SuggestionView struct {
	Suggestion
	ConceptName string `json:"conceptName"`
}

// SuggestionWrite is one row of a batch insert
type SuggestionWrite struct {
	ConceptID string
	Score     float64
	Rationale string
}

// Cached is a previous completed analysis of the same URL
type Cached struct {
	Post         Post
	AuthorHandle *string
	Suggestions  []SuggestionView
}

// Lease is one pending post handed to a worker
type Lease struct {
	PostID   string
	Attempts int
}
