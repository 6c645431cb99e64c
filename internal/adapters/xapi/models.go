package xapi

import "time"

// EndpointLookup names the single-post lookup in the usage ledger
const EndpointLookup = "tweets.lookup"

// Post is the subset of a post payload the pipeline keeps
type Post struct {
	Text         string
	AuthorHandle string
}

// AttemptStatus is the ledger outcome of one upstream call
type AttemptStatus string

const (
	// AttemptOK is a 2xx reply
	AttemptOK AttemptStatus = "ok"

	// AttemptRateLimited is a 429 reply
	AttemptRateLimited AttemptStatus = "rate_limited"

	// AttemptError is every other outcome, transport failures included
	AttemptError AttemptStatus = "error"
)

// Attempt describes one call for the usage ledger
// it is filled on every path, even when FetchPost returns an error
type Attempt struct {
	Endpoint   string
	ExternalID string
	Status     AttemptStatus
	HTTPStatus int
	ResetAt    *time.Time
	Message    string
}

// lookupResponse mirrors GET /2/tweets/{id} with the author expansion
type lookupResponse struct {
	Data *struct {
		ID       string `json:"id"`
		Text     string `json:"text"`
		AuthorID string `json:"author_id"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}
