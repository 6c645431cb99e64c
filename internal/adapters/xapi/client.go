// Package xapi is the primary content fetcher backed by the X API v2 post lookup
package xapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
	pstr "postlens/internal/platform/strings"
	ptime "postlens/internal/platform/time"
)

const (
	baseURLDefault = "https://api.x.com"
	defaultTimeout = 15 * time.Second
	defaultUA      = "postlens"

	maxBody  = 1 << 20
	diagBody = 2048
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Token is the app bearer token; empty disables the client
	Token string
}

// Client issues single post lookups
// it never retries; callers decide what a failed attempt means
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	o.Token = strings.TrimSpace(o.Token)
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("xapi"),
		now:  time.Now,
	}
}

// Configured reports whether a bearer token is present
func (c *Client) Configured() bool { return c != nil && c.opts.Token != "" }

// FetchPost looks up one post by numeric id
// the returned Attempt is always populated so the caller can ledger it
func (c *Client) FetchPost(ctx context.Context, id string) (Post, Attempt, error) {
	att := Attempt{Endpoint: EndpointLookup, ExternalID: id, Status: AttemptError}
	if !c.Configured() {
		att.Message = "not configured"
		return Post{}, att, perr.Unavailablef("x api token not configured")
	}

	u := c.opts.BaseURL + "/2/tweets/" + url.PathEscape(id) + "?expansions=author_id&user.fields=username"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		att.Message = err.Error()
		return Post{}, att, perr.Wrapf(err, perr.ErrorCodeUnknown, "x api new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		att.Message = err.Error()
		c.log.Warn().Err(err).Str("post_id", id).Dur("latency", lat).Msg("x api transport error")
		return Post{}, att, perr.Wrapf(err, perr.ErrorCodeUpstream, "x api request failed")
	}

	rem, reset := parseRateHeaders(resp.Header)
	att.HTTPStatus = resp.StatusCode
	att.ResetAt = ptime.Ptr(reset)
	c.log.Debug().
		Str("post_id", id).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Int("rate_remaining", rem).
		Time("rate_reset", reset).
		Msg("x api http response")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_ = drainAndClose(resp.Body)
		att.Status = AttemptRateLimited
		att.Message = "rate limited"
		return Post{}, att, perr.RateLimited(reset, "x api rate limited")

	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, diagBody))
		_ = resp.Body.Close()
		att.Message = string(body)
		return Post{}, att, perr.Credentialsf(resp.StatusCode, "x api rejected credentials (%d)", resp.StatusCode)

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// read a small tail for diagnostics then return
		body, _ := io.ReadAll(io.LimitReader(resp.Body, diagBody))
		_ = resp.Body.Close()
		att.Message = string(body)
		return Post{}, att, perr.Upstreamf(resp.StatusCode, "x api error (%d): %s", resp.StatusCode, string(body))
	}

	att.Status = AttemptOK
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("post_id", id).Msg("x api close body failed")
		}
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		att.Message = err.Error()
		return Post{}, att, perr.Wrapf(err, perr.ErrorCodeUpstream, "x api read body failed")
	}
	var out lookupResponse
	if err := json.Unmarshal(b, &out); err != nil {
		att.Message = "invalid json"
		return Post{}, att, perr.WithStatus(perr.Wrapf(err, perr.ErrorCodeUpstream, "x api decode failed"), resp.StatusCode)
	}
	if out.Data == nil || strings.TrimSpace(out.Data.Text) == "" {
		att.Message = "no post text"
		if len(out.Errors) > 0 {
			att.Message = pstr.Clip(out.Errors[0].Title+": "+out.Errors[0].Detail, diagBody)
		}
		return Post{}, att, perr.WithStatus(perr.EmptyContentf("x api returned no post text"), resp.StatusCode)
	}

	return Post{Text: out.Data.Text, AuthorHandle: pickAuthor(out)}, att, nil
}

// pickAuthor prefers the expanded user matching author_id, else the first one
func pickAuthor(out lookupResponse) string {
	users := out.Includes.Users
	if len(users) == 0 {
		return ""
	}
	for _, u := range users {
		if out.Data != nil && u.ID != "" && u.ID == out.Data.AuthorID {
			return pstr.Handle(u.Username)
		}
	}
	return pstr.Handle(users[0].Username)
}
