// Package capture calls the remote browser capture service used when the primary fetcher cannot help
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	stderrs "errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"postlens/internal/core/lexicon"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
)

const (
	defaultTimeout = 60 * time.Second
	maxBody        = 8 << 20
	diagBody       = 2048
)

// Options configures the Client
type Options struct {
	URL     string
	Token   string
	Timeout time.Duration

	// Lexicon supplies auth wall phrases, Default() when nil
	Lexicon *lexicon.Lexicon
}

// Result is a classified capture
type Result struct {
	Text             string
	ScreenshotBase64 string
	AuthorHandle     string
	RequiresAuth     bool
}

// Client posts capture requests to the capture service
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	o.URL = strings.TrimSpace(o.URL)
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Lexicon == nil {
		o.Lexicon = lexicon.Default()
	}
	return &Client{
		// the per call context carries the deadline
		http: &http.Client{},
		opts: o,
		log:  *logger.Named("capture"),
	}
}

// Configured reports whether a capture endpoint is set
func (c *Client) Configured() bool { return c != nil && c.opts.URL != "" }

// Capture asks the service to render url and returns the classified result
func (c *Client) Capture(ctx context.Context, url string, screenshotOnly bool) (Result, error) {
	if !c.Configured() {
		return Result{}, perr.Unavailablef("capture service not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	body, err := json.Marshal(Request{URL: url, ScreenshotOnly: screenshotOnly})
	if err != nil {
		return Result{}, perr.Wrapf(err, perr.ErrorCodeJSON, "capture encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "capture new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Result{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "capture timed out after %s", c.opts.Timeout)
		}
		return Result{}, perr.Wrapf(err, perr.ErrorCodeUpstream, "capture request failed")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("capture close body failed")
		}
	}()

	c.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("capture http response")

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return Result{}, perr.Credentialsf(resp.StatusCode, "capture rejected credentials (%d)", resp.StatusCode)
	case resp.StatusCode == http.StatusGatewayTimeout:
		return Result{}, perr.WithStatus(perr.Unavailablef("capture timed out upstream"), resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, diagBody))
		return Result{}, perr.Upstreamf(resp.StatusCode, "capture error (%d): %s", resp.StatusCode, strings.TrimSpace(string(diag)))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if isTimeout(err) {
			return Result{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "capture timed out reading reply")
		}
		return Result{}, perr.Wrapf(err, perr.ErrorCodeUpstream, "capture read body failed")
	}
	var out Response
	if err := json.Unmarshal(b, &out); err != nil {
		return Result{}, perr.WithStatus(perr.Wrapf(err, perr.ErrorCodeUpstream, "capture decode failed"), resp.StatusCode)
	}

	out = Classify(c.opts.Lexicon, out)
	res := Result{
		Text:             strings.TrimSpace(out.Text),
		ScreenshotBase64: out.ScreenshotBase64,
		RequiresAuth:     out.RequiresAuth,
	}
	if out.AuthorHandle != nil {
		res.AuthorHandle = strings.TrimPrefix(strings.TrimSpace(*out.AuthorHandle), "@")
	}
	if res.RequiresAuth {
		c.log.Info().Str("url", url).Msg("capture hit an auth wall")
	}
	return res, nil
}

func isTimeout(err error) bool {
	if stderrs.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return stderrs.As(err, &ne) && ne.Timeout()
}
