// Package service renders a post page and classifies the result for the capture endpoint
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"postlens/internal/adapters/browser"
	"postlens/internal/adapters/capture"
	"postlens/internal/core/lexicon"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
)

// DefaultCap bounds one capture invocation end to end
const DefaultCap = 60 * time.Second

// Renderer drives a browser; *browser.Session implements it
type Renderer interface {
	Capture(ctx context.Context, rawURL string, screenshotOnly bool) (browser.Capture, error)
}

// Svc turns capture requests into classified responses
type Svc struct {
	r   Renderer
	lex *lexicon.Lexicon
	cap time.Duration
	log logger.Logger
}

// New constructs the capture service. A zero limit means DefaultCap
func New(r Renderer, lex *lexicon.Lexicon, limit time.Duration) *Svc {
	if r == nil {
		panic("capture.Service requires a Renderer")
	}
	if lex == nil {
		lex = lexicon.Default()
	}
	if limit <= 0 {
		limit = DefaultCap
	}
	return &Svc{r: r, lex: lex, cap: limit, log: *logger.Named("capture-svc")}
}

// Capture renders req.URL under the invocation cap.
// A timeout comes back as Unavailable, every other failure as Upstream
func (s *Svc) Capture(ctx context.Context, req capture.Request) (capture.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cap)
	defer cancel()

	start := time.Now()
	got, err := s.r.Capture(ctx, req.URL, req.ScreenshotOnly)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || perr.IsCode(err, perr.ErrorCodeUnavailable) {
			return capture.Response{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "capture timed out after %s", time.Since(start).Round(time.Millisecond))
		}
		if _, ok := perr.As(err); ok {
			return capture.Response{}, err
		}
		return capture.Response{}, perr.Wrapf(err, perr.ErrorCodeUpstream, "capture failed")
	}

	resp := capture.Response{Text: strings.TrimSpace(got.Text)}
	if len(got.Screenshot) > 0 {
		resp.ScreenshotBase64 = base64.StdEncoding.EncodeToString(got.Screenshot)
	}
	if h := strings.TrimPrefix(strings.TrimSpace(got.AuthorHandle), "@"); h != "" {
		resp.AuthorHandle = &h
	}
	resp = capture.Classify(s.lex, resp)

	s.log.Info().
		Str("url", req.URL).
		Bool("requires_auth", resp.RequiresAuth).
		Int("text_len", len(resp.Text)).
		Dur("took", time.Since(start)).
		Msg("capture served")
	return resp, nil
}
