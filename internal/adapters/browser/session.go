// Package browser renders post pages in headless Chrome for the capture service
package browser

import (
	"context"
	"net/url"
	"strings"
	"time"

	"postlens/internal/core/resolver"
	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const (
	defaultNavTimeout = 45 * time.Second
	defaultSettle     = 1200 * time.Millisecond
	defaultWidth      = 1280
	defaultHeight     = 720
)

// cookieDomains receive every seeded cookie
var cookieDomains = []string{".x.com", ".twitter.com"}

// Options configures a Session
type Options struct {
	// RemoteURL is a DevTools websocket; empty launches a local headless Chrome
	RemoteURL string

	// Cookies is a "name=value; ..." string seeded before navigation
	Cookies string

	NavTimeout time.Duration
	Settle     time.Duration
	Width      int
	Height     int
	TextLimit  int
}

// Capture is what one page render produced
type Capture struct {
	Text         string
	Selector     string
	Screenshot   []byte
	AuthorHandle string
}

// Session launches one browser per capture and tears it down on every path
type Session struct {
	opts    Options
	cookies []Cookie
	log     logger.Logger
}

// NewSession creates a Session with sane defaults
func NewSession(o Options) *Session {
	if o.NavTimeout <= 0 {
		o.NavTimeout = defaultNavTimeout
	}
	if o.Settle <= 0 {
		o.Settle = defaultSettle
	}
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.Height <= 0 {
		o.Height = defaultHeight
	}
	if o.TextLimit <= 0 {
		o.TextLimit = DefaultTextLimit
	}
	return &Session{
		opts:    o,
		cookies: ParseCookies(o.Cookies),
		log:     *logger.Named("browser"),
	}
}

// Capture renders rawURL, extracts the post text unless screenshotOnly, and screenshots the post
func (s *Session) Capture(ctx context.Context, rawURL string, screenshotOnly bool) (Capture, error) {
	allocCtx, cancelAlloc := s.allocator(ctx)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	start := time.Now()
	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(s.opts.Width), int64(s.opts.Height)),
		s.seedCookies(),
	); err != nil {
		return Capture{}, s.classify(ctx, err, "browser start")
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, s.opts.NavTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(rawURL)); err != nil {
		return Capture{}, s.classify(navCtx, err, "browser navigate")
	}

	var html string
	if err := chromedp.Run(tabCtx,
		chromedp.Sleep(s.opts.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return Capture{}, s.classify(tabCtx, err, "browser read page")
	}

	out := Capture{AuthorHandle: handleHint(rawURL)}
	if !screenshotOnly {
		out.Text, out.Selector = ExtractText(html, s.opts.TextLimit)
	}

	shot, err := s.screenshot(tabCtx)
	if err != nil {
		return Capture{}, s.classify(tabCtx, err, "browser screenshot")
	}
	out.Screenshot = shot

	s.log.Debug().
		Str("url", rawURL).
		Str("selector", out.Selector).
		Int("text_len", len(out.Text)).
		Int("png_bytes", len(shot)).
		Dur("took", time.Since(start)).
		Msg("browser capture done")
	return out, nil
}

func (s *Session) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(ctx, s.opts.RemoteURL)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(s.opts.Width, s.opts.Height),
		chromedp.Flag("headless", true),
	)
	return chromedp.NewExecAllocator(ctx, opts...)
}

func (s *Session) seedCookies() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(s.cookies) == 0 {
			return nil
		}
		params := make([]*network.CookieParam, 0, len(s.cookies)*len(cookieDomains))
		for _, c := range s.cookies {
			for _, d := range cookieDomains {
				params = append(params, &network.CookieParam{
					Name:     c.Name,
					Value:    c.Value,
					Domain:   d,
					Path:     "/",
					Secure:   true,
					HTTPOnly: true,
				})
			}
		}
		return network.SetCookies(params).Do(ctx)
	})
}

// screenshot prefers the post node, then the article, then the full page
func (s *Session) screenshot(ctx context.Context) ([]byte, error) {
	for _, sel := range []string{SelectorPost, SelectorArticle} {
		var present bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(
			"document.querySelector('"+strings.ReplaceAll(sel, "'", `\'`)+"') !== null", &present,
		)); err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		var buf []byte
		if err := chromedp.Run(ctx, chromedp.Screenshot(sel, &buf, chromedp.ByQuery)); err != nil {
			return nil, err
		}
		return buf, nil
	}
	var buf []byte
	// quality 100 keeps the capture as png
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, err
	}
	return buf, nil
}

// classify turns chromedp failures into coded errors, deadlines are retryable
func (s *Session) classify(ctx context.Context, err error, op string) error {
	if ctx.Err() == context.DeadlineExceeded {
		s.log.Warn().Err(err).Str("op", op).Msg("browser timed out")
		return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s timed out", op), op)
	}
	s.log.Warn().Err(err).Str("op", op).Msg("browser failed")
	return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeUpstream, "%s failed", op), op)
}

func handleHint(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return resolver.HandleFromPath(u.Path)
}
