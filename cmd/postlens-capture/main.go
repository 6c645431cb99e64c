// @title         postlens capture
// @version       0.1.0
// @description   Headless browser rendering of post pages

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postlens/internal/adapters/browser"
	"postlens/internal/core/lexicon"
	"postlens/internal/platform/config"
	"postlens/internal/platform/logger"
	phttp "postlens/internal/platform/net/http"
	"postlens/internal/platform/net/middleware"

	capturehttp "postlens/internal/services/capture/http"
	capturesvc "postlens/internal/services/capture/service"
)

func main() {
	_, _ = config.LoadDotenv()

	root := config.New()
	capCfg := root.Prefix("CAPTURE_")

	l := logger.Named("capture")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lex := lexicon.Default()
	if path := capCfg.MayString("LEXICON_FILE", ""); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			l.Panic().Err(err).Str("path", path).Msg("read lexicon")
		}
		if lex, err = lexicon.Parse(b); err != nil {
			l.Panic().Err(err).Str("path", path).Msg("parse lexicon")
		}
	}

	sess := browser.NewSession(browser.Options{
		RemoteURL:  capCfg.MayString("CHROME_URL", ""),
		Cookies:    capCfg.MayString("COOKIES", ""),
		NavTimeout: capCfg.MayDuration("NAV_TIMEOUT", 0),
		Settle:     capCfg.MayDuration("SETTLE", 0),
	})
	svc := capturesvc.New(sess, lex, capCfg.MayDuration("CAP", capturesvc.DefaultCap))

	token := capCfg.MayString("TOKEN", "")
	if token == "" {
		l.Warn().Msg("CAPTURE_TOKEN is empty, every request will be rejected")
	}

	// reads CAPTURE_PORT
	srv := phttp.NewServer(capCfg)
	r := srv.Router()
	// no Timeout middleware, the service enforces its own cap
	r.Use(
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(5*time.Second),
		middleware.RecoverJSON,
		middleware.Heartbeat("/health"),
	)
	capturehttp.Register(r, svc, token)

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("capture server stopped")
	}
}
