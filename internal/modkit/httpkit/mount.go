package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"postlens/internal/platform/net/middleware"
)

// CommonStack is the middleware every /api/v1 route runs behind. No origins
// allows any origin
func CommonStack(origins ...string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(time.Second),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(origins...),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/api/v1/health"),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}

// MountAPIV1 scopes mw and the routes mount registers under /api/v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/v1", func(api Router) {
		api.Use(mw...)
		mount(api)
	})
}
