package middleware

import (
	"net/http"
	"runtime/debug"

	perr "postlens/internal/platform/errors"
	"postlens/internal/platform/logger"
	pnet "postlens/internal/platform/net"
)

// RecoverJSON turns a panic into a 500 envelope and logs the stack
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			reqID := pnet.RequestID(r.Context())
			if reqID != "" {
				w.Header().Set("X-Request-Id", reqID)
			}
			status, env := pnet.Failure(perr.PanicErrf("internal error"), reqID)
			pnet.WriteJSON(w, status, env)
		}()
		next.ServeHTTP(w, r)
	})
}
