package middleware

import (
	"net/http"

	"postlens/internal/platform/logger"
	pnet "postlens/internal/platform/net"
)

// AuthPort resolves the caller of a request
type AuthPort interface {
	// Parse returns the authenticated user id or an error
	Parse(r *http.Request) (userID string, err error)
}

// Auth rejects requests the port cannot authenticate with the mapped error
// envelope. The user id lands on the context for handlers and the logger.
// A nil port passes everything through
func Auth(p AuthPort) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			reqID := pnet.RequestID(r.Context())
			uid, err := p.Parse(r)
			if err != nil {
				status, env := pnet.Failure(err, reqID)
				pnet.WriteJSON(w, status, env)
				return
			}
			ctx := pnet.WithUser(r.Context(), uid)
			ctx = logger.WithRequest(ctx, reqID, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
