package httpkit

import (
	"errors"
	"net/http"
	"time"

	perr "postlens/internal/platform/errors"
	pnet "postlens/internal/platform/net"
	"postlens/internal/platform/net/middleware"

	"github.com/golang-jwt/jwt/v5"
)

// TokenFunc turns a raw bearer token into the user id it was issued to
type TokenFunc func(token string) (userID string, err error)

// Port implements middleware.AuthPort on top of a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from fn
func NewPortFunc(fn TokenFunc) *Port { return &Port{parse: fn} }

// Parse reads the bearer token. Every failure is Unauthorized so clients
// cannot tell a bad signature from an expired token
func (p *Port) Parse(r *http.Request) (string, error) {
	raw, ok := pnet.Bearer(r)
	if !ok {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	if p.parse == nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	uid, err := p.parse(raw)
	if err != nil || uid == "" {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return uid, nil
}

// Auth is the bearer auth middleware for port
func Auth(port middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(port)
}

// User returns the authenticated user id set by Auth
func User(r *http.Request) (string, error) {
	if uid := pnet.UserID(r.Context()); uid != "" {
		return uid, nil
	}
	return "", perr.Unauthorizedf("missing bearer token")
}

// HS256 verifies HMAC-SHA256 tokens signed with secret and yields their subject
func HS256(secret string) TokenFunc {
	key := []byte(secret)
	keyFn := func(*jwt.Token) (any, error) { return key, nil }
	return func(raw string) (string, error) {
		var claims jwt.RegisteredClaims
		if _, err := jwt.ParseWithClaims(raw, &claims, keyFn, jwt.WithValidMethods([]string{"HS256"})); err != nil {
			return "", err
		}
		if claims.Subject == "" {
			return "", errors.New("token has no subject")
		}
		return claims.Subject, nil
	}
}

// IssueHS256 signs a token for userID that expires after ttl
func IssueHS256(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
