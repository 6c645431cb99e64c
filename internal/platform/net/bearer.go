package net

import (
	"net/http"
	"strings"
)

// Bearer returns the token from "Authorization: Bearer <token>". The scheme
// is matched case-insensitively
func Bearer(r *http.Request) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
