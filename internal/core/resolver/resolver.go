// Package resolver maps post URLs to platform post ids
package resolver

import (
	"net/url"
	"strings"
)

// Result is the outcome of Resolve. OK=false means the URL is not a supported post link
type Result struct {
	OK         bool
	PostID     string
	HandleHint string
}

var hosts = map[string]struct{}{
	"x.com":           {},
	"www.x.com":       {},
	"twitter.com":     {},
	"www.twitter.com": {},
}

// Resolve parses raw and extracts the post id. It accepts
//
//	https://x.com/<handle>/status/<id>[/...]
//	https://x.com/i/web/status/<id>
//
// on x.com and twitter.com (with or without www). Query strings and fragments are ignored
func Resolve(raw string) Result {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Result{}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return Result{}
	}
	if _, ok := hosts[strings.ToLower(u.Hostname())]; !ok {
		return Result{}
	}

	parts := segments(u.Path)

	// /i/web/status/<id>
	if len(parts) >= 4 && parts[0] == "i" && parts[1] == "web" && parts[2] == "status" {
		if !digits(parts[3]) {
			return Result{}
		}
		return Result{OK: true, PostID: parts[3]}
	}

	// /<handle>/status/<id>
	if len(parts) >= 3 && strings.EqualFold(parts[1], "status") && parts[0] != "i" {
		if !digits(parts[2]) {
			return Result{}
		}
		return Result{OK: true, PostID: parts[2], HandleHint: parts[0]}
	}
	return Result{}
}

// HandleFromPath returns the segment before "status" in a post path, used when a page was captured
// from a URL the resolver did not see
func HandleFromPath(p string) string {
	parts := segments(p)
	for i := 1; i < len(parts); i++ {
		if parts[i] == "status" && parts[i-1] != "web" {
			return parts[i-1]
		}
	}
	return ""
}

func segments(p string) []string {
	raw := strings.Split(p, "/")
	out := raw[:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
