// Package strings has the small string helpers shared by adapters and services
package strings

import std "strings"

// Ptr returns &s, or nil for an empty string so optional columns store NULL
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns *ps or "" when ps is nil
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}

// Clip cuts s to at most n runes. n <= 0 leaves s alone
func Clip(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Handle trims an author handle and drops one leading @
func Handle(s string) string {
	return std.TrimPrefix(std.TrimSpace(s), "@")
}

// Or returns s unless it is blank, then def
func Or(s, def string) string {
	if std.TrimSpace(s) == "" {
		return def
	}
	return s
}
