package normalize

import (
	"strings"
	"unicode/utf8"
)

// dropRune reports runes no stored text or LLM prompt should carry: C0
// controls other than tab and line breaks, DEL and C1 controls
func dropRune(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r < 0x20, r == 0x7f:
		return true
	}
	return r >= 0x80 && r <= 0x9f
}

// Sanitize removes control runes and invalid UTF-8 bytes. Clean input is
// returned as is
func Sanitize(s string) string {
	if utf8.ValidString(s) && strings.IndexFunc(s, dropRune) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !(r == utf8.RuneError && size == 1) && !dropRune(r) {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}
