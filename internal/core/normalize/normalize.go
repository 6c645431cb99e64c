// Package normalize turns post text and concept names into stable forms.
// Key sanitizes, decomposes (NFKD), case folds, drops combining marks and
// format runes, folds width, recomposes and finally keeps only [a-z0-9]
// words separated by single spaces
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// transformer chains keep state, so each goroutine borrows its own
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
			width.Fold,
			norm.NFC,
		)
	},
}

func fold(s string) string {
	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Key returns the comparison key for a concept name: "Retrieval-Augmented  Generation!" and
// "retrieval augmented generation" share one key. Empty means the name carries no usable characters
func Key(name string) string {
	if name == "" {
		return ""
	}
	s := fold(Sanitize(name))

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// Tokens splits a key into its words
func Tokens(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, " ")
}

// Text cleans post text before it is stored: control bytes are dropped, whitespace runs collapse to
// one space and runs containing a line break collapse to one newline. Case and punctuation are kept
func Text(s string) string {
	return collapseSpaces(Sanitize(s))
}

// collapseSpaces turns each whitespace run into one space, or one newline when
// the run holds a line break. Leading and trailing runs are dropped
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var sep byte
	for _, r := range s {
		if unicode.IsSpace(r) {
			if r == '\n' || r == '\r' {
				sep = '\n'
			} else if sep == 0 {
				sep = ' '
			}
			continue
		}
		if sep != 0 && b.Len() > 0 {
			b.WriteByte(sep)
		}
		sep = 0
		b.WriteRune(r)
	}
	return b.String()
}
