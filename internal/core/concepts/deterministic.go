package concepts

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"postlens/internal/core/lexicon"
)

// DefaultK is how many concepts the deterministic extractor returns
const DefaultK = 6

// maxTokens bounds how much of a post the frequency count looks at
const maxTokens = 40

var (
	tokenRe  = regexp.MustCompile(`[a-z0-9+\-]{3,}`)
	handleRe = regexp.MustCompile(`@([A-Za-z0-9_]{1,15})`)
)

// Deterministic extracts concepts by token frequency with the embedded lexicon
func Deterministic(text string, k int) Extraction {
	return deterministic(lexicon.Default(), text, k)
}

// Deterministic extracts concepts by token frequency. The output is not sanitized
func (s Sanitizer) Deterministic(text string, k int) Extraction {
	lex := s.Lex
	if lex == nil {
		lex = lexicon.Default()
	}
	return deterministic(lex, text, k)
}

func deterministic(lex *lexicon.Lexicon, text string, k int) Extraction {
	if k <= 0 {
		k = DefaultK
	}

	type tally struct {
		word  string
		count int
	}
	var (
		order []*tally
		byW   = map[string]*tally{}
		taken int
	)
	for _, w := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if lex.IsStopword(w) {
			continue
		}
		if taken == maxTokens {
			break
		}
		taken++
		if t, ok := byW[w]; ok {
			t.count++
			continue
		}
		t := &tally{word: w, count: 1}
		byW[w] = t
		order = append(order, t)
	}

	// ties keep first-seen order
	sort.SliceStable(order, func(i, j int) bool { return order[i].count > order[j].count })
	if len(order) > k {
		order = order[:k]
	}

	out := Extraction{Concepts: make([]Candidate, 0, len(order))}
	for _, t := range order {
		out.Concepts = append(out.Concepts, Candidate{
			Name:      titleCase(strings.ReplaceAll(t.word, "+", " + ")),
			Rationale: fmt.Sprintf("Mentioned %dx in the post", t.count),
			Score:     math.Min(0.9, 0.4+0.1*float64(t.count)),
		})
	}
	if m := handleRe.FindStringSubmatch(text); m != nil {
		out.AuthorHandle = m[1]
	}
	return out
}

// titleCase upper-cases the first byte of every space separated word; tokens are ASCII
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
