// Package concepts holds the candidate concept type, the sanitizer every extractor output passes
// through, and the deterministic frequency extractor used when no LLM answer is usable
package concepts

import (
	"math"
	"strings"

	"postlens/internal/core/lexicon"
	"postlens/internal/core/normalize"
)

// MaxAvoid caps how many rejected concept names are considered per user
const MaxAvoid = 40

// Candidate is one extracted concept before it is persisted
type Candidate struct {
	Name        string  `json:"name"`
	Rationale   string  `json:"rationale"`
	Score       float64 `json:"score"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Extraction is an extractor's full answer for one post
type Extraction struct {
	Concepts     []Candidate `json:"concepts"`
	AuthorHandle string      `json:"authorHandle,omitempty"`
}

// Sanitizer filters candidates against a lexicon
type Sanitizer struct {
	Lex *lexicon.Lexicon
}

// Sanitize filters with the embedded lexicon
func Sanitize(in []Candidate, avoid []string, max int) []Candidate {
	return Sanitizer{Lex: lexicon.Default()}.Sanitize(in, avoid, max)
}

// Sanitize drops candidates that are empty or all stopwords, contain a banned token, are weak single
// words, repeat an earlier candidate, or match the avoid list. Survivors keep input order and are
// truncated to max when max > 0. Output names are trimmed and scores clamped to [0,1]
func (s Sanitizer) Sanitize(in []Candidate, avoid []string, max int) []Candidate {
	lex := s.Lex
	if lex == nil {
		lex = lexicon.Default()
	}

	if len(avoid) > MaxAvoid {
		avoid = avoid[:MaxAvoid]
	}
	avoidSet := make(map[string]struct{}, len(avoid))
	for _, a := range avoid {
		if k := normalize.Key(a); k != "" {
			avoidSet[k] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		key := normalize.Key(c.Name)
		if key == "" {
			continue
		}
		toks := normalize.Tokens(key)
		if allStop(lex, toks) || anyBanned(lex, toks) || weakSingle(lex, key) {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if _, rejected := avoidSet[key]; rejected {
			continue
		}
		seen[key] = struct{}{}

		c.Name = strings.TrimSpace(c.Name)
		c.Rationale = strings.TrimSpace(c.Rationale)
		c.Score = clamp01(c.Score)
		out = append(out, c)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func allStop(lex *lexicon.Lexicon, toks []string) bool {
	for _, t := range toks {
		if !lex.IsStopword(t) {
			return false
		}
	}
	return true
}

func anyBanned(lex *lexicon.Lexicon, toks []string) bool {
	for _, t := range toks {
		if lex.IsBanned(t) {
			return true
		}
	}
	return false
}

// weakSingle applies to one-word keys only: stopword or weak list words are weak, allow-listed
// technical terms are not, and anything else shorter than 4 characters is weak
func weakSingle(lex *lexicon.Lexicon, key string) bool {
	if strings.Contains(key, " ") {
		return false
	}
	if lex.IsStopword(key) || lex.IsWeak(key) {
		return true
	}
	if lex.IsAllowed(key) {
		return false
	}
	return len(key) < 4
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
