// Package lexicon loads the embedded word lists that drive concept filtering and auth wall detection
package lexicon

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"postlens/internal/core/normalize"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var embedded []byte

type rawLexicon struct {
	Version         int      `yaml:"version"`
	Stopwords       []string `yaml:"stopwords"`
	WeakSingleWords []string `yaml:"weak_single_words"`
	AllowedSingle   []string `yaml:"allowed_single_words"`
	BannedTokens    []string `yaml:"banned_tokens"`
	AuthWallPhrases []string `yaml:"auth_wall_phrases"`
	Ontology        []string `yaml:"ontology"`
}

// Lexicon holds lookup sets built from lexicon.yaml, read only after Parse
type Lexicon struct {
	Version int

	stop     map[string]struct{}
	weak     map[string]struct{}
	allowed  map[string]struct{}
	banned   map[string]struct{}
	authWall []string
	ontology []string
}

var (
	defOnce sync.Once
	def     *Lexicon
)

// Default returns the embedded lexicon, parsed once. It panics if the embedded file is broken
func Default() *Lexicon {
	defOnce.Do(func() {
		l, err := Parse(embedded)
		if err != nil {
			panic(fmt.Errorf("lexicon: embedded lexicon.yaml: %w", err))
		}
		def = l
	})
	return def
}

// Parse builds a Lexicon from YAML bytes
func Parse(b []byte) (*Lexicon, error) {
	var raw rawLexicon
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(raw.Ontology) == 0 {
		return nil, fmt.Errorf("ontology is empty")
	}

	l := &Lexicon{
		Version: raw.Version,
		stop:    toSet(raw.Stopwords, false),
		weak:    toSet(raw.WeakSingleWords, true),
		allowed: toSet(raw.AllowedSingle, true),
		banned:  toSet(raw.BannedTokens, true),
	}
	for _, p := range raw.AuthWallPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			l.authWall = append(l.authWall, p)
		}
	}
	for _, o := range raw.Ontology {
		if o = strings.TrimSpace(o); o != "" {
			l.ontology = append(l.ontology, o)
		}
	}
	return l, nil
}

// toSet lower-cases entries; keyed sets go through normalize.Key so they match concept keys
func toSet(in []string, keyed bool) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, w := range in {
		w = strings.ToLower(strings.TrimSpace(w))
		if keyed {
			w = normalize.Key(w)
		}
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}

// IsStopword reports whether a lower-cased token is a stopword. Tokens may keep apostrophes ("it's")
func (l *Lexicon) IsStopword(tok string) bool {
	_, ok := l.stop[tok]
	return ok
}

// IsWeak reports whether a single-word key is on the weak list
func (l *Lexicon) IsWeak(key string) bool {
	_, ok := l.weak[key]
	return ok
}

// IsAllowed reports whether a single-word key is a canonical technical term
func (l *Lexicon) IsAllowed(key string) bool {
	_, ok := l.allowed[key]
	return ok
}

// IsBanned reports whether a token is banned
func (l *Lexicon) IsBanned(tok string) bool {
	_, ok := l.banned[tok]
	return ok
}

// AuthWall reports whether text looks like a login or signup wall rather than post content
func (l *Lexicon) AuthWall(text string) bool {
	if text == "" {
		return false
	}
	lt := strings.ToLower(text)
	// curly apostrophes show up in rendered pages
	lt = strings.ReplaceAll(lt, "’", "'")
	for _, p := range l.authWall {
		if strings.Contains(lt, p) {
			return true
		}
	}
	return false
}

// Ontology returns a copy of the category list offered to the extractor
func (l *Lexicon) Ontology() []string {
	return append([]string(nil), l.ontology...)
}
