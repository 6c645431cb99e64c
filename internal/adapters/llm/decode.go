package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"postlens/internal/core/concepts"
	perr "postlens/internal/platform/errors"
)

// fencedJSON matches an object wrapped in a markdown code block
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// Decode parses a provider answer into an Extraction
// the answer is read loosely first, then every field is type checked; any violation fails the whole answer
func Decode(raw []byte) (concepts.Extraction, error) {
	s := strings.TrimSpace(string(raw))
	if m := fencedJSON.FindStringSubmatch(s); len(m) > 1 {
		s = m[1]
	}
	if s == "" {
		return concepts.Extraction{}, perr.Newf(perr.ErrorCodeExtraction, "empty answer")
	}

	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return concepts.Extraction{}, perr.Wrapf(err, perr.ErrorCodeExtraction, "answer is not json")
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return concepts.Extraction{}, perr.Newf(perr.ErrorCodeExtraction, "answer is not an object")
	}
	items, ok := obj["concepts"].([]any)
	if !ok {
		return concepts.Extraction{}, perr.Newf(perr.ErrorCodeExtraction, "concepts array missing")
	}

	out := concepts.Extraction{Concepts: make([]concepts.Candidate, 0, len(items))}
	for i, it := range items {
		c, err := candidate(it)
		if err != nil {
			return concepts.Extraction{}, perr.WithField(err, fmt.Sprintf("concepts[%d]", i))
		}
		out.Concepts = append(out.Concepts, c)
	}

	switch h := obj["authorHandle"].(type) {
	case nil:
	case string:
		out.AuthorHandle = strings.TrimPrefix(strings.TrimSpace(h), "@")
	default:
		return concepts.Extraction{}, perr.Newf(perr.ErrorCodeExtraction, "authorHandle is not a string")
	}
	return out, nil
}

func candidate(v any) (concepts.Candidate, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return concepts.Candidate{}, perr.Newf(perr.ErrorCodeExtraction, "concept is not an object")
	}
	name, ok := m["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return concepts.Candidate{}, perr.Newf(perr.ErrorCodeExtraction, "concept name missing")
	}
	rationale, ok := m["rationale"].(string)
	if !ok || strings.TrimSpace(rationale) == "" {
		return concepts.Candidate{}, perr.Newf(perr.ErrorCodeExtraction, "concept %q has no rationale", name)
	}
	score, ok := m["score"].(float64)
	if !ok || math.IsNaN(score) || math.IsInf(score, 0) {
		return concepts.Candidate{}, perr.Newf(perr.ErrorCodeExtraction, "concept %q has no numeric score", name)
	}
	category, ok := m["category"].(string)
	if !ok {
		return concepts.Candidate{}, perr.Newf(perr.ErrorCodeExtraction, "concept %q has no category", name)
	}

	c := concepts.Candidate{
		Name:      strings.TrimSpace(name),
		Rationale: strings.TrimSpace(rationale),
		Score:     math.Max(0, math.Min(1, score)),
		Category:  strings.TrimSpace(category),
	}
	switch d := m["description"].(type) {
	case nil:
	case string:
		c.Description = strings.TrimSpace(d)
	default:
		return concepts.Candidate{}, perr.Newf(perr.ErrorCodeExtraction, "concept %q description is not a string", name)
	}
	return c, nil
}
