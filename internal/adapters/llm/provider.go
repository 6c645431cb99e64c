// Package llm holds the concept extraction strategy: LLM providers tried in priority order,
// strict decoding of their answers, and the deterministic fallback
package llm

import (
	"context"
	"encoding/json"
)

// Request is what every provider is asked
type Request struct {
	Text     string
	Avoid    []string
	Ontology []string
	Tight    bool
}

// Provider turns a Request into raw JSON matching the extraction schema
type Provider interface {
	Name() string
	Extract(ctx context.Context, req Request) ([]byte, error)
}

const systemPrompt = "You extract learning concepts from short posts. Respond with strict JSON."

const (
	taskWide = "Extract 5-8 learning concepts, each with name, rationale, score (0-1), category (from ontology), " +
		"and optional description. Use 2-4 word phrases when possible; only output single-word concepts if they " +
		"are canonical technical terms. Avoid filler words (e.g., 'some', 'like') and generic stopwords. Do not " +
		"output concepts the user rejected. Optionally include authorHandle if present."
	taskTight = "Extract 4-5 learning concepts ordered strongest first, each with name, rationale, score (0-1), " +
		"category (from ontology), and optional description. Use 2-4 word phrases; only output single-word " +
		"concepts if they are canonical technical terms. Do not output concepts the user rejected. Optionally " +
		"include authorHandle if present."
)

// userPrompt is the JSON document sent as the user message
func userPrompt(req Request) (string, error) {
	avoid := req.Avoid
	if avoid == nil {
		avoid = []string{}
	}
	task := taskWide
	if req.Tight {
		task = taskTight
	}
	b, err := json.Marshal(struct {
		Task          string   `json:"task"`
		Text          string   `json:"text"`
		Ontology      []string `json:"ontology"`
		AvoidConcepts []string `json:"avoidConcepts"`
	}{task, req.Text, req.Ontology, avoid})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
