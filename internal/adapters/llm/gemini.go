package llm

import (
	"context"
	"strings"
	"time"

	perr "postlens/internal/platform/errors"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultGeminiModel   = "gemini-1.5-flash"
	defaultGeminiTimeout = 30 * time.Second
)

// GeminiOptions configures the Gemini provider
type GeminiOptions struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Gemini asks a Gemini model for JSON constrained by a response schema
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini builds the provider, nil without error when no key is configured
func NewGemini(ctx context.Context, o GeminiOptions) (*Gemini, error) {
	if strings.TrimSpace(o.APIKey) == "" {
		return nil, nil
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(o.APIKey))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "gemini client")
	}
	if o.Model == "" {
		o.Model = defaultGeminiModel
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultGeminiTimeout
	}
	return &Gemini{client: c, model: o.Model, timeout: o.Timeout}, nil
}

// Close releases the underlying client
func (p *Gemini) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Name implements Provider
func (p *Gemini) Name() string { return "gemini" }

// Extract implements Provider
func (p *Gemini) Extract(ctx context.Context, req Request) ([]byte, error) {
	user, err := userPrompt(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeExtraction, "gemini build prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	model := p.client.GenerativeModel(p.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = geminiSchema()

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeExtraction, "gemini generate failed")
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, perr.Newf(perr.ErrorCodeExtraction, "gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return nil, perr.Newf(perr.ErrorCodeExtraction, "gemini returned no text")
	}
	return []byte(sb.String()), nil
}

// geminiSchema mirrors extractionSchema in the genai schema subset
func geminiSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"concepts": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":        str(),
						"rationale":   str(),
						"score":       {Type: genai.TypeNumber},
						"description": {Type: genai.TypeString, Nullable: true},
						"category":    str(),
					},
					Required: []string{"name", "rationale", "score", "category"},
				},
			},
			"authorHandle": {Type: genai.TypeString, Nullable: true},
		},
		Required: []string{"concepts"},
	}
}
