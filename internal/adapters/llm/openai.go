package llm

import (
	"context"
	"strings"
	"time"

	perr "postlens/internal/platform/errors"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel   = "gpt-4o"
	defaultOpenAITimeout = 30 * time.Second
)

// OpenAIOptions configures the OpenAI provider
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAI asks a chat completion model for schema constrained JSON
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI builds the provider, nil when no key is configured
func NewOpenAI(o OpenAIOptions) *OpenAI {
	if strings.TrimSpace(o.APIKey) == "" {
		return nil
	}
	cfg := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(o.BaseURL, "/")
	}
	if o.Model == "" {
		o.Model = defaultOpenAIModel
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultOpenAITimeout
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: o.Model, timeout: o.Timeout}
}

// Name implements Provider
func (p *OpenAI) Name() string { return "openai" }

// Extract implements Provider
func (p *OpenAI) Extract(ctx context.Context, req Request) ([]byte, error) {
	user, err := userPrompt(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeExtraction, "openai build prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   SchemaName,
				Strict: true,
				Schema: extractionSchema,
			},
		},
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeExtraction, "openai completion failed")
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, perr.Newf(perr.ErrorCodeExtraction, "openai returned no content")
	}
	return []byte(resp.Choices[0].Message.Content), nil
}
