// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/pdiddy/fibo-annotator/internal/httputil"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

const openaiDefaultModel = "gpt-4o-mini"

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint with a
// json_schema response format. BaseURL may point at any compatible host
// (OpenRouter, a local Ollama, ...).
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIBackend creates an OpenAI client from cfg.
func NewOpenAIBackend(cfg types.AIConfig) *OpenAIBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = httputil.NewClient(cfg.Timeout, cfg.MaxRetries)

	b := &OpenAIBackend{
		client:      openai.NewClientWithConfig(config),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
	if b.model == "" {
		b.model = openaiDefaultModel
	}
	if b.temperature == 0 {
		b.temperature = defaultTemperature
	}
	return b
}

// Name identifies the backend and model.
func (o *OpenAIBackend) Name() string {
	return "openai/" + o.model
}

// Generate implements Backend.
func (o *OpenAIBackend) Generate(ctx context.Context, prompt string, schema *Schema) ([]byte, error) {
	schemaJSON, err := schema.JSON()
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "annotation_result",
				Schema: json.RawMessage(schemaJSON),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenAI response")
	}
	return []byte(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}
