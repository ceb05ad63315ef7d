// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/fibo-annotator/internal/httputil"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

const (
	geminiDefaultModel = "gemini-2.5-pro"
	defaultTemperature = 0.1
)

// GeminiBackend calls the Gemini API with a native response schema and a
// JSON response MIME type.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiBackend creates a Gemini client from cfg. HTTP 429/503 responses
// are retried by the client's transport.
func NewGeminiBackend(ctx context.Context, cfg types.AIConfig) (*GeminiBackend, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httputil.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	b := &GeminiBackend{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
	if b.model == "" {
		b.model = geminiDefaultModel
	}
	if b.temperature == 0 {
		b.temperature = defaultTemperature
	}
	return b, nil
}

// Name identifies the backend and model.
func (g *GeminiBackend) Name() string {
	return "gemini/" + g.model
}

// Generate implements Backend.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string, schema *Schema) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(schema),
		Temperature:      genai.Ptr(g.temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("calling Gemini API: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("Gemini API returned no text")
	}
	return []byte(text), nil
}

// toGenaiSchema converts a Schema to the genai representation, which uses
// upper-case OpenAPI type names.
func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             genai.Type(strings.ToUpper(s.Type)),
		Description:      s.Description,
		Required:         s.Required,
		PropertyOrdering: s.Order,
		Items:            toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}
