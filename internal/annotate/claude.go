// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/fibo-annotator/internal/httputil"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

const (
	claudeDefaultURL   = "https://api.anthropic.com/v1/messages"
	claudeDefaultModel = "claude-sonnet-4-5-20250929"
	claudeMaxTokens    = 16384
)

// ClaudeBackend calls the Claude Messages API. The API has no native
// response-schema parameter, so the schema is appended to the prompt and the
// model is told to answer with JSON only.
type ClaudeBackend struct {
	APIKey      string
	Model       string
	URL         string
	Temperature float32
	MaxRetries  int
	Client      *http.Client
}

// NewClaudeBackend builds a ClaudeBackend from cfg.
func NewClaudeBackend(cfg types.AIConfig) *ClaudeBackend {
	b := &ClaudeBackend{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		URL:         cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxRetries:  cfg.MaxRetries,
		Client:      &http.Client{Timeout: cfg.Timeout},
	}
	if b.Model == "" {
		b.Model = claudeDefaultModel
	}
	if b.URL == "" {
		b.URL = claudeDefaultURL
	}
	if b.Temperature == 0 {
		b.Temperature = defaultTemperature
	}
	return b
}

// Name identifies the backend and model.
func (c *ClaudeBackend) Name() string {
	return "claude/" + c.Model
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate implements Backend.
func (c *ClaudeBackend) Generate(ctx context.Context, prompt string, schema *Schema) ([]byte, error) {
	schemaJSON, err := schema.JSON()
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	var content strings.Builder
	content.WriteString(prompt)
	content.WriteString("\nRespond with a single JSON object matching this JSON Schema. Do not include any text outside the JSON object.\n")
	content.Write(schemaJSON)

	reqBody := claudeRequest{
		Model:       c.Model,
		MaxTokens:   claudeMaxTokens,
		Temperature: c.Temperature,
		Messages: []claudeMessage{
			{Role: "user", Content: content.String()},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return []byte(block.Text), nil
		}
	}
	return nil, fmt.Errorf("no text content in Claude API response")
}
