// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by backends that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no client-side timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retries on HTTP 429 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIProvider identifies the structured-generation backend.
type AIProvider string

const (
	ProviderGemini AIProvider = "gemini"
	ProviderOpenAI AIProvider = "openai"
	ProviderClaude AIProvider = "claude"
)

// AIConfig holds settings for the structured-generation backend.
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the backend: gemini, openai, or claude.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gemini-2.5-pro").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible hosts, tests).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Temperature is the sampling temperature (default 0.1).
	Temperature float32 `json:"temperature" yaml:"temperature"`
}

// SplitPolicy selects how paragraphs longer than the chunk size are cut.
type SplitPolicy string

const (
	// SplitFixed cuts at exact character boundaries.
	SplitFixed SplitPolicy = "fixed"
	// SplitWord moves each cut back to the last whitespace when possible.
	SplitWord SplitPolicy = "word"
)

// AnnotationConfig holds settings for the chunking and annotation stage.
type AnnotationConfig struct {
	AIConfig `yaml:",inline"`

	// MaxChunkSize is the maximum chunk length in characters (default 15000).
	MaxChunkSize int `json:"max_chunk_size" yaml:"max_chunk_size"`

	// SplitPolicy controls force-splitting of oversized paragraphs.
	SplitPolicy SplitPolicy `json:"split_policy" yaml:"split_policy"`
}

// ConversionBackend identifies the PDF text extraction tool.
type ConversionBackend string

const (
	BackendNative    ConversionBackend = "native"
	BackendPdftotext ConversionBackend = "pdftotext"
)

// ConversionConfig holds settings for the text extraction stage.
type ConversionConfig struct {
	// Backend selects the extraction tool: native or pdftotext.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// PdftotextPath is the pdftotext binary (default "pdftotext").
	PdftotextPath string `json:"pdftotext_path,omitempty" yaml:"pdftotext_path,omitempty"`
}

// StoreConfig holds settings for the annotation store.
type StoreConfig struct {
	// DataDir is the directory holding annotations.db.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of search results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ServerConfig holds settings for the HTTP upload server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// MaxUploadBytes caps the size of an uploaded PDF (default 32 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Annotation AnnotationConfig `json:"annotation" yaml:"annotation"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}
