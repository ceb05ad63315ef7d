// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fibo-annotator/internal/export"
	"github.com/pdiddy/fibo-annotator/internal/secrets"
	"github.com/pdiddy/fibo-annotator/internal/store"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

func TestPipelineConfig(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		secrets secrets.Secrets
		check   func(t *testing.T, cfg types.PipelineConfig)
	}{
		{
			name:    "key from secrets for default provider",
			values:  map[string]any{},
			secrets: secrets.Secrets{secrets.KeyGemini: "gk"},
			check: func(t *testing.T, cfg types.PipelineConfig) {
				assert.Equal(t, types.AIProvider(""), cfg.Annotation.Provider)
				assert.Equal(t, "gk", cfg.Annotation.APIKey)
			},
		},
		{
			name:    "provider selects its key",
			values:  map[string]any{"annotation.provider": "Claude"},
			secrets: secrets.Secrets{secrets.KeyGemini: "gk", secrets.KeyAnthropic: "ak"},
			check: func(t *testing.T, cfg types.PipelineConfig) {
				assert.Equal(t, types.ProviderClaude, cfg.Annotation.Provider)
				assert.Equal(t, "ak", cfg.Annotation.APIKey)
			},
		},
		{
			name:    "configured key wins",
			values:  map[string]any{"annotation.provider": "openai", "annotation.api_key": "configured"},
			secrets: secrets.Secrets{secrets.KeyOpenAI: "from-file"},
			check: func(t *testing.T, cfg types.PipelineConfig) {
				assert.Equal(t, "configured", cfg.Annotation.APIKey)
			},
		},
		{
			name: "stage settings",
			values: map[string]any{
				"annotation.max_chunk_size": 2000,
				"annotation.split_policy":   "word",
				"annotation.temperature":    0.3,
				"annotation.timeout":        "90s",
				"annotation.max_retries":    2,
				"conversion.backend":        "pdftotext",
				"store.data_dir":            "/tmp/fibo",
				"server.addr":               ":9090",
				"server.max_upload_bytes":   1024,
			},
			check: func(t *testing.T, cfg types.PipelineConfig) {
				assert.Equal(t, 2000, cfg.Annotation.MaxChunkSize)
				assert.Equal(t, types.SplitWord, cfg.Annotation.SplitPolicy)
				assert.InDelta(t, 0.3, cfg.Annotation.Temperature, 1e-6)
				assert.Equal(t, 90*time.Second, cfg.Annotation.Timeout)
				assert.Equal(t, 2, cfg.Annotation.MaxRetries)
				assert.Equal(t, types.BackendPdftotext, cfg.Conversion.Backend)
				assert.Equal(t, "/tmp/fibo", cfg.Store.DataDir)
				assert.Equal(t, ":9090", cfg.Server.Addr)
				assert.EqualValues(t, 1024, cfg.Server.MaxUploadBytes)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.values {
				v.Set(k, val)
			}
			tt.check(t, pipelineConfig(v, tt.secrets))
		})
	}
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "q3-fibo.csv", exportFileName("/reports/q3.pdf", export.FormatCSV))
	assert.Equal(t, "call.report-fibo.json", exportFileName("call.report.PDF", export.FormatJSON))
}

func TestWriteExportFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := types.NewAnnotationResult()
	r.FinancialData = []types.FinancialDataPoint{{Name: "Net Income", Value: "12", OntologyClass: "cr-income:NetIncome"}}

	out, err := writeExportFile(dir, "in/q3.pdf", export.FormatCSV, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "q3-fibo.csv"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "type,name,value,ontology_class,description,context\nFinancial Data,Net Income,12,cr-income:NetIncome,,", string(data))
}

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
	}{
		{
			name: "bare json with legacy field",
			data: `{"concepts":[{"name":"Loan","fibo_class":"fibo-loan:Loan","description":"d","context":"c"}]}`,
			ext:  ".json",
		},
		{
			name: "stored document json",
			data: `{"id":"x","file_name":"a.pdf","result":{"concepts":[{"name":"Loan","category_class":"fibo-loan:Loan","description":"d","context":"c"}]}}`,
			ext:  ".json",
		},
		{
			name: "bare yaml",
			data: "concepts:\n  - name: Loan\n    category_class: fibo-loan:Loan\n    description: d\n    context: c\n",
			ext:  ".yaml",
		},
		{
			name: "stored document yaml",
			data: "id: x\nresult:\n  concepts:\n    - name: Loan\n      category_class: fibo-loan:Loan\n",
			ext:  ".yml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := decodeResult([]byte(tt.data), tt.ext)
			require.NoError(t, err)
			require.Len(t, r.Concepts, 1)
			assert.Equal(t, "Loan", r.Concepts[0].Name)
			assert.Equal(t, "fibo-loan:Loan", r.Concepts[0].CategoryClass)
			assert.NotNil(t, r.Entities)
			assert.NotNil(t, r.FinancialData)
		})
	}

	_, err := decodeResult([]byte("{not json"), ".json")
	assert.Error(t, err)
}

func TestFormatChunks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatChunks(&buf, []string{"First paragraph\n\nsecond", "Tail"}, 100))
	out := buf.String()
	assert.Contains(t, out, "First paragraph")
	assert.Contains(t, out, "2 chunks, 27 bytes (max 100 per chunk)")

	buf.Reset()
	require.NoError(t, formatChunks(&buf, nil, 100))
	assert.Contains(t, buf.String(), "No chunks")
}

func TestPreviewAndTruncate(t *testing.T) {
	assert.Equal(t, "line one", preview("\n  line one\nline two", 60))
	assert.Equal(t, "abcdefg...", preview(strings.Repeat("abcdefghij", 3), 10))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Résum...", truncate("Résumé of assets", 8))
}

func TestFormatDocumentList(t *testing.T) {
	docs := []store.DocumentSummary{{
		Document: types.Document{ID: "doc-1", FileName: "q3.pdf", Pages: 4, Chunks: 2,
			CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		Items: 7,
	}}

	var buf bytes.Buffer
	require.NoError(t, formatDocumentList(&buf, docs, false))
	assert.Contains(t, buf.String(), "doc-1")
	assert.Contains(t, buf.String(), "2026-03-01 09:30")
	assert.Contains(t, buf.String(), "1 documents")

	buf.Reset()
	require.NoError(t, formatDocumentList(&buf, nil, true))
	assert.JSONEq(t, "[]", buf.String())

	buf.Reset()
	require.NoError(t, formatDocumentList(&buf, nil, false))
	assert.Equal(t, "No documents stored.\n", buf.String())
}

func TestFormatSearchResults(t *testing.T) {
	results := []store.QueryResult{{
		DocumentID: "doc-1", FileName: "q3.pdf", Kind: types.KindFinancialData,
		Name: "Total Assets", Class: "cr-assets:TotalAssets", Value: "$1.5M",
	}}

	var buf bytes.Buffer
	require.NoError(t, formatSearchResults(&buf, results, false))
	assert.Contains(t, buf.String(), "Financial Data")
	assert.Contains(t, buf.String(), "cr-assets:TotalAssets")

	buf.Reset()
	require.NoError(t, formatSearchResults(&buf, results, true))
	var got []store.QueryResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, results, got)

	buf.Reset()
	require.NoError(t, formatSearchResults(&buf, nil, false))
	assert.Equal(t, "No results found.\n", buf.String())
}

func TestValidKind(t *testing.T) {
	assert.True(t, validKind(types.KindEntity))
	assert.True(t, validKind(types.KindFinancialData))
	assert.False(t, validKind("claim"))
}

func TestWriteOntology(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOntology(&buf, "text"))
	assert.Contains(t, buf.String(), "Assets\n")
	assert.Contains(t, buf.String(), "cr-capital:Tier1LeverageRatio")

	buf.Reset()
	require.NoError(t, writeOntology(&buf, "json"))
	var groups []types.OntologyGroup
	require.NoError(t, json.Unmarshal(buf.Bytes(), &groups))
	assert.Equal(t, types.OntologyGroups, groups)

	buf.Reset()
	require.NoError(t, writeOntology(&buf, "yaml"))
	assert.Contains(t, buf.String(), "- name: General")

	assert.Error(t, writeOntology(&buf, "xml"))
}

func TestUnknownClasses(t *testing.T) {
	r := types.NewAnnotationResult()
	r.FinancialData = []types.FinancialDataPoint{
		{OntologyClass: string(types.ClassNetIncome)},
		{OntologyClass: "cr-income:Bonus"},
	}
	assert.Equal(t, 1, unknownClasses(r))
}
