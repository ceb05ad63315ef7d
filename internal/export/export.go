// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders an AnnotationResult for download: JSON verbatim,
// CSV flattened to one row per item, YAML, and an XLSX workbook.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatYAML, FormatXLSX}

// ParseFormat parses a format name, case-insensitively. "yml" is accepted as
// YAML and an empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported format %q: use json, csv, yaml, or xlsx", s)
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Write renders result in format f to w.
func Write(w io.Writer, f Format, result *types.AnnotationResult) error {
	switch f {
	case FormatJSON:
		return JSON(w, result)
	case FormatCSV:
		return CSV(w, result)
	case FormatYAML:
		return YAML(w, result)
	case FormatXLSX:
		return XLSX(w, result)
	}
	return fmt.Errorf("unsupported format %q", f)
}

// normalized returns a copy of result whose lists are all non-nil, so JSON
// and YAML emit empty lists rather than null.
func normalized(result *types.AnnotationResult) *types.AnnotationResult {
	if result == nil {
		return types.NewAnnotationResult()
	}
	r := *result
	r.Normalize()
	return &r
}

// JSON writes result verbatim as indented JSON.
func JSON(w io.Writer, result *types.AnnotationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalized(result)); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// YAML writes result as a YAML document.
func YAML(w io.Writer, result *types.AnnotationResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(normalized(result)); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
