// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert extracts plain text from PDF documents with pluggable
// backends. Every page's text is followed by a blank line ("\n\n") so that
// page breaks become paragraph breaks for the chunker.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// PageSeparator follows every page's text in the extracted document.
const PageSeparator = "\n\n"

// Text is the result of extracting a document.
type Text struct {
	// Content is the concatenated page text, each page followed by PageSeparator.
	Content string
	// Pages is the number of pages read.
	Pages int
}

// Converter extracts plain text from a PDF. Different backends (the native
// Go reader, pdftotext) implement this interface.
type Converter interface {
	// Convert reads size bytes of PDF from r.
	Convert(ctx context.Context, r io.ReaderAt, size int64) (Text, error)
}

// ExtractionError reports that a document could not be read or parsed.
type ExtractionError struct {
	File string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("extracting text: %v", e.Err)
	}
	return fmt.Sprintf("extracting text from %s: %v", e.File, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// New returns the converter selected by cfg. An empty backend selects the
// native reader.
func New(cfg types.ConversionConfig) (Converter, error) {
	switch cfg.Backend {
	case types.BackendNative, "":
		return NewNativeConverter(), nil
	case types.BackendPdftotext:
		return NewPdftotextConverter(cfg.PdftotextPath)
	default:
		return nil, fmt.Errorf("unsupported conversion backend %q: use native or pdftotext", cfg.Backend)
	}
}

// JoinPages concatenates page texts, following each with PageSeparator.
func JoinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p)
		b.WriteString(PageSeparator)
	}
	return b.String()
}

// ConvertFile opens path and extracts its text with c. Errors opening or
// parsing the file are returned as *ExtractionError naming the file.
func ConvertFile(ctx context.Context, c Converter, path string) (Text, error) {
	f, err := os.Open(path)
	if err != nil {
		return Text{}, &ExtractionError{File: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Text{}, &ExtractionError{File: path, Err: err}
	}

	text, err := c.Convert(ctx, f, info.Size())
	if err != nil {
		return Text{}, withFile(err, path)
	}
	return text, nil
}

// withFile attaches path to err as an *ExtractionError.
func withFile(err error, path string) error {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		if ee.File != "" {
			return err
		}
		return &ExtractionError{File: path, Err: ee.Err}
	}
	return &ExtractionError{File: path, Err: err}
}

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any documents failed extraction.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertPaths extracts each PDF in pdfPaths to <outDir>/<base>.txt, printing
// per-file status to w and returning a summary. Existing outputs are skipped.
func ConvertPaths(ctx context.Context, c Converter, pdfPaths []string, outDir string, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range pdfPaths {
		base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		txtPath := filepath.Join(outDir, base+".txt")

		if _, err := os.Stat(txtPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", base)
			result.Skipped++
			continue
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
			result.Failed++
			continue
		}

		text, err := ConvertFile(ctx, c, p)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
			result.Failed++
			continue
		}

		if err := os.WriteFile(txtPath, []byte(text.Content), 0o644); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
			result.Failed++
			continue
		}

		fmt.Fprintf(w, "converted: %s (%d pages)\n", base, text.Pages)
		result.Converted++
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
