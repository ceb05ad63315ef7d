// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const defaultPdftotext = "pdftotext"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// PdftotextConverter pipes PDFs through the poppler pdftotext binary in
// layout mode. Pages are delimited by form feeds in its output.
type PdftotextConverter struct {
	bin  string
	exec executor
}

// NewPdftotextConverter creates a converter that runs bin (default
// "pdftotext"). It verifies the binary is on PATH before returning.
func NewPdftotextConverter(bin string) (*PdftotextConverter, error) {
	return newPdftotextConverter(bin, &osExecutor{})
}

func newPdftotextConverter(bin string, ex executor) (*PdftotextConverter, error) {
	if bin == "" {
		bin = defaultPdftotext
	}
	if _, err := ex.LookPath(bin); err != nil {
		return nil, fmt.Errorf("%s not available: %w", bin, err)
	}
	return &PdftotextConverter{bin: bin, exec: ex}, nil
}

// Convert implements Converter.
func (p *PdftotextConverter) Convert(ctx context.Context, r io.ReaderAt, size int64) (Text, error) {
	var out bytes.Buffer
	args := []string{"-layout", "-enc", "UTF-8", "-", "-"}
	if err := p.exec.RunPiped(ctx, p.bin, args, io.NewSectionReader(r, 0, size), &out); err != nil {
		if ctx.Err() != nil {
			return Text{}, ctx.Err()
		}
		return Text{}, &ExtractionError{Err: fmt.Errorf("running %s: %w", p.bin, err)}
	}

	pages := splitFormFeeds(out.String())
	return Text{Content: JoinPages(pages), Pages: len(pages)}, nil
}

// splitFormFeeds splits pdftotext output into pages. pdftotext terminates
// every page, including the last, with a form feed.
func splitFormFeeds(s string) []string {
	if s == "" {
		return nil
	}
	pages := strings.Split(s, "\f")
	if pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	for i, pg := range pages {
		pages[i] = strings.TrimRight(pg, "\n")
	}
	return pages
}
