// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// NativeConverter reads PDFs in-process with github.com/ledongthuc/pdf.
// Pages without content are counted but contribute empty text.
type NativeConverter struct{}

// NewNativeConverter creates a NativeConverter.
func NewNativeConverter() *NativeConverter {
	return &NativeConverter{}
}

// Convert implements Converter.
func (n *NativeConverter) Convert(ctx context.Context, r io.ReaderAt, size int64) (text Text, err error) {
	// The reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = Text{}, &ExtractionError{Err: fmt.Errorf("malformed PDF: %v", rec)}
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return Text{}, &ExtractionError{Err: err}
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return Text{}, err
		}
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return Text{}, &ExtractionError{Err: fmt.Errorf("page %d: %w", i, err)}
		}
		pages = append(pages, content)
	}

	return Text{Content: JoinPages(pages), Pages: total}, nil
}
