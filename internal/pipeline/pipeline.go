// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes extraction, annotation and persistence into a
// single run per uploaded document. Each run starts from fresh state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/fibo-annotator/internal/annotate"
	"github.com/pdiddy/fibo-annotator/internal/convert"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// ErrEmptyDocument is returned when extraction yields only whitespace.
// MsgEmptyDocument is the text shown to users for it.
var ErrEmptyDocument = errors.New("no text extracted from PDF")

const (
	// MsgEmptyDocument explains ErrEmptyDocument to the user.
	MsgEmptyDocument = "No text could be extracted from the PDF. The document might be image-based or empty."

	// MsgExtracting is reported before text extraction starts.
	MsgExtracting = "Extracting text from PDF..."
	// MsgAnnotating is reported before chunking starts.
	MsgAnnotating = "Applying FIBO ontology..."
)

// Saver persists a finished document.
type Saver interface {
	Save(ctx context.Context, doc *types.Document) error
}

// Input is one document to process.
type Input struct {
	FileName string
	Reader   io.ReaderAt
	Size     int64
}

// Pipeline runs documents through extraction and annotation.
type Pipeline struct {
	converter convert.Converter
	annotator *annotate.Annotator
	saver     Saver
	model     string
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSaver persists every successful run.
func WithSaver(s Saver) Option {
	return func(p *Pipeline) {
		p.saver = s
	}
}

// WithModel sets the model name recorded on documents.
func WithModel(name string) Option {
	return func(p *Pipeline) {
		p.model = name
	}
}

// WithLogger sets the structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// New creates a Pipeline.
func New(c convert.Converter, a *annotate.Annotator, opts ...Option) *Pipeline {
	p := &Pipeline{
		converter: c,
		annotator: a,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run extracts text from in, annotates it and, when a Saver is configured,
// stores the result. onProgress (may be nil) receives MsgExtracting,
// MsgAnnotating and the annotator's per-chunk messages, in order.
//
// Errors are *convert.ExtractionError, ErrEmptyDocument, *annotate.ChunkError
// or a storage error. No document is returned on error.
func (p *Pipeline) Run(ctx context.Context, in Input, onProgress func(string)) (*types.Document, error) {
	if onProgress == nil {
		onProgress = func(string) {}
	}
	doc := &types.Document{
		ID:       uuid.NewString(),
		FileName: in.FileName,
		Model:    p.model,
	}
	log := p.logger.With().Str("document_id", doc.ID).Str("file", in.FileName).Logger()
	start := p.now()

	onProgress(MsgExtracting)
	text, err := p.converter.Convert(ctx, in.Reader, in.Size)
	if err != nil {
		var ee *convert.ExtractionError
		if errors.As(err, &ee) && ee.File == "" {
			err = &convert.ExtractionError{File: in.FileName, Err: ee.Err}
		}
		log.Error().Err(err).Msg("pipeline.extract_failed")
		return nil, err
	}
	doc.Pages = text.Pages
	doc.TextLength = len(text.Content)
	log.Debug().Int("pages", text.Pages).Int("text_length", doc.TextLength).Msg("pipeline.extracted")

	if strings.TrimSpace(text.Content) == "" {
		log.Warn().Int("pages", text.Pages).Msg("pipeline.empty_document")
		return nil, ErrEmptyDocument
	}

	onProgress(MsgAnnotating)
	chunks, err := p.annotator.Plan(text.Content)
	if err != nil {
		return nil, err
	}
	doc.Chunks = len(chunks)

	result, err := p.annotator.AnnotateChunks(ctx, chunks, onProgress)
	if err != nil {
		return nil, err
	}
	doc.Result = result
	doc.CreatedAt = p.now()

	if p.saver != nil {
		if err := p.saver.Save(ctx, doc); err != nil {
			log.Error().Err(err).Msg("pipeline.save_failed")
			return nil, fmt.Errorf("saving document: %w", err)
		}
	}

	log.Info().Int("chunks", doc.Chunks).Int("items", result.Len()).
		Dur("elapsed", doc.CreatedAt.Sub(start)).Msg("pipeline.done")
	return doc, nil
}

// UserMessage returns the text to show a user for a Run error.
func UserMessage(err error) string {
	if errors.Is(err, ErrEmptyDocument) {
		return MsgEmptyDocument
	}
	return err.Error()
}

// RunFile runs the pipeline on the PDF at path.
func (p *Pipeline) RunFile(ctx context.Context, path string, onProgress func(string)) (*types.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &convert.ExtractionError{File: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &convert.ExtractionError{File: path, Err: err}
	}
	return p.Run(ctx, Input{FileName: filepath.Base(path), Reader: f, Size: info.Size()}, onProgress)
}
