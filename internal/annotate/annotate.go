// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate applies the FIBO and Call Report ontologies to document
// text. It chunks the text, sends one structured-generation request per
// chunk through a Backend, strictly in order, and merges the per-chunk
// results into one de-duplicated AnnotationResult.
package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/fibo-annotator/internal/chunk"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// Backend abstracts the structured-generation service so tests can supply a
// mock. Generate sends prompt constrained to schema and returns the raw JSON
// payload. Retries and timeouts are the backend's concern.
type Backend interface {
	Generate(ctx context.Context, prompt string, schema *Schema) ([]byte, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, prompt string, schema *Schema) ([]byte, error)

// Generate calls f.
func (f BackendFunc) Generate(ctx context.Context, prompt string, schema *Schema) ([]byte, error) {
	return f(ctx, prompt, schema)
}

// State is a step of the annotation lifecycle.
type State int

const (
	StateIdle State = iota
	StateChunking
	StateAwaitingChunk
	StateMergingChunk
	StateDeduplicating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChunking:
		return "chunking"
	case StateAwaitingChunk:
		return "awaiting_chunk"
	case StateMergingChunk:
		return "merging_chunk"
	case StateDeduplicating:
		return "deduplicating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transition describes entering a State. Chunk and Total are set for the
// per-chunk states and for StateFailed; Result is set for StateDone.
type Transition struct {
	State   State
	Chunk   int
	Total   int
	Elapsed time.Duration
	Err     error
	Result  *types.AnnotationResult
}

// Observer receives every lifecycle transition, synchronously.
type Observer interface {
	Observe(Transition)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Transition)

// Observe calls f.
func (f ObserverFunc) Observe(t Transition) { f(t) }

// Annotator runs the chunk → request → merge → de-duplicate loop. An
// Annotator holds no per-document state and may be reused.
type Annotator struct {
	backend   Backend
	maxSize   int
	policy    types.SplitPolicy
	schema    *Schema
	validator *Validator
	logger    zerolog.Logger
	observers []Observer
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithMaxChunkSize sets the maximum chunk size in bytes. New rejects a
// size that is not positive.
func WithMaxChunkSize(n int) Option {
	return func(a *Annotator) {
		a.maxSize = n
	}
}

// WithSplitPolicy sets the force-split policy for oversized paragraphs. An
// empty policy keeps the default; New rejects unknown policies.
func WithSplitPolicy(p types.SplitPolicy) Option {
	return func(a *Annotator) {
		if p != "" {
			a.policy = p
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Annotator) {
		a.logger = l
	}
}

// WithObserver adds a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(a *Annotator) {
		if o != nil {
			a.observers = append(a.observers, o)
		}
	}
}

// New creates an Annotator that sends requests through backend.
func New(backend Backend, opts ...Option) (*Annotator, error) {
	if backend == nil {
		return nil, fmt.Errorf("annotate: nil backend")
	}
	a := &Annotator{
		backend: backend,
		maxSize: chunk.DefaultMaxSize,
		policy:  types.SplitFixed,
		schema:  ResponseSchema(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.maxSize <= 0 {
		return nil, fmt.Errorf("annotate: %w: %d", chunk.ErrInvalidSize, a.maxSize)
	}
	if err := chunk.ValidatePolicy(a.policy); err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}

	v, err := NewValidator(a.schema)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	a.validator = v
	return a, nil
}

// ProgressMessage is the progress text reported before chunk index (1-based)
// of total is sent.
func ProgressMessage(index, total int) string {
	return fmt.Sprintf("Applying FIBO ontology... (Processing chunk %d of %d)", index, total)
}

// Plan splits text into the chunks Annotate would send.
func (a *Annotator) Plan(text string) ([]string, error) {
	a.emit(Transition{State: StateChunking})
	chunks, err := chunk.SplitWithPolicy(text, a.maxSize, a.policy)
	if err != nil {
		return nil, fmt.Errorf("chunking text: %w", err)
	}
	return chunks, nil
}

// Annotate chunks text and annotates every chunk. onProgress may be nil.
// See AnnotateChunks for the failure contract.
func (a *Annotator) Annotate(ctx context.Context, text string, onProgress func(string)) (*types.AnnotationResult, error) {
	chunks, err := a.Plan(text)
	if err != nil {
		return nil, err
	}
	return a.AnnotateChunks(ctx, chunks, onProgress)
}

// AnnotateChunks sends one request per chunk, in order, never more than one
// at a time. onProgress is called with ProgressMessage before each request.
//
// If any request fails or returns a payload that does not decode to the
// response schema, processing stops and a *ChunkError naming the chunk is
// returned with a nil result. With no chunks, an empty result is returned
// and no request is made.
func (a *Annotator) AnnotateChunks(ctx context.Context, chunks []string, onProgress func(string)) (*types.AnnotationResult, error) {
	if onProgress == nil {
		onProgress = func(string) {}
	}

	total := len(chunks)
	acc := types.NewAnnotationResult()
	if total == 0 {
		a.logger.Debug().Msg("annotate.empty")
		a.emit(Transition{State: StateDone, Result: acc})
		return acc, nil
	}

	a.logger.Info().Int("chunks", total).Int("max_chunk_size", a.maxSize).Msg("annotate.start")
	start := time.Now()

	for i, c := range chunks {
		n := i + 1
		onProgress(ProgressMessage(n, total))
		a.emit(Transition{State: StateAwaitingChunk, Chunk: n, Total: total})

		reqStart := time.Now()
		part, err := a.annotateChunk(ctx, c)
		elapsed := time.Since(reqStart)
		if err != nil {
			cerr := &ChunkError{Index: n, Total: total, Err: err}
			a.logger.Error().Err(err).Int("chunk", n).Int("total", total).
				Dur("elapsed", elapsed).Msg("annotate.chunk_failed")
			a.emit(Transition{State: StateFailed, Chunk: n, Total: total, Elapsed: elapsed, Err: cerr})
			return nil, cerr
		}

		a.emit(Transition{State: StateMergingChunk, Chunk: n, Total: total, Elapsed: elapsed})
		acc.Concepts = append(acc.Concepts, part.Concepts...)
		acc.Entities = append(acc.Entities, part.Entities...)
		acc.Relationships = append(acc.Relationships, part.Relationships...)
		acc.FinancialData = append(acc.FinancialData, part.FinancialData...)

		a.logger.Debug().Int("chunk", n).Int("total", total).Int("chunk_len", len(c)).
			Int("items", part.Len()).Dur("elapsed", elapsed).Msg("annotate.chunk_ok")
	}

	a.emit(Transition{State: StateDeduplicating, Total: total})
	result := Dedupe(acc)

	a.logger.Info().Int("chunks", total).Int("items", result.Len()).
		Int("duplicates", acc.Len()-result.Len()).Dur("elapsed", time.Since(start)).Msg("annotate.done")
	a.emit(Transition{State: StateDone, Total: total, Elapsed: time.Since(start), Result: result})
	return result, nil
}

func (a *Annotator) annotateChunk(ctx context.Context, c string) (*types.AnnotationResult, error) {
	prompt, err := RenderPrompt(c)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}
	raw, err := a.backend.Generate(ctx, prompt, a.schema)
	if err != nil {
		return nil, err
	}
	return a.decode(raw)
}

// decode validates a payload and unmarshals it. Markdown code fences around
// the JSON are tolerated; missing or null lists become empty and the legacy
// "fibo_class" key stands in for "category_class".
func (a *Annotator) decode(raw []byte) (*types.AnnotationResult, error) {
	payload := stripCodeFence(raw)
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("invalid response: parsing JSON: %w", err)
	}
	normalizePayload(doc)
	if err := a.validator.ValidateValue(doc); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	var result types.AnnotationResult
	if err := json.Unmarshal(normalized, &result); err != nil {
		return nil, fmt.Errorf("invalid response: parsing JSON: %w", err)
	}
	result.Normalize()
	return &result, nil
}

// itemLists are the payload keys holding OntologyItem lists.
var itemLists = []string{"concepts", "entities", "relationships"}

// normalizePayload drops null top-level values and copies a legacy
// "fibo_class" into a missing "category_class" on every ontology item.
func normalizePayload(doc map[string]any) {
	for k, v := range doc {
		if v == nil {
			delete(doc, k)
		}
	}
	for _, key := range itemLists {
		list, ok := doc[key].([]any)
		if !ok {
			continue
		}
		for _, el := range list {
			item, ok := el.(map[string]any)
			if !ok {
				continue
			}
			legacy, hasLegacy := item["fibo_class"]
			if _, has := item["category_class"]; !has && hasLegacy {
				item["category_class"] = legacy
			}
			delete(item, "fibo_class")
		}
	}
}

func stripCodeFence(raw []byte) []byte {
	b := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	s := strings.TrimPrefix(string(b), "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}

func (a *Annotator) emit(t Transition) {
	for _, o := range a.observers {
		o.Observe(t)
	}
}
