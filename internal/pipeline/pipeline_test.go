// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fibo-annotator/internal/annotate"
	"github.com/pdiddy/fibo-annotator/internal/convert"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

type fakeConverter struct {
	text convert.Text
	err  error
}

func (f *fakeConverter) Convert(_ context.Context, _ io.ReaderAt, _ int64) (convert.Text, error) {
	return f.text, f.err
}

type recordingSaver struct {
	docs []*types.Document
	err  error
}

func (r *recordingSaver) Save(_ context.Context, doc *types.Document) error {
	if r.err != nil {
		return r.err
	}
	r.docs = append(r.docs, doc)
	return nil
}

const entityPayload = `{"entities":[{"name":"Acme Corp","category_class":"fibo-be-le-lp:LegalPerson","description":"bank","context":"Acme Corp"}]}`

func newAnnotator(t *testing.T, calls *int, payload string, opts ...annotate.Option) *annotate.Annotator {
	t.Helper()
	b := annotate.BackendFunc(func(_ context.Context, _ string, _ *annotate.Schema) ([]byte, error) {
		*calls++
		return []byte(payload), nil
	})
	a, err := annotate.New(b, opts...)
	require.NoError(t, err)
	return a
}

func testInput() Input {
	return Input{FileName: "report.pdf", Reader: strings.NewReader("pdf"), Size: 3}
}

func TestRun_Success(t *testing.T) {
	var calls int
	saver := &recordingSaver{}
	p := New(
		&fakeConverter{text: convert.Text{Content: "page one\n\npage two\n\n", Pages: 2}},
		newAnnotator(t, &calls, entityPayload, annotate.WithMaxChunkSize(10)),
		WithSaver(saver), WithModel("test/model"),
	)

	var progress []string
	doc, err := p.Run(context.Background(), testInput(), func(msg string) { progress = append(progress, msg) })
	require.NoError(t, err)

	assert.Equal(t, []string{
		MsgExtracting,
		MsgAnnotating,
		"Applying FIBO ontology... (Processing chunk 1 of 2)",
		"Applying FIBO ontology... (Processing chunk 2 of 2)",
	}, progress)
	assert.Equal(t, 2, calls)

	_, err = uuid.Parse(doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.FileName)
	assert.Equal(t, 2, doc.Pages)
	assert.Equal(t, 2, doc.Chunks)
	assert.Equal(t, len("page one\n\npage two\n\n"), doc.TextLength)
	assert.Equal(t, "test/model", doc.Model)
	assert.False(t, doc.CreatedAt.IsZero())
	require.Len(t, doc.Result.Entities, 1, "duplicate across chunks removed")
	require.Len(t, saver.docs, 1)
	assert.Same(t, doc, saver.docs[0])
}

func TestRun_EmptyDocument(t *testing.T) {
	var calls int
	saver := &recordingSaver{}
	p := New(
		&fakeConverter{text: convert.Text{Content: " \n\n\t\n\n", Pages: 2}},
		newAnnotator(t, &calls, entityPayload),
		WithSaver(saver),
	)

	doc, err := p.Run(context.Background(), testInput(), nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)
	assert.Nil(t, doc)
	assert.Zero(t, calls, "no LLM request for an empty document")
	assert.Empty(t, saver.docs)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, MsgEmptyDocument, UserMessage(ErrEmptyDocument))
	assert.Equal(t, MsgEmptyDocument, UserMessage(fmt.Errorf("upload q3.pdf: %w", ErrEmptyDocument)))
	assert.Equal(t, "saving document: disk full", UserMessage(errors.New("saving document: disk full")))

	msg := ErrEmptyDocument.Error()
	assert.Equal(t, strings.ToLower(msg[:1]), msg[:1])
	assert.False(t, strings.HasSuffix(msg, "."))
}

func TestRun_ExtractionFailure(t *testing.T) {
	var calls int
	p := New(
		&fakeConverter{err: &convert.ExtractionError{Err: errors.New("malformed PDF")}},
		newAnnotator(t, &calls, entityPayload),
	)

	_, err := p.Run(context.Background(), testInput(), nil)
	var ee *convert.ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "report.pdf", ee.File)
	assert.Zero(t, calls)
}

func TestRun_ChunkFailureNotSaved(t *testing.T) {
	saver := &recordingSaver{}
	b := annotate.BackendFunc(func(_ context.Context, _ string, _ *annotate.Schema) ([]byte, error) {
		return nil, errors.New("quota exceeded")
	})
	a, err := annotate.New(b)
	require.NoError(t, err)
	p := New(&fakeConverter{text: convert.Text{Content: "some text\n\n", Pages: 1}}, a, WithSaver(saver))

	_, err = p.Run(context.Background(), testInput(), nil)
	var cerr *annotate.ChunkError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Index)
	assert.Empty(t, saver.docs)
}

func TestRun_SaveFailure(t *testing.T) {
	var calls int
	p := New(
		&fakeConverter{text: convert.Text{Content: "text\n\n", Pages: 1}},
		newAnnotator(t, &calls, entityPayload),
		WithSaver(&recordingSaver{err: errors.New("disk full")}),
	)

	_, err := p.Run(context.Background(), testInput(), nil)
	assert.ErrorContains(t, err, "saving document: disk full")
}

func TestRun_FreshStatePerRun(t *testing.T) {
	var calls int
	p := New(
		&fakeConverter{text: convert.Text{Content: "text\n\n", Pages: 1}},
		newAnnotator(t, &calls, entityPayload),
	)

	first, err := p.Run(context.Background(), testInput(), nil)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), testInput(), nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, second.Result.Entities, 1)
}

func TestRunFile(t *testing.T) {
	var calls int
	p := New(
		&fakeConverter{text: convert.Text{Content: "text\n\n", Pages: 1}},
		newAnnotator(t, &calls, entityPayload),
	)

	path := filepath.Join(t.TempDir(), "q3.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))
	doc, err := p.RunFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "q3.pdf", doc.FileName)

	_, err = p.RunFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), nil)
	var ee *convert.ExtractionError
	assert.ErrorAs(t, err, &ee)
}
