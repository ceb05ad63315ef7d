// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the annotation pipeline over HTTP: PDF upload,
// stored document retrieval, health and Prometheus metrics.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/fibo-annotator/internal/annotate"
	"github.com/pdiddy/fibo-annotator/internal/convert"
	"github.com/pdiddy/fibo-annotator/internal/export"
	"github.com/pdiddy/fibo-annotator/internal/pipeline"
	"github.com/pdiddy/fibo-annotator/internal/store"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

const defaultMaxUploadBytes = 32 << 20

// Runner runs one document through the pipeline.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input, onProgress func(string)) (*types.Document, error)
}

// DocumentStore reads stored documents.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*types.Document, error)
	List(ctx context.Context) ([]store.DocumentSummary, error)
}

// Server serves the HTTP API.
type Server struct {
	runner    Runner
	docs      DocumentStore
	gatherer  prometheus.Gatherer
	logger    zerolog.Logger
	maxUpload int64
}

// Option configures a Server.
type Option func(*Server)

// WithDocumentStore enables the /v1/documents endpoints.
func WithDocumentStore(d DocumentStore) Option {
	return func(s *Server) {
		s.docs = d
	}
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMaxUploadBytes caps the accepted upload size.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// New creates a Server that annotates uploads with runner.
func New(runner Runner, opts ...Option) *Server {
	s := &Server{
		runner:    runner,
		gatherer:  prometheus.DefaultGatherer,
		logger:    zerolog.Nop(),
		maxUpload: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/annotate", s.handleAnnotate)
	mux.HandleFunc("GET /v1/documents", s.handleListDocuments)
	mux.HandleFunc("GET /v1/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return s.withRequestID(mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	s.logger.Info().Str("addr", addr).Msg("server.listen")
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		log := s.logger.With().Str("request_id", id).Logger()
		ctx := log.WithContext(r.Context())
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).Msg("server.request")
	})
}

func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.maxUpload))
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("reading upload: %v", err))
		return
	}

	in := pipeline.Input{
		FileName: filepath.Base(header.Filename),
		Reader:   bytes.NewReader(data),
		Size:     int64(len(data)),
	}
	doc, err := s.runner.Run(r.Context(), in, func(msg string) {
		log.Debug().Msg(msg)
	})
	if err != nil {
		status := statusFor(err)
		log.Warn().Err(err).Int("status", status).Msg("server.annotate_failed")
		writeError(w, status, pipeline.UserMessage(err))
		return
	}

	w.Header().Set("X-Document-ID", doc.ID)
	s.writeExport(w, format, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		writeError(w, http.StatusNotFound, "document store disabled")
		return
	}
	docs, err := s.docs.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []store.DocumentSummary{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		writeError(w, http.StatusNotFound, "document store disabled")
		return
	}
	doc, err := s.docs.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Without a format the whole document, metadata included, is returned.
	if r.URL.Query().Get("format") == "" {
		writeJSON(w, http.StatusOK, doc)
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeExport(w, format, doc)
}

func (s *Server) writeExport(w http.ResponseWriter, format export.Format, doc *types.Document) {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, doc.Result); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	base := strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
	if base == "" {
		base = doc.ID
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"-fibo."+format.Extension()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var (
		ee *convert.ExtractionError
		ce *annotate.ChunkError
	)
	switch {
	case errors.Is(err, pipeline.ErrEmptyDocument), errors.As(err, &ee):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
