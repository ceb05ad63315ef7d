// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus instrumentation for annotation runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/fibo-annotator/internal/annotate"
)

// Annotation holds the annotation collectors. It implements
// annotate.Observer so it can be attached with annotate.WithObserver.
type Annotation struct {
	Documents      *prometheus.CounterVec
	ChunkRequests  *prometheus.CounterVec
	ChunkDuration  prometheus.Histogram
	ChunksPerDoc   prometheus.Histogram
	ItemsKept      prometheus.Counter
	InFlightChunks prometheus.Gauge
}

// NewAnnotation registers the annotation collectors with reg.
func NewAnnotation(reg prometheus.Registerer) *Annotation {
	f := promauto.With(reg)
	return &Annotation{
		Documents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fibo_annotator_documents_total",
				Help: "Total number of annotation runs by outcome",
			},
			[]string{"outcome"},
		),
		ChunkRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fibo_annotator_chunk_requests_total",
				Help: "Total number of per-chunk LLM requests by outcome",
			},
			[]string{"outcome"},
		),
		ChunkDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fibo_annotator_chunk_request_seconds",
			Help:    "Latency of per-chunk LLM requests",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		ChunksPerDoc: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fibo_annotator_chunks_per_document",
			Help:    "Number of chunks per annotated document",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		ItemsKept: f.NewCounter(prometheus.CounterOpts{
			Name: "fibo_annotator_items_total",
			Help: "Total number of de-duplicated items produced",
		}),
		InFlightChunks: f.NewGauge(prometheus.GaugeOpts{
			Name: "fibo_annotator_chunk_requests_in_flight",
			Help: "Number of chunk requests currently awaiting a response",
		}),
	}
}

// Observe implements annotate.Observer.
func (m *Annotation) Observe(t annotate.Transition) {
	switch t.State {
	case annotate.StateAwaitingChunk:
		m.InFlightChunks.Inc()
	case annotate.StateMergingChunk:
		m.InFlightChunks.Dec()
		m.ChunkRequests.WithLabelValues("ok").Inc()
		m.ChunkDuration.Observe(t.Elapsed.Seconds())
	case annotate.StateFailed:
		m.InFlightChunks.Dec()
		m.ChunkRequests.WithLabelValues("error").Inc()
		m.ChunkDuration.Observe(t.Elapsed.Seconds())
		m.Documents.WithLabelValues("failed").Inc()
	case annotate.StateDone:
		m.Documents.WithLabelValues("ok").Inc()
		m.ChunksPerDoc.Observe(float64(t.Total))
		if t.Result != nil {
			m.ItemsKept.Add(float64(t.Result.Len()))
		}
	}
}
