// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fibo-annotator/internal/metrics"
	"github.com/pdiddy/fibo-annotator/internal/pipeline"
	"github.com/pdiddy/fibo-annotator/internal/server"
	"github.com/pdiddy/fibo-annotator/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the annotation pipeline over HTTP",
	Long: `Serve starts an HTTP server:

  POST /v1/annotate          multipart upload (field "file"), ?format=json|csv|yaml|xlsx
  GET  /v1/documents         stored documents
  GET  /v1/documents/{id}    one stored document, optionally ?format=
  GET  /healthz              liveness
  GET  /metrics              Prometheus metrics

Uploaded PDFs are annotated one request at a time per upload and, unless
--no-store is given, saved to the annotation store.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if f := cmd.Flags().Lookup("addr"); f.Changed {
		viper.Set("server.addr", f.Value.String())
	}
	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)
	ctx := cmd.Context()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewAnnotation(reg)

	opts := []server.Option{
		server.WithGatherer(reg),
		server.WithLogger(logger),
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
	}

	var saver pipeline.Saver
	noStore, _ := cmd.Flags().GetBool("no-store")
	if !noStore {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		saver = st
		opts = append(opts, server.WithDocumentStore(st))
	}

	p, err := buildPipeline(ctx, cfg, m, saver)
	if err != nil {
		return err
	}

	return server.New(p, opts...).ListenAndServe(ctx, cfg.Server.Addr)
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Bool("no-store", false, "do not store results or serve /v1/documents")

	rootCmd.AddCommand(serveCmd)
}
