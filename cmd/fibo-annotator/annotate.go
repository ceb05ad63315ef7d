// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fibo-annotator/internal/annotate"
	"github.com/pdiddy/fibo-annotator/internal/convert"
	"github.com/pdiddy/fibo-annotator/internal/export"
	"github.com/pdiddy/fibo-annotator/internal/pipeline"
	"github.com/pdiddy/fibo-annotator/internal/store"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <pdf>...",
	Short: "Extract, chunk, and annotate PDFs with ontology classes",
	Long: `Annotate runs the full pipeline on each PDF: text extraction, chunking,
one LLM request per chunk, merge, and de-duplication. Progress is printed
to stderr.

With a single PDF and no --output-dir the export is written to stdout.
Otherwise each result is written to <output-dir>/<name>-fibo.<ext>.
With --save the result is also stored in the local annotation store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnnotate,
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}
	outDir := mustString(cmd, "output-dir")
	save, _ := cmd.Flags().GetBool("save")
	applyAnnotationFlags(cmd)

	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)
	ctx := cmd.Context()

	var saver pipeline.Saver
	if save {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		saver = st
	}

	p, err := buildPipeline(ctx, cfg, nil, saver)
	if err != nil {
		return err
	}

	toStdout := len(args) == 1 && outDir == ""
	if outDir == "" {
		outDir = "."
	}

	stderr := cmd.ErrOrStderr()
	var failed int
	for _, path := range args {
		doc, err := p.RunFile(ctx, path, func(msg string) {
			fmt.Fprintf(stderr, "  %s\n", msg)
		})
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "  failed     %s: %s\n", path, pipeline.UserMessage(err))
			continue
		}

		if toStdout {
			if err := export.Write(cmd.OutOrStdout(), format, doc.Result); err != nil {
				return err
			}
		} else {
			out, err := writeExportFile(outDir, path, format, doc.Result)
			if err != nil {
				return err
			}
			fmt.Fprintf(stderr, "  annotated  %s -> %s\n", path, out)
		}
		fmt.Fprintf(stderr, "  %d chunks, %d concepts, %d entities, %d relationships, %d data points (document %s)\n",
			doc.Chunks, len(doc.Result.Concepts), len(doc.Result.Entities),
			len(doc.Result.Relationships), len(doc.Result.FinancialData), doc.ID)
		if n := unknownClasses(doc.Result); n > 0 {
			fmt.Fprintf(stderr, "  %d data point(s) use classes outside the Call Report ontology\n", n)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d PDF(s) failed", failed, len(args))
	}
	return nil
}

// buildPipeline wires the converter, the configured backend, and the
// annotator. observer and saver may be nil.
func buildPipeline(ctx context.Context, cfg types.PipelineConfig, observer annotate.Observer, saver pipeline.Saver) (*pipeline.Pipeline, error) {
	conv, err := convert.New(cfg.Conversion)
	if err != nil {
		return nil, err
	}
	backend, err := annotate.NewBackend(ctx, cfg.Annotation.AIConfig)
	if err != nil {
		return nil, err
	}
	a, err := annotate.New(backend,
		annotate.WithMaxChunkSize(cfg.Annotation.MaxChunkSize),
		annotate.WithSplitPolicy(cfg.Annotation.SplitPolicy),
		annotate.WithLogger(logger),
		annotate.WithObserver(observer),
	)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithModel(backend.Name()),
		pipeline.WithLogger(logger),
	}
	if saver != nil {
		opts = append(opts, pipeline.WithSaver(saver))
	}
	logger.Debug().Str("model", backend.Name()).Str("converter", string(cfg.Conversion.Backend)).
		Int("max_chunk_size", cfg.Annotation.MaxChunkSize).Msg("pipeline.configured")
	return pipeline.New(conv, a, opts...), nil
}

// unknownClasses counts data points whose class is not in the Call Report
// enumeration.
func unknownClasses(r *types.AnnotationResult) int {
	n := 0
	for _, dp := range r.FinancialData {
		if !types.IsKnownClass(dp.OntologyClass) {
			n++
		}
	}
	return n
}

// exportFileName returns "<base>-fibo.<ext>" for the source file at path.
func exportFileName(path string, format export.Format) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return base + "-fibo." + format.Extension()
}

func writeExportFile(outDir, srcPath string, format export.Format, result *types.AnnotationResult) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", outDir, err)
	}
	out := filepath.Join(outDir, exportFileName(srcPath, format))
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", out, err)
	}
	werr := export.Write(f, format, result)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		return "", fmt.Errorf("writing %s: %w", out, err)
	}
	return out, nil
}

// applyAnnotationFlags copies explicitly set chunking and conversion flags
// over the configured values.
func applyAnnotationFlags(cmd *cobra.Command) {
	if f := cmd.Flags().Lookup("chunk-size"); f != nil && f.Changed {
		n, _ := cmd.Flags().GetInt("chunk-size")
		viper.Set("annotation.max_chunk_size", n)
	}
	if f := cmd.Flags().Lookup("split-policy"); f != nil && f.Changed {
		viper.Set("annotation.split_policy", mustString(cmd, "split-policy"))
	}
	if f := cmd.Flags().Lookup("backend"); f != nil && f.Changed {
		viper.Set("conversion.backend", mustString(cmd, "backend"))
	}
}

func mustString(cmd *cobra.Command, name string) string {
	s, _ := cmd.Flags().GetString(name)
	return s
}

// addChunkFlags registers the chunking and conversion flags shared by
// annotate and chunk.
func addChunkFlags(cmd *cobra.Command) {
	cmd.Flags().Int("chunk-size", 0, "maximum chunk size in characters (default from config, 15000)")
	cmd.Flags().String("split-policy", "", "force-split policy for oversized paragraphs: fixed or word")
	cmd.Flags().String("backend", "", "text extraction backend: native or pdftotext")
}

func init() {
	annotateCmd.Flags().StringP("format", "f", "json", "export format: json, csv, yaml, or xlsx")
	annotateCmd.Flags().StringP("output-dir", "o", "", "directory for export files (default stdout for a single PDF)")
	annotateCmd.Flags().Bool("save", false, "store the result in the annotation store")
	addChunkFlags(annotateCmd)

	rootCmd.AddCommand(annotateCmd)
}
