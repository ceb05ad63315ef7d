// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fibo-annotator/internal/export"
	"github.com/pdiddy/fibo-annotator/internal/store"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert an annotation result to JSON, CSV, YAML, or XLSX",
	Long: `Export reads an annotation result, either a JSON or YAML file written by
annotate (--input) or a stored document (--document), and writes it in the
requested format. JSON results that use the older "fibo_class" field name
are accepted.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}
	input := mustString(cmd, "input")
	docID := mustString(cmd, "document")

	var result *types.AnnotationResult
	switch {
	case input != "" && docID != "":
		return fmt.Errorf("use either --input or --document, not both")
	case input != "":
		result, err = readResultFile(input)
	case docID != "":
		result, err = readStoredResult(cmd, docID)
	default:
		return fmt.Errorf("an annotation result is required: provide --input or --document")
	}
	if err != nil {
		return err
	}

	out := mustString(cmd, "output")
	if out == "" || out == "-" {
		return export.Write(cmd.OutOrStdout(), format, result)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := export.Write(f, format, result); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d items to %s\n", result.Len(), out)
	return nil
}

// readResultFile decodes an AnnotationResult from a JSON or YAML file. A
// stored Document (with a "result" field) is also accepted.
func readResultFile(path string) (*types.AnnotationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	result, err := decodeResult(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return result, nil
}

func decodeResult(data []byte, ext string) (*types.AnnotationResult, error) {
	var wrapper struct {
		Result *types.AnnotationResult `json:"result" yaml:"result"`
	}
	result := types.NewAnnotationResult()

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &wrapper); err == nil && wrapper.Result != nil {
			result = wrapper.Result
		} else if err := yaml.Unmarshal(data, result); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Result != nil {
			result = wrapper.Result
		} else if err := json.Unmarshal(data, result); err != nil {
			return nil, err
		}
	}
	result.Normalize()
	return result, nil
}

func readStoredResult(cmd *cobra.Command, id string) (*types.AnnotationResult, error) {
	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	doc, err := st.Get(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	return doc.Result, nil
}

func init() {
	exportCmd.Flags().StringP("input", "i", "", "annotation result file (JSON or YAML)")
	exportCmd.Flags().String("document", "", "stored document ID")
	exportCmd.Flags().StringP("format", "f", "csv", "export format: json, csv, yaml, or xlsx")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(exportCmd)
}
