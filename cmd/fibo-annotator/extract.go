// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fibo-annotator/internal/convert"
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>...",
	Short: "Extract plain text from PDFs",
	Long: `Extract reads each PDF and writes its text to <output-dir>/<name>.txt,
pages separated by a blank line. This is the text the annotate command
chunks and sends to the LLM. Use it to check what a PDF yields before
spending LLM requests on it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	applyAnnotationFlags(cmd)
	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)

	c, err := convert.New(cfg.Conversion)
	if err != nil {
		return err
	}

	result := convert.ConvertPaths(cmd.Context(), c, args, mustString(cmd, "output-dir"), cmd.OutOrStdout())
	if result.HasFailures() {
		return fmt.Errorf("%d of %d PDF(s) failed", result.Failed, result.Total())
	}
	return nil
}

func init() {
	extractCmd.Flags().StringP("output-dir", "o", "text", "directory for extracted text files")
	extractCmd.Flags().String("backend", "", "text extraction backend: native or pdftotext")

	rootCmd.AddCommand(extractCmd)
}
