// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fibo-annotator/internal/chunk"
	"github.com/pdiddy/fibo-annotator/internal/convert"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Show how a document would be split into chunks",
	Long: `Chunk splits a document's text the way annotate does, without calling the
LLM. The input is a PDF (extracted first), a text file, or "-" for stdin.
Each chunk is listed with its size in bytes and opening line; --json prints the
chunks themselves.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func runChunk(cmd *cobra.Command, args []string) error {
	applyAnnotationFlags(cmd)
	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)

	text, err := readChunkInput(cmd, cfg.Conversion, args[0])
	if err != nil {
		return err
	}

	chunks, err := chunk.SplitWithPolicy(text, cfg.Annotation.MaxChunkSize, cfg.Annotation.SplitPolicy)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	}
	return formatChunks(cmd.OutOrStdout(), chunks, cfg.Annotation.MaxChunkSize)
}

func readChunkInput(cmd *cobra.Command, cfg types.ConversionConfig, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		c, err := convert.New(cfg)
		if err != nil {
			return "", err
		}
		text, err := convert.ConvertFile(cmd.Context(), c, path)
		if err != nil {
			return "", err
		}
		return text.Content, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func formatChunks(w io.Writer, chunks []string, maxSize int) error {
	if len(chunks) == 0 {
		fmt.Fprintln(w, "No chunks: the text is empty.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-8s  %s\n", "Chunk", "Size", "Begins")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	total := 0
	for i, c := range chunks {
		n := len(c)
		total += n
		fmt.Fprintf(w, "%-5d  %-8d  %s\n", i+1, n, preview(c, 60))
	}

	fmt.Fprintf(w, "\n%d chunks, %d bytes (max %d per chunk)\n", len(chunks), total, maxSize)
	return nil
}

// preview returns the first non-blank line of s, cut to n runes.
func preview(s string, n int) string {
	line := strings.TrimSpace(s)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if utf8.RuneCountInString(line) > n {
		r := []rune(line)
		line = string(r[:n-3]) + "..."
	}
	return line
}

func init() {
	chunkCmd.Flags().Bool("json", false, "print the chunks as a JSON array")
	addChunkFlags(chunkCmd)

	rootCmd.AddCommand(chunkCmd)
}
