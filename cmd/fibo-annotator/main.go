// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fibo-annotator CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fibo-annotator/internal/chunk"
	"github.com/pdiddy/fibo-annotator/internal/secrets"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// logger is the CLI's structured logger, writing to stderr.
var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
	With().Timestamp().Logger().Level(zerolog.InfoLevel)

// rootCmd is the base command for the fibo-annotator CLI.
var rootCmd = &cobra.Command{
	Use:   "fibo-annotator",
	Short: "Annotate financial PDFs with FIBO and Call Report ontology classes",
	Long: `fibo-annotator extracts text from financial PDFs such as Call Reports,
splits it into chunks, and asks a large language model to identify FIBO
concepts, entities, relationships, and Call Report data points in each
chunk. The merged, de-duplicated result can be exported as JSON, CSV, YAML,
or XLSX and kept in a local SQLite store.

Each stage is also available on its own: extract, chunk, and export.
The serve command exposes the same pipeline over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			logger = logger.Level(zerolog.DebugLevel)
		}
		cmd.SetContext(logger.WithContext(cmd.Context()))

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Names())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./fibo-annotator.yaml or ~/.config/fibo-annotator/fibo-annotator.yaml)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.String("provider", "", "LLM provider: gemini, openai, or claude (default gemini)")
	pf.String("model", "", "model identifier (default depends on provider)")
	pf.String("data-dir", "data", "directory holding annotations.db")

	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("annotation.provider", pf.Lookup("provider"))
	_ = viper.BindPFlag("annotation.model", pf.Lookup("model"))
	_ = viper.BindPFlag("store.data_dir", pf.Lookup("data-dir"))

	viper.SetDefault("annotation.max_chunk_size", chunk.DefaultMaxSize)
	viper.SetDefault("annotation.split_policy", string(types.SplitFixed))
	viper.SetDefault("annotation.temperature", 0.1)
	viper.SetDefault("annotation.max_retries", 5)
	viper.SetDefault("annotation.timeout", 5*time.Minute)
	viper.SetDefault("conversion.backend", string(types.BackendNative))
	viper.SetDefault("conversion.pdftotext_path", "pdftotext")
	viper.SetDefault("store.max_results", 50)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.max_upload_bytes", 32<<20)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fibo-annotator")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fibo-annotator"))
		}
	}

	viper.SetEnvPrefix("FIBO_ANNOTATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the stage configuration from viper. When no API
// key is configured, the provider's key from .secrets/ is used.
func pipelineConfig(v *viper.Viper, s secrets.Secrets) types.PipelineConfig {
	cfg := types.PipelineConfig{
		Annotation: types.AnnotationConfig{
			AIConfig: types.AIConfig{
				HTTPConfig: types.HTTPConfig{
					Timeout:    v.GetDuration("annotation.timeout"),
					MaxRetries: v.GetInt("annotation.max_retries"),
				},
				Provider:    types.AIProvider(strings.ToLower(v.GetString("annotation.provider"))),
				Model:       v.GetString("annotation.model"),
				APIKey:      v.GetString("annotation.api_key"),
				BaseURL:     v.GetString("annotation.base_url"),
				Temperature: float32(v.GetFloat64("annotation.temperature")),
			},
			MaxChunkSize: v.GetInt("annotation.max_chunk_size"),
			SplitPolicy:  types.SplitPolicy(v.GetString("annotation.split_policy")),
		},
		Conversion: types.ConversionConfig{
			Backend:       types.ConversionBackend(v.GetString("conversion.backend")),
			PdftotextPath: v.GetString("conversion.pdftotext_path"),
		},
		Store: types.StoreConfig{
			DataDir:    v.GetString("store.data_dir"),
			MaxResults: v.GetInt("store.max_results"),
		},
		Server: types.ServerConfig{
			Addr:           v.GetString("server.addr"),
			MaxUploadBytes: v.GetInt64("server.max_upload_bytes"),
		},
	}
	if cfg.Annotation.APIKey == "" {
		cfg.Annotation.APIKey = s.APIKey(cfg.Annotation.Provider)
	}
	return cfg
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
