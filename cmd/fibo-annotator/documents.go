// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/fibo-annotator/internal/export"
	"github.com/pdiddy/fibo-annotator/internal/store"
	"github.com/pdiddy/fibo-annotator/pkg/types"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Browse and search stored annotation results",
	Long: `Documents manages the local SQLite store that annotate --save and serve
write to. Use subcommands to list documents, show one result, search items
across documents, or delete a document.`,
}

// --- list subcommand ---

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatDocumentList(cmd.OutOrStdout(), docs, jsonOutput)
	},
}

func formatDocumentList(w io.Writer, docs []store.DocumentSummary, jsonOutput bool) error {
	if jsonOutput {
		if docs == nil {
			docs = []store.DocumentSummary{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents stored.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-30s  %-5s  %-6s  %-5s  %s\n",
		"ID", "File", "Pages", "Chunks", "Items", "Created")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, d := range docs {
		fmt.Fprintf(w, "%-36s  %-30s  %-5d  %-6d  %-5d  %s\n",
			d.ID, truncate(d.FileName, 30), d.Pages, d.Chunks, d.Items, d.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "\n%d documents\n", len(docs))
	return nil
}

// --- show subcommand ---

var documentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored annotation result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(mustString(cmd, "format"))
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		doc, err := st.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return export.Write(cmd.OutOrStdout(), format, doc.Result)
	},
}

// --- search subcommand ---

var documentsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored items with full-text search and filters",
	Long: `Search finds stored items using FTS5 full-text search over item names and
source context, structured filters (--kind, --class, --document), or both.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := searchOptsFromFlags(cmd, args)
		if opts.IsEmpty() {
			return fmt.Errorf("query or filter required: provide a search query, --kind, --class, or --document")
		}
		if opts.Kind != "" && !validKind(opts.Kind) {
			return fmt.Errorf("unknown kind %q: use concept, entity, relationship, or financial_data", opts.Kind)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		results, err := st.Search(cmd.Context(), opts)
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatSearchResults(cmd.OutOrStdout(), results, jsonOutput)
	},
}

func searchOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	limit, _ := cmd.Flags().GetInt("limit")
	return store.QueryOptions{
		Query:      strings.Join(args, " "),
		Kind:       types.ItemKind(mustString(cmd, "kind")),
		Class:      mustString(cmd, "class"),
		DocumentID: mustString(cmd, "document"),
		MaxResults: limit,
	}
}

func validKind(k types.ItemKind) bool {
	switch k {
	case types.KindConcept, types.KindEntity, types.KindRelationship, types.KindFinancialData:
		return true
	}
	return false
}

func formatSearchResults(w io.Writer, results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		if results == nil {
			results = []store.QueryResult{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-14s  %-30s  %-34s  %-14s  %s\n",
		"Rank", "Kind", "Name", "Class", "Value", "File")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-14s  %-30s  %-34s  %-14s  %s\n",
			i+1, r.Kind.Label(), truncate(r.Name, 30), truncate(r.Class, 34), truncate(r.Value, 14), r.FileName)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// --- delete subcommand ---

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored document and its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

// --- shared helpers ---

func openStore() (*store.Store, error) {
	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)
	return store.Open(cfg.Store)
}

// truncate cuts s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	documentsListCmd.Flags().Bool("json", false, "output documents as JSON")

	documentsShowCmd.Flags().StringP("format", "f", "json", "output format: json, csv, yaml, or xlsx")

	documentsSearchCmd.Flags().String("kind", "", "filter by kind: concept, entity, relationship, financial_data")
	documentsSearchCmd.Flags().String("class", "", "filter by ontology class (case-insensitive)")
	documentsSearchCmd.Flags().String("document", "", "filter by document ID")
	documentsSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	documentsSearchCmd.Flags().Bool("json", false, "output results as JSON")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsSearchCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)

	rootCmd.AddCommand(documentsCmd)
}
