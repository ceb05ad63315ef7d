// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

var ontologyCmd = &cobra.Command{
	Use:   "ontology",
	Short: "Print the Call Report ontology the LLM maps data points to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeOntology(cmd.OutOrStdout(), mustString(cmd, "format"))
	},
}

func writeOntology(w io.Writer, format string) error {
	switch format {
	case "", "text":
		for i, g := range types.OntologyGroups {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s\n", g.Name)
			for _, c := range g.Classes {
				fmt.Fprintf(w, "  %-36s  %s\n", c.Class, c.Meaning)
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(types.OntologyGroups)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(types.OntologyGroups); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q: use text, json, or yaml", format)
	}
}

func init() {
	ontologyCmd.Flags().StringP("format", "f", "text", "output format: text, json, or yaml")

	rootCmd.AddCommand(ontologyCmd)
}
