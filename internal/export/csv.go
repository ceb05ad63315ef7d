// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"io"
	"strings"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// Header is the column row shared by the CSV and XLSX exports.
var Header = []string{"type", "name", "value", "ontology_class", "description", "context"}

// Rows flattens result into table rows, without the header: financial data
// first, then concepts, entities and relationships. Ontology items have an
// empty value and their category class in the ontology_class column.
func Rows(result *types.AnnotationResult) [][]string {
	if result == nil {
		return nil
	}
	rows := make([][]string, 0, result.Len())
	for _, dp := range result.FinancialData {
		rows = append(rows, []string{
			types.KindFinancialData.Label(), dp.Name, dp.Value, dp.OntologyClass, dp.Description, dp.Context,
		})
	}
	for _, group := range []struct {
		kind  types.ItemKind
		items []types.OntologyItem
	}{
		{types.KindConcept, result.Concepts},
		{types.KindEntity, result.Entities},
		{types.KindRelationship, result.Relationships},
	} {
		for _, item := range group.items {
			rows = append(rows, []string{
				group.kind.Label(), item.Name, "", item.CategoryClass, item.Description, item.Context,
			})
		}
	}
	return rows
}

// CSV writes result as CSV. Rows are separated by "\n" with no trailing
// newline; a cell is quoted only when it contains a comma, a double quote or
// a newline.
func CSV(w io.Writer, result *types.AnnotationResult) error {
	_, err := io.WriteString(w, CSVString(result))
	return err
}

// CSVString returns the CSV text for result.
func CSVString(result *types.AnnotationResult) string {
	lines := []string{joinRow(Header)}
	for _, row := range Rows(result) {
		lines = append(lines, joinRow(row))
	}
	return strings.Join(lines, "\n")
}

func joinRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = EscapeCell(c)
	}
	return strings.Join(escaped, ",")
}

// EscapeCell quotes c when it contains a comma, a double quote or a newline,
// doubling any embedded quotes. Other cells are returned unchanged.
func EscapeCell(c string) string {
	if !strings.ContainsAny(c, ",\"\n") {
		return c
	}
	return `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
}
