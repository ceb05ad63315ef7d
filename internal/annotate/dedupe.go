// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"strings"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// normKey lower-cases and trims each field and joins them with "|".
func normKey(fields ...string) string {
	for i, f := range fields {
		fields[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return strings.Join(fields, "|")
}

// ItemKey is the de-duplication key of an ontology item:
// (name, category_class, context), case-insensitive and trimmed.
func ItemKey(item types.OntologyItem) string {
	return normKey(item.Name, item.CategoryClass, item.Context)
}

// DataPointKey is the de-duplication key of a financial data point:
// (name, value, ontology_class, context), case-insensitive and trimmed.
func DataPointKey(dp types.FinancialDataPoint) string {
	return normKey(dp.Name, dp.Value, dp.OntologyClass, dp.Context)
}

// dedupe keeps the first item seen for each key, preserving order.
func dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// DedupeItems removes later ontology items whose ItemKey was already seen.
func DedupeItems(items []types.OntologyItem) []types.OntologyItem {
	return dedupe(items, ItemKey)
}

// DedupeDataPoints removes later data points whose DataPointKey was already seen.
func DedupeDataPoints(items []types.FinancialDataPoint) []types.FinancialDataPoint {
	return dedupe(items, DataPointKey)
}

// Dedupe de-duplicates each of the four lists independently and returns a
// new result. The input is not modified.
func Dedupe(r *types.AnnotationResult) *types.AnnotationResult {
	return &types.AnnotationResult{
		Concepts:      DedupeItems(r.Concepts),
		Entities:      DedupeItems(r.Entities),
		Relationships: DedupeItems(r.Relationships),
		FinancialData: DedupeDataPoints(r.FinancialData),
	}
}
