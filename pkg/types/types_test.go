// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOntologyItemUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"category_class", `{"name":"Acme","category_class":"fibo:Bank"}`, "fibo:Bank"},
		{"fibo_class alias", `{"name":"Acme","fibo_class":"fibo:Lender"}`, "fibo:Lender"},
		{"category_class wins", `{"name":"Acme","category_class":"a","fibo_class":"b"}`, "a"},
		{"neither", `{"name":"Acme"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var item OntologyItem
			require.NoError(t, json.Unmarshal([]byte(tt.input), &item))
			assert.Equal(t, "Acme", item.Name)
			assert.Equal(t, tt.want, item.CategoryClass)
		})
	}
}

func TestNewAnnotationResultMarshalsEmptyLists(t *testing.T) {
	data, err := json.Marshal(NewAnnotationResult())
	require.NoError(t, err)
	assert.JSONEq(t, `{"concepts":[],"entities":[],"relationships":[],"financial_data":[]}`, string(data))
}

func TestNormalize(t *testing.T) {
	r := &AnnotationResult{Concepts: []OntologyItem{{Name: "Risk"}}}
	r.Normalize()
	assert.NotNil(t, r.Entities)
	assert.NotNil(t, r.Relationships)
	assert.NotNil(t, r.FinancialData)
	assert.Len(t, r.Concepts, 1)
	assert.Equal(t, 1, r.Len())
}

func TestOntologyGroups(t *testing.T) {
	counts := map[string]int{}
	total := 0
	for _, g := range OntologyGroups {
		counts[g.Name] = len(g.Classes)
		total += len(g.Classes)
	}
	assert.Equal(t, 5, counts["Assets"])
	assert.Equal(t, 3, counts["Liabilities"])
	assert.Equal(t, 2, counts["Equity"])
	assert.Equal(t, 4, counts["Income & Expenses"])
	assert.Equal(t, 3, counts["Capital & Risk"])
	assert.Equal(t, 4, counts["General"])
	assert.Equal(t, 21, total)

	assert.True(t, IsKnownClass("cr-assets:TotalAssets"))
	assert.True(t, IsKnownClass("cr-general:OtherMetric"))
	assert.False(t, IsKnownClass("cr-assets:Unknown"))
}

func TestItemKindLabel(t *testing.T) {
	assert.Equal(t, "Financial Data", KindFinancialData.Label())
	assert.Equal(t, "Concept", KindConcept.Label())
	assert.Equal(t, "Entity", KindEntity.Label())
	assert.Equal(t, "Relationship", KindRelationship.Label())
}
