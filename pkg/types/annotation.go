// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the fibo-annotator pipeline:
// the annotation result shape returned by the LLM, the persisted Document
// record, the Call Report ontology enumeration, and stage configuration.
package types

import (
	"encoding/json"
	"time"
)

// OntologyItem is a concept, entity, or relationship found in the text and
// mapped to an ontology class (typically a FIBO class).
type OntologyItem struct {
	// Name is the label of the item (e.g. "Acme Corp", "Loan Agreement").
	Name string `json:"name" yaml:"name"`

	// CategoryClass is the ontology class the item belongs to
	// (e.g. "fibo-fbc-fi-fi:FinancialInstitution").
	CategoryClass string `json:"category_class" yaml:"category_class"`

	// Description explains the item's role in the document.
	Description string `json:"description" yaml:"description"`

	// Context is the verbatim source snippet the item was found in.
	Context string `json:"context" yaml:"context"`
}

// UnmarshalJSON accepts "fibo_class" as an alias for "category_class" so
// payloads produced with the older response schema still decode.
func (o *OntologyItem) UnmarshalJSON(data []byte) error {
	type plain OntologyItem
	var aux struct {
		plain
		FiboClass string `json:"fibo_class"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = OntologyItem(aux.plain)
	if o.CategoryClass == "" {
		o.CategoryClass = aux.FiboClass
	}
	return nil
}

// FinancialDataPoint is a concrete value (amount, percentage, date) mapped to
// a class of the Call Report ontology.
type FinancialDataPoint struct {
	// Name is the label of the data point (e.g. "Total Assets").
	Name string `json:"name" yaml:"name"`

	// Value is the extracted value as written (e.g. "$1,500,000", "3.5%").
	Value string `json:"value" yaml:"value"`

	// OntologyClass is the Call Report class (e.g. "cr-assets:TotalAssets").
	OntologyClass string `json:"ontology_class" yaml:"ontology_class"`

	// Description explains what the data point represents.
	Description string `json:"description" yaml:"description"`

	// Context is the verbatim source snippet the value was found in.
	Context string `json:"context" yaml:"context"`
}

// AnnotationResult is the aggregate output of annotating one document.
type AnnotationResult struct {
	Concepts      []OntologyItem       `json:"concepts" yaml:"concepts"`
	Entities      []OntologyItem       `json:"entities" yaml:"entities"`
	Relationships []OntologyItem       `json:"relationships" yaml:"relationships"`
	FinancialData []FinancialDataPoint `json:"financial_data" yaml:"financial_data"`
}

// NewAnnotationResult returns a result whose four lists are empty but
// non-nil, so they serialize as [] rather than null.
func NewAnnotationResult() *AnnotationResult {
	return &AnnotationResult{
		Concepts:      []OntologyItem{},
		Entities:      []OntologyItem{},
		Relationships: []OntologyItem{},
		FinancialData: []FinancialDataPoint{},
	}
}

// Normalize replaces nil lists with empty ones.
func (r *AnnotationResult) Normalize() {
	if r.Concepts == nil {
		r.Concepts = []OntologyItem{}
	}
	if r.Entities == nil {
		r.Entities = []OntologyItem{}
	}
	if r.Relationships == nil {
		r.Relationships = []OntologyItem{}
	}
	if r.FinancialData == nil {
		r.FinancialData = []FinancialDataPoint{}
	}
}

// Len returns the total number of items across all four lists.
func (r *AnnotationResult) Len() int {
	return len(r.Concepts) + len(r.Entities) + len(r.Relationships) + len(r.FinancialData)
}

// ItemKind names one of the four result categories.
type ItemKind string

const (
	KindConcept       ItemKind = "concept"
	KindEntity        ItemKind = "entity"
	KindRelationship  ItemKind = "relationship"
	KindFinancialData ItemKind = "financial_data"
)

// Label returns the human-readable label used in exports ("Concept",
// "Financial Data", ...).
func (k ItemKind) Label() string {
	switch k {
	case KindConcept:
		return "Concept"
	case KindEntity:
		return "Entity"
	case KindRelationship:
		return "Relationship"
	case KindFinancialData:
		return "Financial Data"
	}
	return string(k)
}

// Document is one annotated PDF as persisted by the store.
type Document struct {
	// ID is a UUID assigned when the pipeline starts.
	ID string `json:"id" yaml:"id"`

	// FileName is the original file name of the upload.
	FileName string `json:"file_name" yaml:"file_name"`

	// Pages is the number of pages the extractor read.
	Pages int `json:"pages" yaml:"pages"`

	// TextLength is the length in bytes of the extracted text.
	TextLength int `json:"text_length" yaml:"text_length"`

	// Chunks is the number of chunks sent to the LLM.
	Chunks int `json:"chunks" yaml:"chunks"`

	// Model identifies the backend and model that produced the result.
	Model string `json:"model" yaml:"model"`

	// CreatedAt is when the annotation finished.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Result holds the de-duplicated annotations.
	Result *AnnotationResult `json:"result,omitempty" yaml:"result,omitempty"`
}
