// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is the subset of JSON Schema used to describe the response shape.
// It marshals to a valid JSON Schema document and is converted to each
// provider's native schema type by the backends.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`

	// Order lists property names in the order providers should emit them.
	Order []string `json:"-"`
}

func stringProp(desc string) *Schema {
	return &Schema{Type: "string", Description: desc}
}

func ontologyItemSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"name":           stringProp(`The name of the identified item (e.g., "Acme Corp", "Loan Agreement").`),
			"category_class": stringProp("The corresponding FIBO class (e.g., fibo-fbc-fi-fi:FinancialInstitution, fibo-fbc-pas-fpas:FinancialProductAsAService)."),
			"description":    stringProp("A brief explanation of the item in the context of the document."),
			"context":        stringProp("The exact text snippet from the document where the item was found."),
		},
		Required: []string{"name", "category_class", "description", "context"},
		Order:    []string{"name", "category_class", "description", "context"},
	}
}

func financialDataSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"name":           stringProp(`The label or name of the data point (e.g., "Total Assets", "Interest Rate").`),
			"value":          stringProp(`The extracted value of the data point (e.g., "$1,500,000", "3.5%").`),
			"ontology_class": stringProp("The corresponding class from the custom Call Report Ontology (e.g., cr-assets:TotalAssets)."),
			"description":    stringProp("A brief explanation of what this data point represents."),
			"context":        stringProp("The exact text snippet from the document where the data was found."),
		},
		Required: []string{"name", "value", "ontology_class", "description", "context"},
		Order:    []string{"name", "value", "ontology_class", "description", "context"},
	}
}

// ResponseSchema returns the AnnotationResult response shape. None of the
// four lists is required; a missing list decodes as empty.
func ResponseSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"concepts": {
				Type:        "array",
				Description: `Abstract ideas or notions relevant to FIBO (e.g., "Risk", "Interest Rate").`,
				Items:       ontologyItemSchema(),
			},
			"entities": {
				Type:        "array",
				Description: "Specific instances like companies, people, accounts, or financial instruments mentioned in the text.",
				Items:       ontologyItemSchema(),
			},
			"relationships": {
				Type:        "array",
				Description: `Connections or associations between entities and/or concepts (e.g., "Acme Corp is a lender to Beta Inc.").`,
				Items:       ontologyItemSchema(),
			},
			"financial_data": {
				Type:        "array",
				Description: "Specific financial data points, such as monetary values, percentages, and dates, mapped to the custom Call Report Ontology.",
				Items:       financialDataSchema(),
			},
		},
		Order: []string{"concepts", "entities", "relationships", "financial_data"},
	}
}

// JSON returns the schema as a JSON document.
func (s *Schema) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// Validator checks payloads against a compiled Schema.
type Validator struct {
	compiled *jsonschema.Schema
}

// NewValidator compiles s for validation.
func NewValidator(s *Schema) (*Validator, error) {
	b, err := s.JSON()
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("annotation.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile("annotation.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{compiled: compiled}, nil
}

// Validate reports whether data is JSON conforming to the schema.
func (v *Validator) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return v.ValidateValue(doc)
}

// ValidateValue checks an already decoded JSON value (as produced by
// encoding/json into an any) against the schema.
func (v *Validator) ValidateValue(doc any) error {
	if err := v.compiled.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
