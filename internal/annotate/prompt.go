// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// annotationPromptTmpl is the instruction sent with every chunk. It asks for
// FIBO analysis and for financial data mapped to the Call Report ontology,
// which is rendered from types.OntologyGroups.
var annotationPromptTmpl = template.Must(template.New("annotation").Parse(`You are an expert financial analyst specializing in ontologies. Analyze the following text from a financial document, such as a Call Report. Perform two main tasks:

1.  **FIBO Analysis**: Identify concepts, entities, and relationships corresponding to the Financial Industry Business Ontology (FIBO). For each, provide its name, the most relevant FIBO class, a description of its role, and the context snippet.

2.  **Financial Data Extraction and Mapping**: Extract all specific financial data points (monetary values, percentages, dates, ratios, etc.). For each data point, you MUST map it to the most appropriate class from the **Custom Call Report Ontology** provided below. Provide its name/label, its value, its assigned ontology class, a brief description, and the context snippet.

**Custom Call Report Ontology (Prefix: cr-)**
You MUST use these classes for financial data points.
{{- range .Groups}}
- {{.Name}}
{{- range .Classes}}
  - ` + "`{{.Class}}`" + `: {{.Meaning}}
{{- end}}
{{- end}}

If no items are found for a category, return an empty array for it. Structure your response strictly according to the provided JSON schema.

Text to analyze:
---
{{.Chunk}}
---
`))

// RenderPrompt builds the full request prompt for one chunk.
func RenderPrompt(chunk string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Groups []types.OntologyGroup
		Chunk  string
	}{
		Groups: types.OntologyGroups,
		Chunk:  chunk,
	}
	if err := annotationPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
