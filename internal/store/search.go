// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// QueryOptions holds parameters for item searches.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over item name and context.
	Query string

	// Kind filters by result category.
	Kind types.ItemKind

	// Class filters by ontology class (category_class or ontology_class),
	// case-insensitively.
	Class string

	// DocumentID filters by document.
	DocumentID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Kind == "" && q.Class == "" && q.DocumentID == ""
}

// QueryResult is one matching item with the document it came from.
type QueryResult struct {
	DocumentID  string         `json:"document_id" yaml:"document_id"`
	FileName    string         `json:"file_name" yaml:"file_name"`
	Kind        types.ItemKind `json:"kind" yaml:"kind"`
	Name        string         `json:"name" yaml:"name"`
	Class       string         `json:"class" yaml:"class"`
	Value       string         `json:"value,omitempty" yaml:"value,omitempty"`
	Description string         `json:"description" yaml:"description"`
	Context     string         `json:"context" yaml:"context"`
}

// Search queries stored items with optional full-text search and structured
// filters. Results are ranked by relevance for full-text queries, otherwise
// ordered by document, category and position.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT i.document_id, d.file_name, i.kind, i.name, i.class, i.value,
				i.description, i.context
			FROM items_fts
			JOIN items i ON i.rowid = items_fts.rowid
			JOIN documents d ON d.id = i.document_id
			WHERE items_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT i.document_id, d.file_name, i.kind, i.name, i.class, i.value,
				i.description, i.context
			FROM items i
			JOIN documents d ON d.id = i.document_id
			WHERE 1=1`)
	}

	if opts.Kind != "" {
		qb.WriteString(` AND i.kind = ?`)
		args = append(args, string(opts.Kind))
	}
	if opts.Class != "" {
		qb.WriteString(` AND lower(i.class) = lower(?)`)
		args = append(args, opts.Class)
	}
	if opts.DocumentID != "" {
		qb.WriteString(` AND i.document_id = ?`)
		args = append(args, opts.DocumentID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY items_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY d.created_at, i.document_id, i.kind, i.position`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying annotations: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr                         QueryResult
			kind                       string
			class, value, desc, contxt sql.NullString
		)
		if err := rows.Scan(&qr.DocumentID, &qr.FileName, &kind, &qr.Name,
			&class, &value, &desc, &contxt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Kind = types.ItemKind(kind)
		qr.Class = class.String
		qr.Value = value.String
		qr.Description = desc.String
		qr.Context = contxt.String
		results = append(results, qr)
	}
	return results, rows.Err()
}
