// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists annotated documents in SQLite and indexes their
// items for full-text search over name and context.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

const (
	dbFile            = "annotations.db"
	defaultMaxResults = 50
)

// ErrNotFound is returned when a document ID does not exist.
var ErrNotFound = errors.New("document not found")

// Store manages the annotation SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the database at cfg.DataDir/annotations.db and
// creates the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.DataDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			pages INTEGER,
			text_length INTEGER,
			chunks INTEGER,
			model TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			class TEXT,
			value TEXT,
			description TEXT,
			context TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_document ON items(document_id, kind, position)`,
		`CREATE INDEX IF NOT EXISTS idx_items_class ON items(class)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='items_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE items_fts USING fts5(name, context, content=items, content_rowid=rowid)`,
		`CREATE TRIGGER items_ai AFTER INSERT ON items BEGIN
			INSERT INTO items_fts(rowid, name, context) VALUES (new.rowid, new.name, new.context);
		END`,
		`CREATE TRIGGER items_ad AFTER DELETE ON items BEGIN
			INSERT INTO items_fts(items_fts, rowid, name, context) VALUES('delete', old.rowid, old.name, old.context);
		END`,
		`CREATE TRIGGER items_au AFTER UPDATE ON items BEGIN
			INSERT INTO items_fts(items_fts, rowid, name, context) VALUES('delete', old.rowid, old.name, old.context);
			INSERT INTO items_fts(rowid, name, context) VALUES (new.rowid, new.name, new.context);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// Save stores doc and its annotation items, replacing any existing document
// with the same ID. Item order within each category is preserved.
func (s *Store) Save(ctx context.Context, doc *types.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document ID required")
	}
	result := doc.Result
	if result == nil {
		result = types.NewAnnotationResult()
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("deleting old items: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, file_name, pages, text_length, chunks, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			file_name=excluded.file_name, pages=excluded.pages, text_length=excluded.text_length,
			chunks=excluded.chunks, model=excluded.model, created_at=excluded.created_at`,
		doc.ID, doc.FileName, doc.Pages, doc.TextLength, doc.Chunks, doc.Model,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (document_id, kind, position, name, class, value, description, context)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	insert := func(kind types.ItemKind, pos int, name, class, value, desc, context string) error {
		if _, err := stmt.ExecContext(ctx, doc.ID, string(kind), pos, name, class, value, desc, context); err != nil {
			return fmt.Errorf("inserting %s %d: %w", kind, pos, err)
		}
		return nil
	}

	for _, group := range []struct {
		kind  types.ItemKind
		items []types.OntologyItem
	}{
		{types.KindConcept, result.Concepts},
		{types.KindEntity, result.Entities},
		{types.KindRelationship, result.Relationships},
	} {
		for i, item := range group.items {
			if err := insert(group.kind, i, item.Name, item.CategoryClass, "", item.Description, item.Context); err != nil {
				return err
			}
		}
	}
	for i, dp := range result.FinancialData {
		if err := insert(types.KindFinancialData, i, dp.Name, dp.OntologyClass, dp.Value, dp.Description, dp.Context); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get returns the document with the given ID, with its AnnotationResult
// rebuilt in stored order.
func (s *Store) Get(ctx context.Context, id string) (*types.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx, documentSelect+` WHERE d.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up document: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, name, class, value, description, context
		 FROM items WHERE document_id = ? ORDER BY kind, position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	result := types.NewAnnotationResult()
	for rows.Next() {
		var (
			kind                              string
			name                              string
			class, value, description, contxt sql.NullString
		)
		if err := rows.Scan(&kind, &name, &class, &value, &description, &contxt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item := types.OntologyItem{Name: name, CategoryClass: class.String, Description: description.String, Context: contxt.String}
		switch types.ItemKind(kind) {
		case types.KindConcept:
			result.Concepts = append(result.Concepts, item)
		case types.KindEntity:
			result.Entities = append(result.Entities, item)
		case types.KindRelationship:
			result.Relationships = append(result.Relationships, item)
		case types.KindFinancialData:
			result.FinancialData = append(result.FinancialData, types.FinancialDataPoint{
				Name: name, Value: value.String, OntologyClass: class.String,
				Description: description.String, Context: contxt.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	doc.Result = result
	return doc, nil
}

// DocumentSummary is a stored document with its item count, as listed.
type DocumentSummary struct {
	types.Document `yaml:",inline"`
	Items          int `json:"items" yaml:"items"`
}

// List returns all documents, newest first, without their results.
func (s *Store) List(ctx context.Context) ([]DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, documentSelect+` ORDER BY d.created_at DESC, d.id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentSummary
	for rows.Next() {
		var items int
		doc, err := scanDocument(rows, &items)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, DocumentSummary{Document: *doc, Items: items})
	}
	return docs, rows.Err()
}

// Delete removes a document and its items.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("deleting items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}

const documentSelect = `SELECT d.id, d.file_name, d.pages, d.text_length, d.chunks, d.model, d.created_at,
	(SELECT count(*) FROM items i WHERE i.document_id = d.id)
	FROM documents d`

type scanner interface {
	Scan(dest ...any) error
}

// scanDocument reads a documentSelect row. If items is non-nil it receives
// the item count.
func scanDocument(row scanner, items ...*int) (*types.Document, error) {
	var (
		doc       types.Document
		model     sql.NullString
		createdAt string
		count     int
	)
	if err := row.Scan(&doc.ID, &doc.FileName, &doc.Pages, &doc.TextLength, &doc.Chunks,
		&model, &createdAt, &count); err != nil {
		return nil, err
	}
	doc.Model = model.String
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		doc.CreatedAt = t
	}
	for _, p := range items {
		*p = count
	}
	return &doc, nil
}
