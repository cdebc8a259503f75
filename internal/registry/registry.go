// Package registry keeps the durable mapping from document id to
// ingestion metadata, independent of the vector index.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when no document exists for the given id.
var ErrNotFound = errors.New("document not found")

// Document is one registry entry. Entries are written once per successful
// ingestion and immutable afterwards.
type Document struct {
	DocID      string
	Filename   string
	StoredPath string
	SizeBytes  int64
	PageCount  int
	ChunkCount int
	IngestedAt time.Time
}

// Registry is a SQLite-backed document registry keyed on doc_id.
type Registry struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	doc_id      TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	stored_path TEXT NOT NULL,
	size_bytes  INTEGER NOT NULL,
	page_count  INTEGER NOT NULL,
	chunk_count INTEGER NOT NULL,
	ingested_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_ingested_at ON documents(ingested_at);
`

// Open creates or opens the registry database under dataDir.
func Open(dataDir string) (*Registry, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "registry.db")

	// WAL mode for concurrent readers during ingestion writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Registry{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Registry) Path() string {
	return r.path
}

// Record writes one document entry. Called only after the document's
// passages are durably indexed, so a registry entry always implies
// queryable chunks.
func (r *Registry) Record(ctx context.Context, doc *Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (doc_id, filename, stored_path, size_bytes, page_count, chunk_count, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.DocID,
		doc.Filename,
		doc.StoredPath,
		doc.SizeBytes,
		doc.PageCount,
		doc.ChunkCount,
		doc.IngestedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording document %s: %w", doc.DocID, err)
	}
	return nil
}

// List returns all documents ordered by ingestion time, newest first.
func (r *Registry) List(ctx context.Context) ([]*Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT doc_id, filename, stored_path, size_bytes, page_count, chunk_count, ingested_at
		FROM documents
		ORDER BY ingested_at DESC, doc_id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

// Get returns the document with the given id, or ErrNotFound.
func (r *Registry) Get(ctx context.Context, docID string) (*Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT doc_id, filename, stored_path, size_bytes, page_count, chunk_count, ingested_at
		FROM documents
		WHERE doc_id = ?`, docID)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var ingestedAt string
	err := row.Scan(
		&doc.DocID,
		&doc.Filename,
		&doc.StoredPath,
		&doc.SizeBytes,
		&doc.PageCount,
		&doc.ChunkCount,
		&ingestedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.IngestedAt, err = time.Parse(time.RFC3339, ingestedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing ingested_at for %s: %w", doc.DocID, err)
	}
	return &doc, nil
}
