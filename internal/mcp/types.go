// Package mcp exposes the document question-answering pipeline as MCP
// tools over stdio or HTTP.
package mcp

import "time"

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Question is the natural-language question to answer.
	Question string `json:"question" jsonschema:"required,description=The question to answer from the ingested documents"`
}

// AskOutput contains the generated answer and its sources.
type AskOutput struct {
	// Answer is the generated answer with inline citations.
	Answer string `json:"answer"`
	// Sources lists the passages the answer is grounded in, best first.
	Sources []SourceEntry `json:"sources"`
	// Message provides informational context (e.g. no documents indexed).
	Message string `json:"message,omitempty"`
}

// SourceEntry is one citation of an answer.
type SourceEntry struct {
	// Filename is the original upload name.
	Filename string `json:"filename"`
	// DocID identifies the source document.
	DocID string `json:"doc_id"`
	// Page is the 1-based page number, 0 when unknown.
	Page int `json:"page"`
	// ChunkIndex is the position of the passage within its document.
	ChunkIndex int `json:"chunk_index"`
	// Score is the similarity score, higher is better.
	Score float64 `json:"score"`
	// Preview is a bounded excerpt of the passage text.
	Preview string `json:"preview"`
}

// IngestDocumentInput defines the input parameters for the
// ingest_document tool.
type IngestDocumentInput struct {
	// Filename is the document name, must end in .pdf.
	Filename string `json:"filename" jsonschema:"required,description=Name of the PDF file being ingested"`
	// Data is the base64-encoded PDF bytes.
	Data string `json:"data" jsonschema:"required,description=Base64-encoded PDF content"`
}

// IngestDocumentOutput reports one ingestion.
type IngestDocumentOutput struct {
	DocID     string `json:"doc_id"`
	Filename  string `json:"filename"`
	Pages     int    `json:"pages"`
	Chunks    int    `json:"chunks"`
	SizeBytes int64  `json:"size_bytes"`
	// Warning is set when the document was indexed but the registry
	// entry could not be written.
	Warning string `json:"warning,omitempty"`
}

// ListDocumentsInput takes no parameters.
type ListDocumentsInput struct{}

// ListDocumentsOutput contains all registered documents, newest first.
type ListDocumentsOutput struct {
	Documents []DocumentEntry `json:"documents"`
	Count     int             `json:"count"`
}

// DocumentEntry is one registry row.
type DocumentEntry struct {
	DocID      string    `json:"doc_id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	PageCount  int       `json:"page_count"`
	ChunkCount int       `json:"chunk_count"`
	IngestedAt time.Time `json:"ingested_at"`
}

// GetDocumentInput defines the input parameters for the get_document
// tool.
type GetDocumentInput struct {
	// DocID is the document identifier returned by ingest_document.
	DocID string `json:"doc_id" jsonschema:"required,description=The document identifier"`
}

// GetDocumentOutput combines the registry entry with the indexed chunk
// summary. Document is omitted when only chunk data exists.
type GetDocumentOutput struct {
	Document    *DocumentEntry `json:"document,omitempty"`
	ChunksFound int            `json:"chunks_found"`
	UniquePages []int          `json:"unique_pages"`
	Samples     []ChunkEntry   `json:"samples"`
	Found       bool           `json:"found"`
}

// ChunkEntry is a bounded preview of one indexed passage.
type ChunkEntry struct {
	ChunkIndex int    `json:"chunk_index"`
	Page       int    `json:"page"`
	Preview    string `json:"preview"`
}
