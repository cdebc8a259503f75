package rag

import "errors"

// Validation errors, rejected before any I/O.
var (
	ErrEmptyQuestion       = errors.New("question is empty")
	ErrEmptyFilename       = errors.New("filename is empty")
	ErrUnsupportedFileType = errors.New("unsupported file type, only .pdf is accepted")
	ErrEmptyDocument       = errors.New("document contains no ingestable content")
)
