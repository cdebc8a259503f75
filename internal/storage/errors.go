package storage

import "errors"

var (
	ErrUnreachable       = errors.New("vector index unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
