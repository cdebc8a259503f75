package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adurand/docchat/internal/rag"
	"github.com/adurand/docchat/internal/registry"
)

// makeAskHandler creates the ask tool handler. Answer flow:
// 1. Embed the question
// 2. Retrieve the top-k passages from the vector index
// 3. Build a grounded prompt and complete it
// 4. Return the answer with its ranked source list
func makeAskHandler(pipeline *rag.Pipeline) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		result, err := pipeline.Answer(ctx, input.Question)
		if err != nil {
			if errors.Is(err, rag.ErrEmptyQuestion) {
				return nil, AskOutput{}, err
			}
			return nil, AskOutput{}, fmt.Errorf("answer failed: %w", err)
		}

		sources := make([]SourceEntry, 0, len(result.Sources))
		for _, s := range result.Sources {
			sources = append(sources, SourceEntry{
				Filename:   s.Filename,
				DocID:      s.DocID,
				Page:       s.Page,
				ChunkIndex: s.ChunkIndex,
				Score:      s.Score,
				Preview:    s.Preview,
			})
		}

		out := AskOutput{Answer: result.Answer, Sources: sources}
		if len(sources) == 0 {
			out.Message = "No passages were retrieved. Ingest documents first with ingest_document."
		}
		return nil, out, nil
	}
}

// makeIngestHandler creates the ingest_document tool handler. The PDF
// arrives base64-encoded because MCP tool arguments are JSON.
func makeIngestHandler(pipeline *rag.Pipeline) func(
	context.Context, *mcp.CallToolRequest, IngestDocumentInput,
) (*mcp.CallToolResult, IngestDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestDocumentInput) (
		*mcp.CallToolResult, IngestDocumentOutput, error,
	) {
		raw, err := base64.StdEncoding.DecodeString(input.Data)
		if err != nil {
			return nil, IngestDocumentOutput{}, fmt.Errorf("data is not valid base64: %w", err)
		}

		result, err := pipeline.Ingest(ctx, raw, input.Filename)
		if err != nil {
			return nil, IngestDocumentOutput{}, fmt.Errorf("ingest failed: %w", err)
		}

		return nil, IngestDocumentOutput{
			DocID:     result.DocID,
			Filename:  result.Filename,
			Pages:     result.Pages,
			Chunks:    result.Chunks,
			SizeBytes: result.SizeBytes,
			Warning:   result.Warning,
		}, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(pipeline *rag.Pipeline) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		docs, err := pipeline.ListDocuments(ctx)
		if err != nil {
			return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		entries := make([]DocumentEntry, 0, len(docs))
		for _, doc := range docs {
			entries = append(entries, documentEntry(doc))
		}
		return nil, ListDocumentsOutput{Documents: entries, Count: len(entries)}, nil
	}
}

// makeGetHandler creates the get_document tool handler. A missing
// document is reported with Found false rather than a tool error.
func makeGetHandler(pipeline *rag.Pipeline) func(
	context.Context, *mcp.CallToolRequest, GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetDocumentInput) (
		*mcp.CallToolResult, GetDocumentOutput, error,
	) {
		detail, err := pipeline.GetDocument(ctx, input.DocID)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				return nil, GetDocumentOutput{Found: false}, nil
			}
			return nil, GetDocumentOutput{}, fmt.Errorf("failed to get document: %w", err)
		}

		out := GetDocumentOutput{
			ChunksFound: detail.Chunks.ChunksFound,
			UniquePages: detail.Chunks.UniquePages,
			Found:       true,
		}
		if out.UniquePages == nil {
			out.UniquePages = []int{}
		}
		if detail.Document != nil {
			entry := documentEntry(detail.Document)
			out.Document = &entry
		}
		out.Samples = make([]ChunkEntry, 0, len(detail.Chunks.Samples))
		for _, sample := range detail.Chunks.Samples {
			out.Samples = append(out.Samples, ChunkEntry{
				ChunkIndex: sample.ChunkIndex,
				Page:       sample.Page,
				Preview:    sample.Preview,
			})
		}
		return nil, out, nil
	}
}

func documentEntry(doc *registry.Document) DocumentEntry {
	return DocumentEntry{
		DocID:      doc.DocID,
		Filename:   doc.Filename,
		SizeBytes:  doc.SizeBytes,
		PageCount:  doc.PageCount,
		ChunkCount: doc.ChunkCount,
		IngestedAt: doc.IngestedAt,
	}
}
