package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adurand/docchat/internal/storage"
)

func scoredPassage(filename string, page int, text string, score float64) storage.ScoredPassage {
	return storage.ScoredPassage{
		Passage: &storage.Passage{Filename: filename, Page: page, Text: text},
		Score:   score,
	}
}

func TestBuild_StructureAndOrder(t *testing.T) {
	retrieved := []storage.ScoredPassage{
		scoredPassage("alpha.pdf", 0, "best passage", 0.9),
		scoredPassage("beta.pdf", 4, "second passage", 0.7),
	}

	got := Build("What is the answer?", retrieved)

	assert.True(t, strings.HasPrefix(got, Header), "header comes first")
	assert.Contains(t, got, "SOURCE: alpha.pdf p.1\nbest passage")
	assert.Contains(t, got, "SOURCE: beta.pdf p.5\nsecond passage")
	assert.Contains(t, got, "\n\n---\n\n", "blocks are delimited")
	assert.Contains(t, got, "QUESTION:\nWhat is the answer?")
	assert.True(t, strings.HasSuffix(got, "ANSWER (with citations):"))

	// Ranking order preserved: best passage appears before the second.
	require.Less(t,
		strings.Index(got, "SOURCE: alpha.pdf"),
		strings.Index(got, "SOURCE: beta.pdf"))

	// Question comes after all context blocks.
	assert.Greater(t,
		strings.Index(got, "QUESTION:"),
		strings.Index(got, "SOURCE: beta.pdf"))
}

func TestBuild_DisplayPageIsOneBased(t *testing.T) {
	got := Build("q", []storage.ScoredPassage{scoredPassage("doc.pdf", 2, "text", 0.5)})
	assert.Contains(t, got, "p.3")
	assert.NotContains(t, got, "p.2")
}

func TestBuild_UnknownPage(t *testing.T) {
	got := Build("q", []storage.ScoredPassage{scoredPassage("doc.pdf", -1, "text", 0.5)})
	assert.Contains(t, got, "SOURCE: doc.pdf p.?")
}

func TestBuild_EmptyRetrieval(t *testing.T) {
	got := Build("anything indexed?", nil)
	assert.True(t, strings.HasPrefix(got, Header))
	assert.NotContains(t, got, "SOURCE:")
	assert.Contains(t, got, "QUESTION:\nanything indexed?")
}
