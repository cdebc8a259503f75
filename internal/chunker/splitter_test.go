package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adurand/docchat/internal/pdf"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr error
	}{
		{"defaults", DefaultChunkSize, DefaultChunkOverlap, nil},
		{"zero size", 0, 0, ErrInvalidChunkSize},
		{"negative size", -1, 0, ErrInvalidChunkSize},
		{"negative overlap", 100, -1, ErrInvalidOverlap},
		{"overlap equals size", 100, 100, ErrInvalidOverlap},
		{"overlap exceeds size", 100, 150, ErrInvalidOverlap},
		{"zero overlap ok", 100, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplit_SmallPageSingleCandidate(t *testing.T) {
	s, err := New(1200, 200)
	require.NoError(t, err)

	candidates := s.Split([]pdf.Page{{Number: 0, Text: "A short page."}})
	require.Len(t, candidates, 1)
	assert.Equal(t, 0, candidates[0].Page)
	assert.Equal(t, "A short page.", candidates[0].Text)
}

func TestSplit_SizeBound(t *testing.T) {
	s, err := New(100, 20)
	require.NoError(t, err)

	text := strings.Repeat("lorem ipsum dolor sit amet ", 50)
	candidates := s.Split([]pdf.Page{{Number: 0, Text: text}})
	require.NotEmpty(t, candidates)
	for i, c := range candidates {
		assert.LessOrEqual(t, len([]rune(c.Text)), 100, "candidate %d exceeds chunk size", i)
		assert.NotEmpty(t, c.Text)
	}
}

// Exact overlap is guaranteed when no separator boundary forces a shorter
// one, i.e. on the hard character cut path.
func TestSplit_ExactOverlapWithoutSeparators(t *testing.T) {
	s, err := New(100, 20)
	require.NoError(t, err)

	text := strings.Repeat("abcdefghij", 35) // 350 chars, no separators
	candidates := s.Split([]pdf.Page{{Number: 0, Text: text}})
	require.Greater(t, len(candidates), 1)

	for i := 0; i+1 < len(candidates); i++ {
		tail := []rune(candidates[i].Text)
		head := []rune(candidates[i+1].Text)
		require.GreaterOrEqual(t, len(tail), 20)
		require.GreaterOrEqual(t, len(head), 20)
		assert.Equal(t, string(tail[len(tail)-20:]), string(head[:20]),
			"chunks %d and %d do not share the overlap", i, i+1)
	}
}

// Concatenating chunks with the overlap removed reconstructs the page text.
func TestSplit_RoundTripCoverage(t *testing.T) {
	s, err := New(100, 20)
	require.NoError(t, err)

	text := strings.Repeat("0123456789", 50) // separator-free, exact windows
	candidates := s.Split([]pdf.Page{{Number: 0, Text: text}})
	require.NotEmpty(t, candidates)

	var rebuilt strings.Builder
	rebuilt.WriteString(candidates[0].Text)
	for _, c := range candidates[1:] {
		rebuilt.WriteString(string([]rune(c.Text)[20:]))
	}
	assert.Equal(t, text, rebuilt.String())
}

// Every word of the input must appear in some chunk, even when paragraph
// and space separators drive the split.
func TestSplit_CoverageWithSeparators(t *testing.T) {
	s, err := New(80, 10)
	require.NoError(t, err)

	text := "first paragraph with a handful of words\n\nsecond paragraph follows here\n\nthird one closes the page"
	candidates := s.Split([]pdf.Page{{Number: 0, Text: text}})
	require.NotEmpty(t, candidates)

	joined := " "
	for _, c := range candidates {
		joined += c.Text + " "
	}
	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, word)
	}
}

func TestSplit_PagesSplitIndependently(t *testing.T) {
	s, err := New(50, 10)
	require.NoError(t, err)

	pages := []pdf.Page{
		{Number: 0, Text: strings.Repeat("page zero text ", 10)},
		{Number: 1, Text: "short"},
		{Number: 2, Text: strings.Repeat("page two text ", 10)},
	}
	candidates := s.Split(pages)
	require.NotEmpty(t, candidates)

	// Candidates arrive in page order and each carries its own page.
	lastPage := -1
	seen := map[int]bool{}
	for _, c := range candidates {
		assert.GreaterOrEqual(t, c.Page, lastPage)
		lastPage = c.Page
		seen[c.Page] = true
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, seen)
}

func TestSplit_SkipsEmptyPages(t *testing.T) {
	s, err := New(100, 20)
	require.NoError(t, err)

	candidates := s.Split([]pdf.Page{
		{Number: 0, Text: "   \n\n  "},
		{Number: 1, Text: "content"},
	})
	require.Len(t, candidates, 1)
	assert.Equal(t, 1, candidates[0].Page)
}

func TestSplit_PrefersParagraphBreaks(t *testing.T) {
	s, err := New(20, 5)
	require.NoError(t, err)

	text := "alpha beta gamma\n\ndelta epsilon zeta"
	candidates := s.Split([]pdf.Page{{Number: 0, Text: text}})
	require.Len(t, candidates, 2)
	assert.Equal(t, "alpha beta gamma", candidates[0].Text)
	assert.Equal(t, "delta epsilon zeta", candidates[1].Text)
}
