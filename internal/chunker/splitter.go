// Package chunker splits extracted document text into bounded, overlapping
// passages suitable for embedding and retrieval.
package chunker

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/adurand/docchat/internal/pdf"
)

// Recognised configuration defaults. Sizes are in characters.
const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200
)

var (
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	ErrInvalidOverlap   = errors.New("chunk overlap must be non-negative and strictly less than chunk size")
)

// Candidate is a passage cut from a document, before provenance metadata
// is attached. Page is 0-based.
type Candidate struct {
	Page int
	Text string
}

// Splitter cuts text into chunks of at most chunkSize characters with
// chunkOverlap characters repeated between consecutive chunks.
//
// Splitting is recursive over a priority list of separators: paragraph
// breaks first, then line breaks, then spaces, then a hard character cut
// as the last resort. Each page is split independently, so a candidate
// never spans a page boundary and always carries the page it was cut from.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New validates the configuration and returns a Splitter.
// It fails fast when the overlap is not strictly less than the chunk size.
func New(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, ErrInvalidOverlap
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   []string{"\n\n", "\n", " ", ""},
	}, nil
}

// ChunkSize returns the configured maximum passage length in characters.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// ChunkOverlap returns the configured overlap in characters.
func (s *Splitter) ChunkOverlap() int { return s.chunkOverlap }

// Split cuts every page into candidates, emitted in page order then cut
// order. Pages without text produce no candidates.
func (s *Splitter) Split(pages []pdf.Page) []Candidate {
	var out []Candidate
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for _, text := range s.splitText(page.Text, s.separators) {
			out = append(out, Candidate{Page: page.Number, Text: text})
		}
	}
	return out
}

// splitText splits text using the first separator from separators that
// occurs in it, recursively re-splitting oversized parts with the
// remaining separators, then merges adjacent parts back into chunks of at
// most chunkSize characters.
func (s *Splitter) splitText(text string, separators []string) []string {
	if runeLen(text) <= s.chunkSize {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}

	separator := ""
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}
	if separator == "" {
		// No usable separator left: hard cut on characters.
		return s.hardSplit(text)
	}

	var final []string
	var pending []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) <= s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			final = append(final, s.merge(pending)...)
			pending = nil
		}
		final = append(final, s.splitText(piece, rest)...)
	}
	if len(pending) > 0 {
		final = append(final, s.merge(pending)...)
	}
	return final
}

// merge greedily joins adjacent pieces into chunks of at most chunkSize
// characters. When a chunk is emitted, pieces are dropped from the front
// of the window until at most chunkOverlap characters remain, so
// consecutive chunks share up to chunkOverlap trailing characters.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var window []string
	total := 0

	emit := func() {
		if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		length := runeLen(piece)
		if total+length > s.chunkSize && len(window) > 0 {
			emit()
			for total > s.chunkOverlap || (total+length > s.chunkSize && total > 0) {
				total -= runeLen(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += length
	}
	emit()
	return chunks
}

// hardSplit cuts text into windows of chunkSize characters stepping by
// chunkSize-chunkOverlap, giving an exact character overlap.
func (s *Splitter) hardSplit(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.chunkOverlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := min(start+s.chunkSize, len(runes))
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// splitKeepingSeparator splits text on sep, re-attaching the separator to
// the preceding part so that concatenating the parts reproduces text.
func splitKeepingSeparator(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
