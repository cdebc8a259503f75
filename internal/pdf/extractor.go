// Package pdf extracts per-page plain text from PDF documents.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText indicates the document parsed but contained no extractable text.
var ErrNoText = errors.New("no extractable text in document")

// Page holds the extracted text of a single page.
// Number is 0-based; display code is responsible for the +1.
type Page struct {
	Number int
	Text   string
}

// Extract parses raw PDF bytes and returns one Page per document page,
// in document order. Pages that yield no text are kept (empty Text) so
// page numbering stays aligned with the source document.
func Extract(data []byte) (pages []Page, err error) {
	// The underlying parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages = make([]Page, 0, numPages)
	hasText := false

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			extracted, err := page.GetPlainText(nil)
			if err == nil {
				text = strings.TrimSpace(extracted)
			}
			// Extraction errors on individual pages degrade to an empty
			// page rather than failing the whole document.
		}
		if text != "" {
			hasText = true
		}
		pages = append(pages, Page{Number: i - 1, Text: text})
	}

	if !hasText {
		return nil, ErrNoText
	}
	return pages, nil
}
