package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_InvalidBytes(t *testing.T) {
	pages, err := Extract([]byte("this is not a pdf"))
	assert.Error(t, err)
	assert.Nil(t, pages)
}

func TestExtract_Empty(t *testing.T) {
	pages, err := Extract(nil)
	assert.Error(t, err)
	assert.Nil(t, pages)
}

func TestExtract_TruncatedHeader(t *testing.T) {
	// A bare header with no xref table must not panic through to the caller.
	pages, err := Extract([]byte("%PDF-1.4\n"))
	assert.Error(t, err)
	assert.Nil(t, pages)
}
