// Package prompt assembles the grounded prompt sent to the generator.
package prompt

import (
	"fmt"
	"strings"

	"github.com/adurand/docchat/internal/storage"
)

// Header is the fixed instruction block. It constrains the generator to
// the supplied context, asks it to state insufficiency explicitly, and
// fixes the citation format.
const Header = `You are a helpful assistant.
You must answer ONLY from the provided CONTEXT.
If the context does not contain the answer, say clearly that you do not know from the documents.
Always cite sources as [filename p.X] for each important piece of information.`

// sourceDelimiter separates passage blocks inside the context section.
const sourceDelimiter = "\n\n---\n\n"

// Build produces the full prompt text: the instruction header, one
// labeled SOURCE block per retrieved passage in ranking order, best
// first, then the question.
func Build(question string, retrieved []storage.ScoredPassage) string {
	blocks := make([]string, 0, len(retrieved))
	for _, r := range retrieved {
		p := r.Passage
		pageLabel := "p.?"
		if p.Page >= 0 {
			// The only place an internal 0-based page becomes 1-based
			// inside the prompt.
			pageLabel = fmt.Sprintf("p.%d", p.Page+1)
		}
		blocks = append(blocks, fmt.Sprintf("SOURCE: %s %s\n%s", p.Filename, pageLabel, p.Text))
	}

	return fmt.Sprintf(`%s

CONTEXT:
%s

QUESTION:
%s

ANSWER (with citations):`, Header, strings.Join(blocks, sourceDelimiter), question)
}
