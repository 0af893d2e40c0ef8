// Package annotate marks vocabulary terms in rendered page text. Each term
// is highlighted at most once per reading session, on the first node that
// matches it in document order.
package annotate

import (
	"sort"
	"strings"

	"github.com/tmarden/textbookd/internal/book"
)

// Mark records a vocabulary hit on a single text node.
type Mark struct {
	NodeIndex  int    `json:"node_index"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Terms returns the index keys in scan order: longest first so multi-word
// terms beat their embedded substrings, ties broken lexicographically to
// keep the result deterministic.
func Terms(index map[string]string) []string {
	terms := make([]string, 0, len(index))
	for t := range index {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	return terms
}

// Annotate scans page nodes against the vocabulary index and returns marks
// for first occurrences. defined is the session-wide set of already
// highlighted terms; it is mutated as marks are produced, so re-annotating
// the same nodes yields nothing new.
//
// A node matches a term when its trimmed lower-cased text equals the term
// or contains it as a substring. The substring rule can catch a term inside
// an unrelated longer phrase; that imprecision is intentional and matches
// how the reader highlights scanned-page text layers.
func Annotate(nodes []book.TextNode, index map[string]string, defined map[string]bool) []Mark {
	terms := Terms(index)

	var marks []Mark
	for _, node := range nodes {
		text := strings.ToLower(strings.TrimSpace(node.Text))
		if text == "" {
			continue
		}
		for _, term := range terms {
			if text != term && !strings.Contains(text, term) {
				continue
			}
			if defined[term] {
				continue
			}
			defined[term] = true
			marks = append(marks, Mark{
				NodeIndex:  node.Index,
				Term:       term,
				Definition: index[term],
			})
			break
		}
	}
	return marks
}
