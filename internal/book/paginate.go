package book

import "strings"

// Formats without native pagination (text, markdown, html, docx) are split
// into fixed-size pages so navigation, bookmarks, and chapter ranges behave
// the same as for PDFs.
const wordsPerPage = 400

// paginate distributes text blocks across pages, closing a page once it
// reaches the word budget. A block is never split across pages.
func paginate(title string, blocks []string) *Book {
	b := &Book{Title: title}

	var current []string
	words := 0
	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(current, "\n\n")
		b.Pages = append(b.Pages, makePage(len(b.Pages)+1, text))
		current = current[:0]
		words = 0
	}

	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		current = append(current, block)
		words += len(strings.Fields(block))
		if words >= wordsPerPage {
			flush()
		}
	}
	flush()

	return b
}
