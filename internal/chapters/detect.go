package chapters

import (
	"fmt"
	"regexp"
	"strings"
)

// Heading shapes seen in scanned textbooks. Order matters: the more specific
// patterns come first so "Chapter 3: Title" is not swallowed by the bare
// numbered-heading pattern.
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Chapter\s+(\d+|[IVXLCDM]+)[:\s\-.]+(.+)`),
	regexp.MustCompile(`^(\d+)\.\s+([A-Z][A-Za-z\s]{3,50})`),
	regexp.MustCompile(`(?i)^CHAPTER\s+(\d+|[IVXLCDM]+)[:\s]+(.*)`),
	regexp.MustCompile(`(?i)^Unit\s+(\d+)[:\s\-.]+(.+)`),
	regexp.MustCompile(`(?i)^Part\s+(\d+|[IVXLCDM]+)[:\s\-.]+(.+)`),
}

// Dot-leader TOC lines such as "Chapter 4: Supply and Demand .... 96".
var tocPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:Chapter\s+)?(\d+)[:.\s]+(.+?)\s+\.{2,}\s*(\d+)$`),
	regexp.MustCompile(`(?i)^(?:Chapter\s+)?(\d+)[:.\s]+(.+?)\s+(\d+)$`),
}

const maxHeadingLine = 100

// Detect scans page texts for chapter headings and returns one entry per
// page with a recognized heading. Pages are 1-based in document order;
// duplicate pages and titles are skipped.
func Detect(pages []string, totalPages int) []Entry {
	var entries []Entry
	for i, text := range pages {
		pageNum := i + 1
		if pageNum > totalPages {
			break
		}
		if e, ok := detectOnPage(text, pageNum); ok && !isDuplicate(entries, e) {
			entries = append(entries, e)
		}
	}
	return entries
}

func detectOnPage(text string, pageNum int) (Entry, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxHeadingLine {
			continue
		}
		for _, pattern := range headingPatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			title := fmt.Sprintf("Chapter %s", m[1])
			if t := strings.TrimSpace(m[2]); t != "" {
				title = fmt.Sprintf("Chapter %s: %s", m[1], t)
			}
			return Entry{Title: title, StartPage: pageNum}, true
		}
	}
	return Entry{}, false
}

// FromTOC parses a table-of-contents page into chapter entries. Titles are
// cleaned of leader dots; targets outside the document are dropped.
func FromTOC(tocText string, totalPages int) []Entry {
	var entries []Entry
	for _, line := range strings.Split(tocText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, pattern := range tocPatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			title := strings.TrimSpace(strings.ReplaceAll(m[2], "..", ""))
			page := atoi(m[3])
			if page < 1 || page > totalPages || len(title) <= 2 {
				break
			}
			e := Entry{Title: fmt.Sprintf("Chapter %s: %s", m[1], title), StartPage: page}
			if !isDuplicate(entries, e) {
				entries = append(entries, e)
			}
			break
		}
	}
	return entries
}

func isDuplicate(entries []Entry, e Entry) bool {
	for _, existing := range entries {
		if existing.StartPage == e.StartPage || existing.Title == e.Title {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
