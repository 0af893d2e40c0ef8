// Package chapters derives the navigable chapter list for a loaded book,
// either from a configured chapter table, from headings found in the page
// text, or from an equal page-range partition.
package chapters

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// TableEntry is one row of a configured chapter table. Rows must arrive
// sorted by ascending StartPage.
type TableEntry struct {
	Chapter   int    `yaml:"chapter" json:"chapter"`
	Title     string `yaml:"title" json:"title"`
	StartPage int    `yaml:"start_page" json:"start_page"`
	EndPage   int    `yaml:"end_page" json:"end_page"`
}

// Entry is a named page-range marker used for navigation and highlighting.
type Entry struct {
	Title     string `json:"title"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page,omitempty"`
}

const fallbackRanges = 10

// Build assembles the chapter list for a document of totalPages pages.
// Configured rows whose start page lies beyond the document are dropped;
// when the table contributes nothing, the book is partitioned into equal
// page ranges instead. A totalPages below 1 yields no chapters.
func Build(totalPages int, table []TableEntry) []Entry {
	if totalPages < 1 {
		return nil
	}
	entries := fromTable(totalPages, table)
	if len(entries) <= 1 {
		return pageRanges(totalPages)
	}
	return entries
}

// Locate is Build plus text scanning: when the configured table contributes
// nothing, the first pages are checked for a table of contents, then for
// chapter headings, before falling back to page ranges.
func Locate(totalPages int, table []TableEntry, pages []string) []Entry {
	if totalPages < 1 {
		return nil
	}
	entries := fromTable(totalPages, table)
	if len(entries) > 1 {
		return entries
	}
	if toc := scanTOC(pages, totalPages); len(toc) > 0 {
		return append(entries, toc...)
	}
	if detected := Detect(pages, totalPages); len(detected) > 0 {
		return append(entries, detected...)
	}
	return pageRanges(totalPages)
}

// A page must yield at least this many TOC lines before it is trusted as a
// table of contents; the loose line patterns misfire on ordinary prose.
const minTOCEntries = 3

// scanTOC looks through the leading pages for a table of contents and
// returns its entries.
func scanTOC(pages []string, totalPages int) []Entry {
	for _, text := range pages {
		if toc := FromTOC(text, totalPages); len(toc) >= minTOCEntries {
			return toc
		}
	}
	return nil
}

func fromTable(totalPages int, table []TableEntry) []Entry {
	entries := []Entry{{Title: "Title Page", StartPage: 1}}
	for _, row := range table {
		if row.StartPage > totalPages {
			continue
		}
		entries = append(entries, Entry{
			Title:     fmt.Sprintf("Chapter %d: %s", row.Chapter, row.Title),
			StartPage: row.StartPage,
			EndPage:   row.EndPage,
		})
	}
	return entries
}

func pageRanges(totalPages int) []Entry {
	per := (totalPages + fallbackRanges - 1) / fallbackRanges
	var entries []Entry
	for start := 1; start <= totalPages; start += per {
		end := start + per - 1
		if end > totalPages {
			end = totalPages
		}
		entries = append(entries, Entry{
			Title:     fmt.Sprintf("Pages %d-%d", start, end),
			StartPage: start,
			EndPage:   end,
		})
	}
	return entries
}

// ActiveIndex returns the index of the chapter containing page: the last
// entry whose StartPage does not exceed it, or -1 when none matches.
func ActiveIndex(entries []Entry, page int) int {
	active := -1
	for i, e := range entries {
		if page >= e.StartPage {
			active = i
		}
	}
	return active
}

// LoadTable reads a YAML chapter table.
func LoadTable(r io.Reader) ([]TableEntry, error) {
	var table []TableEntry
	if err := yaml.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("decode chapter table: %w", err)
	}
	return table, nil
}

// LoadTableFile reads a chapter table YAML file from disk.
func LoadTableFile(path string) ([]TableEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chapter table: %w", err)
	}
	defer f.Close()
	return LoadTable(f)
}
