package chapters

import (
	"fmt"
	"testing"
)

func TestBuild_TableRowsFormattedAndFiltered(t *testing.T) {
	table := []TableEntry{
		{Chapter: 1, Title: "Ten Principles of Economics", StartPage: 36, EndPage: 51},
		{Chapter: 2, Title: "Thinking Like an Economist", StartPage: 52, EndPage: 79},
		{Chapter: 3, Title: "Interdependence", StartPage: 80, EndPage: 95},
	}

	entries := Build(60, table)

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (title page + 2 in-range chapters), got %d", len(entries))
	}
	if entries[0].Title != "Title Page" || entries[0].StartPage != 1 {
		t.Errorf("entries[0] = %+v, want synthetic title page at page 1", entries[0])
	}
	if entries[1].Title != "Chapter 1: Ten Principles of Economics" {
		t.Errorf("entries[1].Title = %q", entries[1].Title)
	}
	if entries[2].StartPage != 52 || entries[2].EndPage != 79 {
		t.Errorf("entries[2] range = %d-%d, want 52-79", entries[2].StartPage, entries[2].EndPage)
	}
}

func TestBuild_AllRowsOutOfRangeFallsBack(t *testing.T) {
	table := []TableEntry{
		{Chapter: 1, Title: "Later", StartPage: 100, EndPage: 120},
	}

	entries := Build(38, table)

	if len(entries) != 10 {
		t.Fatalf("expected 10 fallback ranges, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Title == "Title Page" {
			t.Error("fallback list must not contain the synthetic title page")
		}
	}
}

func TestBuild_FallbackPartition38Pages(t *testing.T) {
	entries := Build(38, nil)

	if len(entries) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(entries))
	}
	if entries[0].Title != "Pages 1-4" || entries[0].StartPage != 1 {
		t.Errorf("entries[0] = %+v, want {Pages 1-4, 1}", entries[0])
	}
	last := entries[len(entries)-1]
	if last.EndPage != 38 {
		t.Errorf("last range ends at %d, want 38", last.EndPage)
	}

	// No gaps, no overlaps.
	next := 1
	for i, e := range entries {
		if e.StartPage != next {
			t.Errorf("entry %d starts at %d, want %d", i, e.StartPage, next)
		}
		next = e.EndPage + 1
	}
	if next != 39 {
		t.Errorf("partition covers up to %d, want 38", next-1)
	}
}

func TestBuild_FallbackCoversArbitrarySizes(t *testing.T) {
	for _, totalPages := range []int{1, 5, 10, 11, 99, 100, 1000} {
		t.Run(fmt.Sprintf("pages=%d", totalPages), func(t *testing.T) {
			entries := Build(totalPages, nil)
			if len(entries) == 0 {
				t.Fatal("expected at least one range")
			}
			next := 1
			for i, e := range entries {
				if e.StartPage != next {
					t.Fatalf("entry %d starts at %d, want %d", i, e.StartPage, next)
				}
				next = e.EndPage + 1
			}
			if next-1 != totalPages {
				t.Fatalf("partition covers up to %d, want %d", next-1, totalPages)
			}
		})
	}
}

func TestBuild_NoPages(t *testing.T) {
	for _, totalPages := range []int{0, -1} {
		if entries := Build(totalPages, DefaultTable()); len(entries) != 0 {
			t.Errorf("Build(%d) = %d entries, want none", totalPages, len(entries))
		}
	}
}

func TestActiveIndex_ExactlyOneActivePerPage(t *testing.T) {
	cases := []struct {
		name    string
		entries []Entry
		total   int
	}{
		{"fallback", Build(38, nil), 38},
		{"table", Build(870, DefaultTable()), 870},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for page := 1; page <= tc.total; page++ {
				active := ActiveIndex(tc.entries, page)
				if active < 0 || active >= len(tc.entries) {
					t.Fatalf("page %d: active index %d out of range", page, active)
				}
				// Containment: page is at or after the active entry's start
				// and before the next entry's start.
				e := tc.entries[active]
				if page < e.StartPage {
					t.Fatalf("page %d: active entry starts later at %d", page, e.StartPage)
				}
				if active+1 < len(tc.entries) && page >= tc.entries[active+1].StartPage {
					t.Fatalf("page %d: next entry already started", page)
				}
			}
		})
	}
}

func TestActiveIndex_NoMatch(t *testing.T) {
	entries := []Entry{{Title: "Chapter 1: Later", StartPage: 10}}
	if got := ActiveIndex(entries, 5); got != -1 {
		t.Errorf("ActiveIndex before first start page = %d, want -1", got)
	}
}

func TestDefaultTable_SortedByStartPage(t *testing.T) {
	table := DefaultTable()
	if len(table) != 38 {
		t.Fatalf("expected 38 chapters, got %d", len(table))
	}
	for i := 1; i < len(table); i++ {
		if table[i].StartPage <= table[i-1].StartPage {
			t.Errorf("chapter %d start page %d not after chapter %d start page %d",
				table[i].Chapter, table[i].StartPage, table[i-1].Chapter, table[i-1].StartPage)
		}
	}
}
