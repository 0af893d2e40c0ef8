package book

import (
	"strings"
	"testing"
)

func TestForFile(t *testing.T) {
	cases := []struct {
		filename string
		wantErr  bool
	}{
		{"book.pdf", false},
		{"notes.txt", false},
		{"guide.md", false},
		{"guide.markdown", false},
		{"page.html", false},
		{"page.HTM", false},
		{"paper.docx", false},
		{"data.csv", true},
		{"archive.zip", true},
		{"noextension", true},
	}

	for _, tc := range cases {
		t.Run(tc.filename, func(t *testing.T) {
			_, err := ForFile(tc.filename)
			if (err != nil) != tc.wantErr {
				t.Errorf("ForFile(%q) error = %v, wantErr %v", tc.filename, err, tc.wantErr)
			}
			if got := IsSupportedExtension(tc.filename); got == tc.wantErr {
				t.Errorf("IsSupportedExtension(%q) = %v", tc.filename, got)
			}
		})
	}
}

func TestTextLoader_Paginates(t *testing.T) {
	// ~50 words per paragraph, 20 paragraphs = ~1000 words, at 400 words per
	// page that is 3 pages.
	para := strings.Repeat("word ", 50)
	src := strings.Repeat(para+"\n\n", 20)

	b, err := (&TextLoader{}).Load(strings.NewReader(src), "notes.txt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if b.Title != "notes" {
		t.Errorf("title = %q, want notes", b.Title)
	}
	if b.TotalPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", b.TotalPages())
	}

	page, err := b.Page(1)
	if err != nil {
		t.Fatalf("Page(1): %v", err)
	}
	if page.Number != 1 || len(page.Nodes) == 0 {
		t.Errorf("page 1 = number %d with %d nodes", page.Number, len(page.Nodes))
	}
}

func TestBook_PageOutOfRange(t *testing.T) {
	b := paginate("t", []string{"some text"})
	for _, n := range []int{0, -1, 2} {
		if _, err := b.Page(n); err == nil {
			t.Errorf("Page(%d): expected error", n)
		}
	}
}

func TestMarkdownLoader_HeadingsAtLineStart(t *testing.T) {
	src := "# Chapter 1: Supply\n\nSupply is the quantity producers offer.\n\n## Details\n\nMore text here.\n"

	b, err := (&MarkdownLoader{}).Load(strings.NewReader(src), "econ.md")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.TotalPages() != 1 {
		t.Fatalf("expected 1 page, got %d", b.TotalPages())
	}

	page := b.Pages[0]
	if len(page.Nodes) == 0 {
		t.Fatal("expected text nodes")
	}
	if page.Nodes[0].Text != "Chapter 1: Supply" {
		t.Errorf("first node = %q, want heading text at line start", page.Nodes[0].Text)
	}
}

func TestHTMLLoader_ExtractsContent(t *testing.T) {
	src := `<html><head><title>Econ Basics</title><style>p{}</style></head>
<body><nav>skip me</nav><h1>Chapter 1: Markets</h1><p>Buyers meet sellers.</p>
<script>skip();</script></body></html>`

	b, err := (&HTMLLoader{}).Load(strings.NewReader(src), "page.html")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if b.Title != "Econ Basics" {
		t.Errorf("title = %q, want Econ Basics", b.Title)
	}
	if b.TotalPages() != 1 {
		t.Fatalf("expected 1 page, got %d", b.TotalPages())
	}
	text := b.Pages[0].Text
	if !strings.Contains(text, "Chapter 1: Markets") || !strings.Contains(text, "Buyers meet sellers.") {
		t.Errorf("page text missing content: %q", text)
	}
	if strings.Contains(text, "skip") {
		t.Errorf("page text contains skipped elements: %q", text)
	}
}

func TestMakePage_NodeIndexing(t *testing.T) {
	page := makePage(3, "first line\n\n  \nsecond line\nthird line")

	if page.Number != 3 {
		t.Errorf("number = %d, want 3", page.Number)
	}
	if len(page.Nodes) != 3 {
		t.Fatalf("expected 3 nodes (blank lines skipped), got %d", len(page.Nodes))
	}
	for i, node := range page.Nodes {
		if node.Index != i {
			t.Errorf("node %d has index %d", i, node.Index)
		}
	}
	if page.Nodes[1].Text != "second line" {
		t.Errorf("nodes[1] = %q", page.Nodes[1].Text)
	}
}
