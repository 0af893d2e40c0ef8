// Package book loads uploaded documents into a paged form the reader can
// display. Parsing is delegated to format libraries; this package only
// arranges their output into pages of positioned text nodes.
package book

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// TextNode is one renderable line of text on a page, in document order.
type TextNode struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Page holds the extracted text for a single 1-based page.
type Page struct {
	Number int
	Text   string
	Nodes  []TextNode
}

// Book is a fully loaded document ready for page display.
type Book struct {
	Title string
	Pages []Page
}

// TotalPages reports the page count.
func (b *Book) TotalPages() int { return len(b.Pages) }

// Page returns the 1-based page n.
func (b *Book) Page(n int) (*Page, error) {
	if n < 1 || n > len(b.Pages) {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, len(b.Pages))
	}
	return &b.Pages[n-1], nil
}

// Loader converts raw document bytes into a paged Book.
type Loader interface {
	Load(r io.Reader, filename string) (*Book, error)
}

// SupportedExtensions lists file extensions this service can display.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFLoader{FallbackPdftotext: true}, nil
	case ".txt":
		return &TextLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// makePage builds a page from raw text, one node per non-empty line.
func makePage(number int, text string) Page {
	p := Page{Number: number, Text: text}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.Nodes = append(p.Nodes, TextNode{Index: len(p.Nodes), Text: line})
	}
	return p
}
