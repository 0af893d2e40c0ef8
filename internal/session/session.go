// Package session owns the mutable state of one reading session: current
// page, bookmark, chapter list, cached page text, and the set of vocabulary
// terms already highlighted. All mutation goes through the session mutex, so
// concurrent page displays and assistant calls see a single-writer record.
package session

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/tmarden/textbookd/internal/annotate"
	"github.com/tmarden/textbookd/internal/book"
	"github.com/tmarden/textbookd/internal/chapters"
	"github.com/tmarden/textbookd/internal/kvstore"
)

// BookmarkKey is the persisted-store key holding the bookmarked page.
const BookmarkKey = "textbookBookmark"

// Chapter detection reads at most this many leading pages.
const detectScanPages = 50

// Session is one loaded document and its reader state.
type Session struct {
	mu sync.Mutex

	id    string
	store *kvstore.Store

	book           *book.Book
	totalPages     int
	currentPage    int
	bookmarkedPage int // 0 = no bookmark
	chapterList    []chapters.Entry
	pageText       map[int]string
	defined        map[string]bool

	createdAt time.Time
	updatedAt time.Time
}

// New creates an empty session. store may be nil, in which case bookmarks
// are session-local only.
func New(id string, store *kvstore.Store) *Session {
	now := time.Now()
	return &Session{
		id:        id,
		store:     store,
		pageText:  make(map[int]string),
		defined:   make(map[string]bool),
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// LoadDocument replaces the session's document. Page text cache, highlighted
// terms, and the chapter list are rebuilt; the current page resets to 1
// unless a valid persisted bookmark points elsewhere.
func (s *Session) LoadDocument(b *book.Book, table []chapters.TableEntry) error {
	if b == nil || b.TotalPages() < 1 {
		return fmt.Errorf("document has no pages")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.book = b
	s.totalPages = b.TotalPages()
	s.currentPage = 1
	s.bookmarkedPage = 0
	s.pageText = make(map[int]string)
	s.defined = make(map[string]bool)
	s.chapterList = chapters.Locate(s.totalPages, table, leadingPageTexts(b, detectScanPages))
	s.restoreBookmarkLocked()
	s.updatedAt = time.Now()
	return nil
}

// restoreBookmarkLocked applies the persisted bookmark if it targets a page
// inside the loaded document. Called once per document load only.
func (s *Session) restoreBookmarkLocked() {
	if s.store == nil {
		return
	}
	saved, ok := s.store.Get(BookmarkKey)
	if !ok {
		return
	}
	page, err := strconv.Atoi(saved)
	if err != nil || page < 1 || page > s.totalPages {
		return
	}
	s.bookmarkedPage = page
	s.currentPage = page
}

// GoToPage moves to page n. Out-of-range requests and requests before a
// document is loaded are ignored; the return value reports whether the page
// changed.
func (s *Session) GoToPage(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.book == nil || n < 1 || n > s.totalPages {
		return false
	}
	s.currentPage = n
	s.updatedAt = time.Now()
	return true
}

// SetBookmark bookmarks page, updating the persisted store and the
// in-memory field together. On a store failure neither changes.
func (s *Session) SetBookmark(page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.book == nil || page < 1 || page > s.totalPages {
		return fmt.Errorf("page %d out of range [1, %d]", page, s.totalPages)
	}
	if s.store != nil {
		if err := s.store.Set(BookmarkKey, strconv.Itoa(page)); err != nil {
			return fmt.Errorf("persist bookmark: %w", err)
		}
	}
	s.bookmarkedPage = page
	s.updatedAt = time.Now()
	return nil
}

// ClearBookmark removes the bookmark from the store and the session.
func (s *Session) ClearBookmark() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Remove(BookmarkKey); err != nil {
			return fmt.Errorf("clear bookmark: %w", err)
		}
	}
	s.bookmarkedPage = 0
	s.updatedAt = time.Now()
	return nil
}

// CachePageText records the rendered text for a page, overwriting any
// previous value.
func (s *Session) CachePageText(page int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageText[page] = text
	s.updatedAt = time.Now()
}

// PageText returns the cached text for a page.
func (s *Session) PageText(page int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.pageText[page]
	return text, ok
}

// CurrentPageText returns the cached text for the current page, or empty
// when the page has not been displayed yet.
func (s *Session) CurrentPageText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageText[s.currentPage]
}

// AnnotatePage runs the vocabulary pass over nodes under the session lock,
// consuming the session's first-occurrence set.
func (s *Session) AnnotatePage(nodes []book.TextNode, index map[string]string) []annotate.Mark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return annotate.Annotate(nodes, index, s.defined)
}

// Book returns the loaded document, or nil.
func (s *Session) Book() *book.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book
}

// CurrentPage returns the current 1-based page, or 0 when no document is
// loaded.
func (s *Session) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.book == nil {
		return 0
	}
	return s.currentPage
}

// UpdatedAt returns the time of the last state change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID             string `json:"session_id"`
	Title          string `json:"title"`
	CurrentPage    int    `json:"current_page"`
	TotalPages     int    `json:"total_pages"`
	BookmarkedPage int    `json:"bookmarked_page,omitempty"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:             s.id,
		CurrentPage:    s.currentPage,
		TotalPages:     s.totalPages,
		BookmarkedPage: s.bookmarkedPage,
	}
	if s.book != nil {
		snap.Title = s.book.Title
	}
	return snap
}

// ChapterView is a chapter entry decorated with reading-state flags.
type ChapterView struct {
	chapters.Entry
	Active     bool `json:"active"`
	Bookmarked bool `json:"bookmarked"`
}

// ChapterViews returns the chapter list with the active chapter and the
// bookmarked chapter flagged. Both flags use the same containment rule: the
// last entry whose start page is at or before the page in question.
func (s *Session) ChapterViews() []ChapterView {
	s.mu.Lock()
	defer s.mu.Unlock()

	activeIdx := chapters.ActiveIndex(s.chapterList, s.currentPage)
	bookmarkIdx := -1
	if s.bookmarkedPage > 0 {
		bookmarkIdx = chapters.ActiveIndex(s.chapterList, s.bookmarkedPage)
	}

	views := make([]ChapterView, len(s.chapterList))
	for i, e := range s.chapterList {
		views[i] = ChapterView{
			Entry:      e,
			Active:     i == activeIdx,
			Bookmarked: i == bookmarkIdx,
		}
	}
	return views
}

func leadingPageTexts(b *book.Book, limit int) []string {
	n := b.TotalPages()
	if n > limit {
		n = limit
	}
	texts := make([]string, n)
	for i := 0; i < n; i++ {
		texts[i] = b.Pages[i].Text
	}
	return texts
}
