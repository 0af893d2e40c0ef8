package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tmarden/textbookd/internal/session"
)

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) *session.Session {
	id := chi.URLParam(r, "sessionID")
	sess := s.sessions.Get(id)
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
	}
	return sess
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess.Snapshot())
}

func (s *Server) handleGoToPage(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Page int `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Out-of-range targets leave the page unchanged rather than erroring.
	moved := sess.GoToPage(req.Page)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"moved":        moved,
		"current_page": sess.CurrentPage(),
	})
}

// handleGetPage renders the current page: raw nodes plus vocabulary marks.
// The rendered text is cached on the session so assistant calls can reuse it.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	b := sess.Book()
	current := sess.CurrentPage()
	if b == nil || current == 0 {
		jsonError(w, "no document loaded", http.StatusConflict)
		return
	}

	page, err := b.Page(current)
	if err != nil {
		// Surface the failure as page content so the reader keeps working.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"page":  current,
			"error": "Error loading page. Please try again.",
		})
		return
	}

	marks := sess.AnnotatePage(page.Nodes, s.vocab)
	texts := make([]string, len(page.Nodes))
	for i, n := range page.Nodes {
		texts[i] = n.Text
	}
	sess.CachePageText(current, strings.Join(texts, "\n"))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"page":        current,
		"total_pages": b.TotalPages(),
		"nodes":       page.Nodes,
		"marks":       marks,
	})
}

func (s *Server) handleGetChapters(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"chapters": sess.ChapterViews(),
	})
}

func (s *Server) handleSetBookmark(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Page int `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Page == 0 {
		req.Page = sess.CurrentPage()
	}

	if err := sess.SetBookmark(req.Page); err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"bookmarked_page": req.Page})
}

func (s *Server) handleClearBookmark(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	if err := sess.ClearBookmark(); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
