package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tmarden/textbookd/internal/assistant"
)

// handleAsk forwards a question to the chosen assistant backend with the
// current page's text as context. Pages never displayed have no cached text;
// the remote backend accepts that and answers context-free, the local one
// refuses.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Query   string `json:"query"`
		Backend string `json:"backend"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	var bridge assistant.Bridge
	switch req.Backend {
	case "", "gemini":
		bridge = s.remote
	case "local":
		if s.local == nil {
			jsonError(w, "no local model configured", http.StatusNotImplemented)
			return
		}
		bridge = s.local
	default:
		jsonError(w, "unknown backend: "+req.Backend, http.StatusBadRequest)
		return
	}

	answer, err := bridge.Ask(r.Context(), req.Query, sess.CurrentPageText())
	if err != nil {
		if s.stats != nil {
			s.stats.RecordError()
		}
		writeAssistantError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"answer": answer,
		"page":   sess.CurrentPage(),
	})
}

func (s *Server) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.APIKey = strings.TrimSpace(req.APIKey)

	var err error
	if req.APIKey == "" {
		err = s.state.Remove(assistant.CredentialKey)
	} else {
		err = s.state.Set(assistant.CredentialKey, req.APIKey)
	}
	if err != nil {
		jsonError(w, "persist credential: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"saved": req.APIKey != ""})
}

// writeAssistantError maps tagged assistant failures to HTTP statuses with a
// hint the reader UI can show verbatim.
func writeAssistantError(w http.ResponseWriter, err error) {
	var status int
	var hint string
	switch assistant.KindOf(err) {
	case assistant.KindNoContext:
		status = http.StatusConflict
		hint = "Open a page with text before asking."
	case assistant.KindInvalidCredential:
		status = http.StatusUnauthorized
		hint = "Set a valid Gemini API key via /api/credentials/gemini."
	case assistant.KindRateLimited:
		status = http.StatusTooManyRequests
		hint = "The model is busy. Wait a moment and try again."
	case assistant.KindModelNotReady:
		status = http.StatusServiceUnavailable
		hint = "The local model is still loading. Try again shortly."
	case assistant.KindUnexpectedFormat:
		status = http.StatusBadGateway
		hint = "The model returned an unexpected response."
	default:
		status = http.StatusBadGateway
		hint = "Could not reach the model. Check your connection."
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"hint":  hint,
	})
}
