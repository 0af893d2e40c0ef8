package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{
		"stats": s.stats.Snapshot(),
	}
	if s.remote != nil {
		resp["model"] = s.remote.Model()
	}
	if s.local != nil {
		resp["local_model_ready"] = s.local.Ready()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
