package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.completer == nil || s.completer.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"provider": s.completer.Provider(),
		"model":    s.completer.Model(),
		"sessions": s.sessions.Len(),
		"stats":    s.completer.Stats.Snapshot(),
	})
}
