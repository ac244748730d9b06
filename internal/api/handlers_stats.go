package api

import "net/http"

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": map[string]string{
			ModeCloud: s.providers[ModeCloud].Name(),
			ModeLocal: s.providers[ModeLocal].Name(),
		},
		"stats": s.stats.Snapshot(),
	})
}
