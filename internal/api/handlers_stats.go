package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/docchunk/internal/strategy"
)

func (s *Server) handleChunkStats(w http.ResponseWriter, r *http.Request) {
	snap := s.stats.Snapshot()
	cached := 0
	if s.cache != nil {
		cached = s.cache.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stats":          snap,
		"cached_results": cached,
	})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"strategies": strategy.List()})
}
