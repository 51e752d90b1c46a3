package api

import (
	"net/http"
)

func (s *Server) handleChunkingStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":        s.orchestrator.Stats().Snapshot(),
		"queue_depth":  s.orchestrator.QueueDepth(),
		"jobs_tracked": s.orchestrator.JobsTracked(),
		"profiles":     s.orchestrator.Profiles(),
	})
}
