package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/mdsplit/internal/parser"
	"github.com/dgallion1/mdsplit/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	mode, err := pipeline.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	// Reject a malformed batch up front; per-document problems are
	// reported on the job.
	raws, err := parser.DecodeBatch(bytes.NewReader(data))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(mode, data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Info("batch queued", "job_id", job.ID, "mode", mode, "documents", len(raws))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":       job.ID,
		"mode":         mode,
		"status":       pipeline.StatusQueued,
		"documents":    len(raws),
		"content_hash": job.ContentHash,
		"poll_url":     fmt.Sprintf("/api/batches/%s/status", job.ID),
		"result_url":   fmt.Sprintf("/api/batches/%s/result", job.ID),
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleBatchResult returns the per-document results of a finished job,
// or with format=documents the retrieval documents of all its chunks.
func (s *Server) handleBatchResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if !snap.Status.Done() {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job not finished",
			"status": snap.Status,
		})
		return
	}

	results := job.Results()
	if results == nil {
		results = []pipeline.DocResult{}
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "results":
		writeJSON(w, http.StatusOK, map[string]any{
			"job_id":  snap.ID,
			"mode":    snap.Mode,
			"status":  snap.Status,
			"results": results,
		})
	case "documents":
		writeJSON(w, http.StatusOK, map[string]any{
			"job_id":    snap.ID,
			"documents": pipeline.Documents(results),
		})
	default:
		jsonError(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
