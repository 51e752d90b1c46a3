package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dgallion1/mdsplit/internal/doctree"
	"github.com/dgallion1/mdsplit/internal/parser"
	"github.com/dgallion1/mdsplit/internal/pipeline"
)

type chunkResponse struct {
	Mode       pipeline.Mode    `json:"mode"`
	DocID      string           `json:"doc_id"`
	Records    []doctree.Record `json:"records,omitempty"`
	Tree       *doctree.Section `json:"tree,omitempty"`
	DurationUs int64            `json:"duration_us"`
}

// handleChunk chunks one document synchronously. Query parameters
// max_chunk_size, min_chunk_size and overlap_size override the configured
// profile of the selected mode for this request only.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	mode, err := pipeline.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	profiles, err := s.profilesFor(r, mode)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	doc, err := parser.DecodeDocument(data, 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := s.orchestrator.Chunk(doc, mode, profiles)
	s.log.Debug("chunked document", "doc_id", res.DocID, "mode", mode, "chunks", res.ChunkCount())

	writeJSON(w, http.StatusOK, chunkResponse{
		Mode:       mode,
		DocID:      res.DocID,
		Records:    res.Records,
		Tree:       res.Tree,
		DurationUs: res.Duration.Microseconds(),
	})
}

// profilesFor applies request overrides to the current profiles.
func (s *Server) profilesFor(r *http.Request, mode pipeline.Mode) (pipeline.Profiles, error) {
	p := s.orchestrator.Profiles()
	cfg := &p.Flat
	if mode == pipeline.ModeTree {
		cfg = &p.Tree
	}

	q := r.URL.Query()
	for key, dst := range map[string]*int{
		"max_chunk_size": &cfg.MaxChunkSize,
		"min_chunk_size": &cfg.MinChunkSize,
		"overlap_size":   &cfg.OverlapSize,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	return p, cfg.Validate()
}

// readBody reads the request body up to the upload limit, writing the
// error response itself when it fails.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

