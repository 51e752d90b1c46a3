package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/mdsplit/internal/parser"
)

// Worker processes batch jobs.
type Worker struct {
	log      *slog.Logger
	stats    *ChunkStats
	profiles func() Profiles

	maxConcurrentDocs int
}

// NewWorker creates a worker. profiles is consulted once per job, so a
// reloaded configuration applies to the next job.
func NewWorker(log *slog.Logger, stats *ChunkStats, profiles func() Profiles, maxConcurrentDocs int) *Worker {
	return &Worker{
		log:               log,
		stats:             stats,
		profiles:          profiles,
		maxConcurrentDocs: maxConcurrentDocs,
	}
}

// Process runs one batch job to completion.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "mode", job.Mode)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	raws, err := parser.DecodeBatch(bytes.NewReader(job.Payload()))
	if err != nil {
		log.Error("batch decode failed", "error", err)
		job.AddError(err.Error())
		job.SetResults(nil)
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetTotalDocs(len(raws))
	log.Info("batch decoded", "documents", len(raws))

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	results, err := RunBatch(ctx, raws, job.Mode, w.profiles(), w.maxConcurrentDocs, func(r DocResult) {
		job.RecordDoc(r)
		if r.Err != nil {
			log.Warn("document failed", "index", r.Index, "error", r.Err)
			return
		}
		if w.stats != nil {
			w.stats.Record(job.Mode, r.Duration, r.ChunkCount())
		}
	})
	if err != nil {
		log.Error("batch aborted", "error", err)
		job.AddError(fmt.Sprintf("chunk: %s", err))
		job.SetResults(nil)
		job.SetStatus(StatusFailed, "chunking")
		return
	}
	job.SetResults(results)

	failed := len(Failures(results))
	log.Info("batch complete", "documents", len(results), "failed", failed)

	switch {
	case failed == 0:
		job.SetStatus(StatusCompleted, "done")
	case failed < len(results):
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "chunking")
	}
}
