package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/mdsplit/internal/config"
	"github.com/dgallion1/mdsplit/internal/doctree"
)

// Orchestrator runs batch jobs on a fixed worker pool.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	stats    *ChunkStats
	log      *slog.Logger
	cfg      config.Config
	profiles atomic.Pointer[Profiles]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		stats: NewChunkStats(time.Hour),
		log:   log,
		cfg:   cfg,
	}
	o.SetProfiles(Profiles{Flat: cfg.Flat, Tree: cfg.Tree})
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.log, o.stats, o.Profiles, o.cfg.MaxConcurrentDocs)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// JobsTracked returns how many jobs are held until their TTL expires.
func (o *Orchestrator) JobsTracked() int {
	return o.jobs.Len()
}

// Stats returns the chunking stats tracker.
func (o *Orchestrator) Stats() *ChunkStats {
	return o.stats
}

// Profiles returns the current chunking settings.
func (o *Orchestrator) Profiles() Profiles {
	return *o.profiles.Load()
}

// SetProfiles replaces the chunking settings used by subsequent jobs.
func (o *Orchestrator) SetProfiles(p Profiles) {
	o.profiles.Store(&p)
}

// Chunk processes one document synchronously with p and records it in
// the chunking stats.
func (o *Orchestrator) Chunk(doc doctree.Document, mode Mode, p Profiles) DocResult {
	r := ProcessDocument(doc, mode, p)
	if r.Err == nil {
		o.stats.Record(mode, r.Duration, r.ChunkCount())
	}
	return r
}
