package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a batch job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusChunking  JobStatus = "chunking"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// Job tracks the state of one submitted batch.
type Job struct {
	mu sync.Mutex

	ID   string `json:"job_id"`
	Mode Mode   `json:"mode"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	payload []byte
	results []DocResult
	errors  []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalDocs      int      `json:"total_docs"`
	DocsProcessed  int      `json:"docs_processed"`
	DocsFailed     int      `json:"docs_failed"`
	ChunksProduced int      `json:"chunks_produced"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for the raw batch payload.
func NewJob(mode Mode, payload []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Mode:        mode,
		Status:      StatusQueued,
		Phase:       "queued",
		ContentHash: ContentHashHex(payload),
		CreatedAt:   now,
		UpdatedAt:   now,
		payload:     payload,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotalDocs records the batch size.
func (j *Job) SetTotalDocs(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalDocs = n
	j.UpdatedAt = time.Now()
}

// RecordDoc counts one finished document.
func (j *Job) RecordDoc(r DocResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.DocsProcessed++
	if r.Err != nil {
		j.Progress.DocsFailed++
		j.errors = append(j.errors, r.Err.Error())
		j.Progress.Errors = j.errors
	}
	j.Progress.ChunksProduced += r.ChunkCount()
	j.UpdatedAt = time.Now()
}

// Payload returns the raw batch bytes.
func (j *Job) Payload() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.payload
}

// SetResults stores the per-document results and drops the payload.
func (j *Job) SetResults(results []DocResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results = results
	j.payload = nil
	j.UpdatedAt = time.Now()
}

// Results returns the per-document results, nil until the job finishes.
func (j *Job) Results() []DocResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.results
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Mode        Mode      `json:"mode"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Progress    Progress  `json:"progress"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Mode:        j.Mode,
		Status:      j.Status,
		Phase:       j.Phase,
		Progress:    p,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
