package pipeline

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// docSample is one successfully chunked document.
type docSample struct {
	at     time.Time
	mode   Mode
	micros int64
	chunks int
}

// LatencySummary describes a latency distribution in microseconds.
type LatencySummary struct {
	Min int64   `json:"min"`
	Max int64   `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// StatsSnapshot aggregates the documents chunked within the window. The
// top level covers every mode; Modes breaks the same numbers down per
// composition.
type StatsSnapshot struct {
	Documents    int                    `json:"documents"`
	Chunks       int                    `json:"chunks"`
	ChunksPerDoc float64                `json:"chunks_per_doc"`
	Latency      LatencySummary         `json:"latency_us"`
	Modes        map[Mode]StatsSnapshot `json:"modes,omitempty"`
}

// ChunkStats keeps a rolling window of per-document chunking samples.
type ChunkStats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []docSample // ordered by at
}

func NewChunkStats(window time.Duration) *ChunkStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ChunkStats{window: window}
}

// Record adds one chunked document taking d and producing chunks chunks.
func (s *ChunkStats) Record(mode Mode, d time.Duration, chunks int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.expire(now)
	s.samples = append(s.samples, docSample{
		at:     now,
		mode:   mode,
		micros: max(d.Microseconds(), 0),
		chunks: chunks,
	})
}

func (s *ChunkStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	s.expire(time.Now())
	samples := slices.Clone(s.samples)
	s.mu.Unlock()

	if len(samples) == 0 {
		return StatsSnapshot{}
	}

	byMode := map[Mode][]docSample{}
	for _, sm := range samples {
		byMode[sm.mode] = append(byMode[sm.mode], sm)
	}

	snap := summarize(samples)
	snap.Modes = make(map[Mode]StatsSnapshot, len(byMode))
	for mode, group := range byMode {
		snap.Modes[mode] = summarize(group)
	}
	return snap
}

// expire drops the prefix of samples older than the window.
func (s *ChunkStats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	n := sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].at.Before(cutoff)
	})
	s.samples = slices.Delete(s.samples, 0, n)
}

func summarize(samples []docSample) StatsSnapshot {
	micros := make([]int64, len(samples))
	var total int64
	chunks := 0
	for i, sm := range samples {
		micros[i] = sm.micros
		total += sm.micros
		chunks += sm.chunks
	}
	slices.Sort(micros)

	n := float64(len(samples))
	return StatsSnapshot{
		Documents:    len(samples),
		Chunks:       chunks,
		ChunksPerDoc: float64(chunks) / n,
		Latency: LatencySummary{
			Min: micros[0],
			Max: micros[len(micros)-1],
			Avg: float64(total) / n,
			P50: quantile(micros, 0.50),
			P95: quantile(micros, 0.95),
			P99: quantile(micros, 0.99),
		},
	}
}

// quantile returns the q-th quantile of sorted, interpolating between
// neighboring ranks.
func quantile(sorted []int64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := min(max(q, 0), 1) * float64(len(sorted)-1)
	i := int(pos)
	if i >= len(sorted)-1 {
		return float64(sorted[len(sorted)-1])
	}
	frac := pos - float64(i)
	return float64(sorted[i]) + frac*float64(sorted[i+1]-sorted[i])
}
