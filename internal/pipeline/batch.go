package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/schema"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/mdsplit/internal/chunker"
	"github.com/dgallion1/mdsplit/internal/doctree"
	"github.com/dgallion1/mdsplit/internal/parser"
)

// Mode selects the chunking composition.
type Mode string

const (
	ModeFlat Mode = "flat"
	ModeTree Mode = "tree"
)

// ParseMode maps a request value to a Mode. Empty means flat.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFlat:
		return ModeFlat, nil
	case ModeTree:
		return ModeTree, nil
	}
	return "", fmt.Errorf("unknown mode %q (want flat or tree)", s)
}

// Profiles holds the chunking settings of both compositions.
type Profiles struct {
	Flat chunker.Config `json:"flat"`
	Tree chunker.Config `json:"tree"`
}

// DefaultProfiles returns the package defaults for both compositions.
func DefaultProfiles() Profiles {
	return Profiles{Flat: chunker.DefaultFlatConfig(), Tree: chunker.DefaultTreeConfig()}
}

// DocResult is the outcome of one document of a batch.
type DocResult struct {
	Index   int              `json:"index"`
	DocID   string           `json:"doc_id,omitempty"`
	Records []doctree.Record `json:"records,omitempty"`
	Tree    *doctree.Section `json:"tree,omitempty"`
	Error   string           `json:"error,omitempty"`

	Err      error         `json:"-"`
	Duration time.Duration `json:"-"`
}

// ChunkCount returns the number of chunks the document produced.
func (r DocResult) ChunkCount() int {
	if r.Tree != nil {
		return len(doctree.AllChunks(r.Tree))
	}
	return len(r.Records)
}

// Documents converts the result into retrieval documents.
func (r DocResult) Documents() []schema.Document {
	if r.Tree != nil {
		return chunker.ToDocuments(doctree.AllChunks(r.Tree), map[string]any{"doc_id": r.DocID})
	}
	docs := make([]schema.Document, len(r.Records))
	for i, rec := range r.Records {
		docs[i] = schema.Document{PageContent: rec.Text, Metadata: rec.Metadata}
	}
	return docs
}

// ProcessDocument chunks one decoded document.
func ProcessDocument(doc doctree.Document, mode Mode, p Profiles) DocResult {
	start := time.Now()
	r := DocResult{DocID: doc.DocID}
	switch mode {
	case ModeTree:
		r.Tree = chunker.ChunkTree(doc, p.Tree)
	default:
		r.Records = chunker.ChunkFlat(doc, p.Flat)
	}
	r.Duration = time.Since(start)
	return r
}

// RunBatch decodes and chunks every document of a batch with at most
// limit documents in flight. Results keep input order. A document that
// fails to decode carries its error and does not stop the others; only
// cancellation of ctx fails the batch. onDone, if set, is called from the
// worker goroutines as each document finishes.
func RunBatch(ctx context.Context, raws []json.RawMessage, mode Mode, p Profiles, limit int, onDone func(DocResult)) ([]DocResult, error) {
	results := make([]DocResult, len(raws))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, raw := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var r DocResult
			doc, err := parser.DecodeDocument(raw, i)
			if err != nil {
				r = DocResult{Err: err, Error: err.Error()}
			} else {
				r = ProcessDocument(doc, mode, p)
			}
			r.Index = i
			results[i] = r

			if onDone != nil {
				onDone(r)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch canceled: %w", err)
	}
	return results, nil
}

// FlatRecords concatenates the records of all successful documents.
func FlatRecords(results []DocResult) []doctree.Record {
	var out []doctree.Record
	for _, r := range results {
		out = append(out, r.Records...)
	}
	if out == nil {
		out = []doctree.Record{}
	}
	return out
}

// Trees returns the section trees of all successful documents.
func Trees(results []DocResult) []*doctree.Section {
	out := make([]*doctree.Section, 0, len(results))
	for _, r := range results {
		if r.Tree != nil {
			out = append(out, r.Tree)
		}
	}
	return out
}

// Documents converts every successful result into retrieval documents.
func Documents(results []DocResult) []schema.Document {
	out := []schema.Document{}
	for _, r := range results {
		out = append(out, r.Documents()...)
	}
	return out
}

// Failures returns the results that carry an error.
func Failures(results []DocResult) []DocResult {
	var out []DocResult
	for _, r := range results {
		if r.Err != nil || r.Error != "" {
			out = append(out, r)
		}
	}
	return out
}
