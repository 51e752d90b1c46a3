// Package chunker splits Markdown documents into bounded-size chunks for
// retrieval. Tables are never split, heading structure drives the split
// points, and neighboring chunks share overlap context.
//
// Two compositions share the same primitives: ChunkFlat produces one
// merged, overlapped list per document, and ChunkTree produces a section
// tree whose sections own their chunks.
package chunker

import (
	"github.com/dgallion1/mdsplit/internal/doctree"
	"github.com/dgallion1/mdsplit/internal/parser"
)

// ChunkFlat splits doc into an ordered list of records. Zero config
// fields fall back to DefaultFlatConfig.
func ChunkFlat(doc doctree.Document, cfg Config) []doctree.Record {
	cfg = cfg.WithDefaults(DefaultFlatConfig())

	lines := parser.SplitLines(doc.Markdown)
	headings := parser.ExtractHeadings(doc.Markdown)

	chunks := SplitFlat(lines, headings, cfg)
	chunks = Merge(chunks, cfg.MaxChunkSize)
	chunks = ApplyOverlap(chunks, cfg.OverlapSize)

	records := make([]doctree.Record, len(chunks))
	for i, c := range chunks {
		records[i] = doctree.Record{
			Text: c.Text,
			Metadata: doctree.Metadata{
				"chunk_index": i,
				"doc_id":      doc.DocID,
				"doc_title":   doc.Title,
				"doc_link":    doc.Link,
				"category":    doc.Category,
				"year":        doc.Year,
				"level":       c.Level,
			},
		}
	}
	return records
}
