package chunker

import (
	"fmt"
	"maps"
	"unicode/utf8"

	"github.com/dgallion1/mdsplit/internal/doctree"
	"github.com/tmc/langchaingo/schema"
)

// ToDocuments converts tree chunks into retrieval documents. base is
// copied into every document's metadata first; chunk metadata and the
// chunk identity keys take precedence.
func ToDocuments(chunks []doctree.Chunk, base map[string]any) []schema.Document {
	docs := make([]schema.Document, 0, len(chunks))
	for _, c := range chunks {
		md := make(map[string]any, len(base)+len(c.Metadata)+4)
		maps.Copy(md, base)
		maps.Copy(md, c.Metadata)
		md["chunk_id"] = fmt.Sprintf("%s_chunk_%d", c.SectionID, c.Index)
		md["chunk_start"] = c.StartChar
		md["chunk_end"] = c.EndChar
		md["chunk_size"] = utf8.RuneCountInString(c.Text)

		docs = append(docs, schema.Document{
			PageContent: c.Text,
			Metadata:    md,
		})
	}
	return docs
}
