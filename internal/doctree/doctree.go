package doctree

// Heading is one Markdown heading with its line extent.
type Heading struct {
	Level     int    // Normalized level, contiguous from 1
	Title     string // Inline source of the heading, trimmed
	StartLine int    // 0-based line where the heading starts
	EndLine   int    // Start line of the next same-or-shallower heading, or the line count
}

// TableSpan is the rune range [Start, End) of one pipe table within a buffer.
type TableSpan struct {
	Start int
	End   int
}

// Contains reports whether pos falls strictly inside the span.
func (t TableSpan) Contains(pos int) bool {
	return t.Start < pos && pos < t.End
}

// Metadata is the free-form annotation attached to a chunk.
type Metadata map[string]any

// Chunk is a sized text segment. Offsets are rune offsets into the owning
// section's body and are only set by the tree variant.
type Chunk struct {
	Text      string   `json:"text" yaml:"text"`
	Level     int      `json:"-" yaml:"-"`
	StartChar int      `json:"start_char" yaml:"start_char"`
	EndChar   int      `json:"end_char" yaml:"end_char"`
	Index     int      `json:"chunk_index" yaml:"chunk_index"`
	SectionID string   `json:"section_id" yaml:"section_id"`
	Metadata  Metadata `json:"metadata" yaml:"metadata"`
}

// SectionMetadata holds per-section counters.
type SectionMetadata struct {
	TotalChunks int `json:"total_chunks" yaml:"total_chunks"`
	TotalLength int `json:"total_length" yaml:"total_length"`
}

// Section is the content directly under one heading plus its subsections.
type Section struct {
	Level      int             `json:"level" yaml:"level"`
	Title      string          `json:"title" yaml:"title"`
	Anchor     string          `json:"anchor" yaml:"anchor"`
	StartLine  int             `json:"start_line" yaml:"start_line"`
	EndLine    int             `json:"end_line" yaml:"end_line"`
	Breadcrumb []string        `json:"breadcrumb" yaml:"breadcrumb"`
	ID         string          `json:"id" yaml:"id"`
	Metadata   SectionMetadata `json:"metadata" yaml:"metadata"`
	Chunks     []Chunk         `json:"chunks" yaml:"chunks"`
	Children   []*Section      `json:"children" yaml:"children"`
}

// AllChunks returns every chunk in the tree: a section's own chunks first,
// then its children's, depth-first in document order.
func AllChunks(root *Section) []Chunk {
	if root == nil {
		return nil
	}
	var out []Chunk
	var walk func(s *Section)
	walk = func(s *Section) {
		out = append(out, s.Chunks...)
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}

// Document is one input record of a batch.
type Document struct {
	DocID    string `json:"doc_id"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Year     string `json:"year"`
	Category string `json:"category"`
	Markdown string `json:"markdown"`
}

// Record is one chunk of the flat output.
type Record struct {
	Text     string   `json:"text" yaml:"text"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
}
