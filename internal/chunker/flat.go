package chunker

import (
	"strings"

	"github.com/dgallion1/mdsplit/internal/doctree"
)

// maxDepth bounds heading recursion. Markdown has six heading levels, so
// only malformed heading lists can reach it.
const maxDepth = 16

type flatSplitter struct {
	lines    []string
	headings []doctree.Heading
	cfg      Config
	out      []doctree.Chunk
}

// SplitFlat recursively splits a document at heading boundaries until
// every piece fits the budget, falling back to budgeted slicing for spans
// without deeper headings. The result interleaves all levels in document
// order; each chunk's Level is the heading depth it was produced under.
//
// headings must come from parser.ExtractHeadings over the same lines.
func SplitFlat(lines []string, headings []doctree.Heading, cfg Config) []doctree.Chunk {
	s := &flatSplitter{lines: lines, headings: headings, cfg: cfg}
	s.split(0, len(lines), 0, 0)
	return s.out
}

func (s *flatSplitter) split(startLine, endLine, level, depth int) {
	text := strings.Join(s.lines[startLine:endLine], "")
	rs := []rune(text)
	if len(rs) < s.cfg.MaxChunkSize {
		s.emit(strings.TrimSpace(text), level)
		return
	}

	var sub []doctree.Heading
	if depth < maxDepth {
		for _, h := range s.headings {
			if h.Level == level+1 && h.StartLine >= startLine && h.StartLine < endLine {
				sub = append(sub, h)
			}
		}
	}

	if len(sub) == 0 {
		n := 0
		for _, sp := range slice(rs, DetectTables(text), s.cfg, 0) {
			t := strings.TrimSpace(string(rs[sp.start:sp.end]))
			if t == "" {
				continue
			}
			s.emit(t, level)
			n++
		}
		if n == 0 {
			s.emit("", level)
		}
		return
	}

	// Text ahead of the first deeper heading stays at this level. At the
	// top it is emitted even when empty.
	if level == 0 || sub[0].StartLine > startLine {
		s.split(startLine, sub[0].StartLine, level, depth+1)
	}
	for i, h := range sub {
		end := endLine
		if i+1 < len(sub) {
			end = sub[i+1].StartLine
		}
		s.split(h.StartLine, end, level+1, depth+1)
	}
}

func (s *flatSplitter) emit(text string, level int) {
	s.out = append(s.out, doctree.Chunk{
		Text:  text,
		Level: level,
	})
}
