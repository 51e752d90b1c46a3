package chunker

import (
	"strings"

	"github.com/dgallion1/mdsplit/internal/doctree"
)

// searchWindow is how far back from a proposed cut the boundary search looks.
const searchWindow = 100

var sentenceEnds = map[rune]bool{
	'.': true, '。': true,
	'!': true, '！': true,
	'?': true, '？': true,
}

var clauseBreaks = map[rune]bool{
	',': true, '，': true,
	';': true, '；': true,
	':': true, '：': true,
	'\n': true,
}

// span is a [start, end) rune range chosen by the slicer.
type span struct {
	start, end int
}

func isSentenceEnd(rs []rune, i int) bool {
	if sentenceEnds[rs[i]] {
		return true
	}
	// Second newline of a blank line.
	return rs[i] == '\n' && i > 0 && rs[i-1] == '\n'
}

// cutPoint picks where the slice starting at start should end, given the
// budgeted cut end. Tables are never cut: a cut inside a table moves to
// the table's end, even past the budget.
func cutPoint(rs []rune, tables []doctree.TableSpan, start, end, floor int) int {
	for _, t := range tables {
		if t.Contains(end) {
			return t.End
		}
	}

	lo := max(start+floor, end-searchWindow)
	cut := -1
	for i := end - 1; i >= lo; i-- {
		if isSentenceEnd(rs, i) {
			cut = i + 1
			break
		}
	}
	if cut < 0 {
		for i := end - 1; i >= lo; i-- {
			if clauseBreaks[rs[i]] {
				cut = i + 1
				break
			}
		}
	}
	if cut < 0 {
		return end
	}

	for _, t := range tables {
		if t.Contains(cut) {
			return t.End
		}
	}
	return cut
}

// slice partitions rs into budgeted spans. With stride 0 each span starts
// where the previous one ended; otherwise the cursor steps back by stride
// runes after every cut, never into a table.
func slice(rs []rune, tables []doctree.TableSpan, cfg Config, stride int) []span {
	n := len(rs)
	var out []span
	for start := 0; start < n; {
		end := start + cfg.MaxChunkSize
		if end >= n {
			out = append(out, span{start, n})
			break
		}
		cut := cutPoint(rs, tables, start, end, cfg.MinChunkSize)
		out = append(out, span{start, cut})

		next := cut
		if stride > 0 {
			next = max(start+1, cut-stride)
			for _, t := range tables {
				if t.Contains(next) {
					next = t.End
				}
			}
		}
		start = next
	}
	return out
}

// SliceSection splits one section body by character budget without
// looking at headings. Consecutive chunks share OverlapSize runes of
// context through the cursor stride. A body within the budget, including
// an empty one, yields exactly one chunk.
func SliceSection(text, sectionID string, cfg Config) []doctree.Chunk {
	rs := []rune(text)
	if len(rs) <= cfg.MaxChunkSize {
		return []doctree.Chunk{{
			Text:      strings.TrimSpace(text),
			StartChar: 0,
			EndChar:   len(rs),
			SectionID: sectionID,
		}}
	}

	var chunks []doctree.Chunk
	for _, sp := range slice(rs, DetectTables(text), cfg, cfg.OverlapSize) {
		t := strings.TrimSpace(string(rs[sp.start:sp.end]))
		if t == "" {
			continue
		}
		chunks = append(chunks, doctree.Chunk{
			Text:      t,
			StartChar: sp.start,
			EndChar:   sp.end,
			Index:     len(chunks),
			SectionID: sectionID,
		})
	}
	if len(chunks) == 0 {
		// Whitespace only.
		return []doctree.Chunk{{EndChar: len(rs), SectionID: sectionID}}
	}
	return chunks
}
