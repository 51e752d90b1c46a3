package chunker

import (
	"maps"
	"unicode/utf8"

	"github.com/dgallion1/mdsplit/internal/doctree"
)

// Merge coalesces consecutive chunks of the same level, joined by a
// newline, while the result stays within maxSize runes. A level change
// always starts a new chunk. The input is not modified.
func Merge(chunks []doctree.Chunk, maxSize int) []doctree.Chunk {
	var out []doctree.Chunk
	var cur doctree.Chunk
	curLen := 0
	open := false

	for _, c := range chunks {
		n := utf8.RuneCountInString(c.Text)
		if open && c.Level == cur.Level && curLen+1+n <= maxSize {
			cur.Text += "\n" + c.Text
			curLen += 1 + n
			continue
		}
		if open {
			out = append(out, cur)
		}
		cur = c
		cur.Metadata = maps.Clone(c.Metadata)
		curLen = n
		open = true
	}
	if open {
		out = append(out, cur)
	}
	return out
}
