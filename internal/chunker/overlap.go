package chunker

import (
	"maps"
	"strings"

	"github.com/dgallion1/mdsplit/internal/doctree"
)

// ApplyOverlap returns new chunks whose text is wrapped with the last
// width runes of the previous chunk and the first width runes of the next
// one, separated by newlines. Edge chunks get one side only.
func ApplyOverlap(chunks []doctree.Chunk, width int) []doctree.Chunk {
	out := make([]doctree.Chunk, len(chunks))
	for i, c := range chunks {
		parts := make([]string, 0, 3)
		if i > 0 && width > 0 {
			parts = append(parts, tail(chunks[i-1].Text, width))
		}
		parts = append(parts, c.Text)
		if i < len(chunks)-1 && width > 0 {
			parts = append(parts, head(chunks[i+1].Text, width))
		}

		nc := c
		nc.Text = strings.Join(parts, "\n")
		nc.Metadata = maps.Clone(c.Metadata)
		out[i] = nc
	}
	return out
}

func tail(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[len(rs)-n:])
}

func head(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
