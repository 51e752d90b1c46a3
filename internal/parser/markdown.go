package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/mdsplit/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// normalizeThreshold is the deepest level whose absence is closed up by
// NormalizeLevels.
const normalizeThreshold = 3

// emptyATX matches an ATX heading line with no inline content, e.g. "##" or "## ##".
var emptyATX = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+#*)?[ \t]*$`)

// SplitLines splits text into lines that keep their "\n" terminators.
// A trailing empty element is not produced.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ExtractHeadings parses Markdown and returns its headings in document
// order with computed end lines and normalized levels.
func ExtractHeadings(md string) []doctree.Heading {
	src := []byte(md)
	lines := SplitLines(md)

	// Byte offset at which each line starts, for offset -> line lookups.
	lineStarts := make([]int, len(lines))
	off := 0
	for i, ln := range lines {
		lineStarts[i] = off
		off += len(ln)
	}
	lineOf := func(offset int) int {
		return sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > offset }) - 1
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var headings []doctree.Heading
	cursor := 0
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		segs := h.Lines()
		var start int
		var title strings.Builder
		if segs.Len() > 0 {
			start = lineOf(segs.At(0).Start)
			for i := 0; i < segs.Len(); i++ {
				seg := segs.At(i)
				title.Write(seg.Value(src))
			}
		} else {
			start = findEmptyHeading(lines, cursor, h.Level)
		}
		if start < 0 {
			return ast.WalkSkipChildren, nil
		}
		cursor = start + 1

		headings = append(headings, doctree.Heading{
			Level:     h.Level,
			Title:     strings.TrimSpace(title.String()),
			StartLine: start,
		})
		return ast.WalkSkipChildren, nil
	})

	computeEndLines(headings, len(lines))
	return NormalizeLevels(headings)
}

// findEmptyHeading locates an ATX heading without inline text, which
// goldmark reports without source segments.
func findEmptyHeading(lines []string, from, level int) int {
	for i := from; i < len(lines); i++ {
		m := emptyATX.FindStringSubmatch(strings.TrimRight(lines[i], "\r\n"))
		if m != nil && len(m[1]) == level {
			return i
		}
	}
	return -1
}

// computeEndLines sets each heading's EndLine to the start of the next
// heading at the same or a shallower level.
func computeEndLines(headings []doctree.Heading, lineCount int) {
	for i := range headings {
		headings[i].EndLine = lineCount
		for j := i + 1; j < len(headings); j++ {
			if headings[j].Level <= headings[i].Level {
				headings[i].EndLine = headings[j].StartLine
				break
			}
		}
	}
}

// NormalizeLevels closes gaps in the levels used by a document so that
// they form a contiguous run from 1. For each threshold 1..3 that no
// heading uses, all deeper levels shift up by the smallest gap.
func NormalizeLevels(headings []doctree.Heading) []doctree.Heading {
	if len(headings) == 0 {
		return nil
	}
	out := make([]doctree.Heading, len(headings))
	copy(out, headings)

	for level := 1; level <= normalizeThreshold; level++ {
		used := false
		gap := 0
		for _, h := range out {
			if h.Level == level {
				used = true
				break
			}
			if h.Level > level && (gap == 0 || h.Level-level < gap) {
				gap = h.Level - level
			}
		}
		if used || gap == 0 {
			continue
		}
		for i := range out {
			if out[i].Level > level {
				out[i].Level -= gap
			}
		}
	}
	return out
}
