package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/mdsplit/internal/doctree"
)

// separatorRow matches a GFM alignment row: dash runs of three or more,
// optionally colon-flanked, joined by pipes, with optional outer pipes.
var separatorRow = regexp.MustCompile(`^\s*\|?\s*:?-{3,}:?\s*(?:\|\s*:?-{3,}:?\s*)*\|?\s*$`)

func isTableRow(line string) bool {
	return strings.Contains(line, "|") && strings.TrimSpace(line) != ""
}

func isSeparatorRow(line string) bool {
	return strings.Contains(line, "|") && separatorRow.MatchString(line)
}

// DetectTables returns the rune spans of every pipe table in text, in order.
// A table is a row containing "|" followed by a separator row, extended
// through every following non-blank row that contains "|".
func DetectTables(text string) []doctree.TableSpan {
	lines := strings.Split(text, "\n")
	offsets := make([]int, len(lines))
	for i := 1; i < len(lines); i++ {
		offsets[i] = offsets[i-1] + utf8.RuneCountInString(lines[i-1]) + 1
	}
	total := utf8.RuneCountInString(text)

	var spans []doctree.TableSpan
	for i := 0; i < len(lines); {
		if !isTableRow(lines[i]) || i+1 >= len(lines) || !isSeparatorRow(lines[i+1]) {
			i++
			continue
		}
		j := i + 2
		for j < len(lines) && isTableRow(lines[j]) {
			j++
		}
		end := total
		if j < len(lines) {
			end = offsets[j]
		}
		spans = append(spans, doctree.TableSpan{Start: offsets[i], End: end})
		i = j
	}
	return spans
}
