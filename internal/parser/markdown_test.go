package parser

import (
	"testing"

	"github.com/dgallion1/mdsplit/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levels(hs []doctree.Heading) []int {
	out := make([]int, len(hs))
	for i, h := range hs {
		out[i] = h.Level
	}
	return out
}

func TestExtractHeadings_Hierarchy(t *testing.T) {
	input := `# Title

Intro.

## Section A

A body.

### Subsection A1

x

## Section B

y
`
	hs := ExtractHeadings(input)
	want := []doctree.Heading{
		{Level: 1, Title: "Title", StartLine: 0, EndLine: 15},
		{Level: 2, Title: "Section A", StartLine: 4, EndLine: 12},
		{Level: 3, Title: "Subsection A1", StartLine: 8, EndLine: 12},
		{Level: 2, Title: "Section B", StartLine: 12, EndLine: 15},
	}
	assert.Equal(t, want, hs)
}

func TestExtractHeadings_NestingInvariant(t *testing.T) {
	input := "# A\n\n## A.1\n\ntext\n\n### A.1.a\n\n## A.2\n\n# B\n\n## B.1\n"
	hs := ExtractHeadings(input)
	require.Len(t, hs, 6)

	for i, a := range hs {
		for _, b := range hs[i+1:] {
			if b.StartLine >= a.EndLine {
				break
			}
			if b.Level <= a.Level {
				continue
			}
			assert.LessOrEqual(t, a.StartLine, b.StartLine)
			assert.Less(t, b.StartLine, b.EndLine)
			assert.LessOrEqual(t, b.EndLine, a.EndLine, "%q must end inside %q", b.Title, a.Title)
		}
	}
}

func TestExtractHeadings_NormalizesGap(t *testing.T) {
	input := "# One\n\n# Two\n\n### Three\n\n### Four\n\n# Five\n"
	hs := ExtractHeadings(input)
	assert.Equal(t, []int{1, 1, 2, 2, 1}, levels(hs))
}

func TestExtractHeadings_Setext(t *testing.T) {
	input := "Title\n=====\n\nbody\n\nSub\n---\n"
	hs := ExtractHeadings(input)
	require.Len(t, hs, 2)
	assert.Equal(t, doctree.Heading{Level: 1, Title: "Title", StartLine: 0, EndLine: 7}, hs[0])
	assert.Equal(t, doctree.Heading{Level: 2, Title: "Sub", StartLine: 5, EndLine: 7}, hs[1])
}

func TestExtractHeadings_IgnoresCodeFences(t *testing.T) {
	input := "# Real\n\n```\n# not a heading\n```\n"
	hs := ExtractHeadings(input)
	require.Len(t, hs, 1)
	assert.Equal(t, "Real", hs[0].Title)
}

func TestExtractHeadings_EmptyHeading(t *testing.T) {
	input := "# A\n\n##\n\ntext\n"
	hs := ExtractHeadings(input)
	require.Len(t, hs, 2)
	assert.Equal(t, 2, hs[1].Level)
	assert.Equal(t, "", hs[1].Title)
	assert.Equal(t, 2, hs[1].StartLine)
}

func TestExtractHeadings_KeepsInlineSource(t *testing.T) {
	hs := ExtractHeadings("## **Bold** title ##\n")
	require.Len(t, hs, 1)
	assert.Equal(t, "**Bold** title", hs[0].Title)
	assert.Equal(t, 1, hs[0].Level)
}

func TestExtractHeadings_NoHeadings(t *testing.T) {
	assert.Empty(t, ExtractHeadings("Just some plain text.\n\nAnother paragraph.\n"))
	assert.Empty(t, ExtractHeadings(""))
}

func TestNormalizeLevels(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"contiguous", []int{1, 2, 3, 2}, []int{1, 2, 3, 2}},
		{"missing level 2", []int{1, 1, 3, 3, 1}, []int{1, 1, 2, 2, 1}},
		{"only level 3", []int{3, 3}, []int{1, 1}},
		{"starts at 2 with hole", []int{2, 4, 2}, []int{1, 2, 1}},
		{"deep levels kept beyond threshold", []int{1, 2, 3, 5}, []int{1, 2, 3, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := make([]doctree.Heading, len(tt.in))
			for i, l := range tt.in {
				hs[i] = doctree.Heading{Level: l, StartLine: i}
			}
			got := NormalizeLevels(hs)
			assert.Equal(t, tt.want, levels(got))
			assert.Equal(t, tt.in, levels(hs), "input must not be modified")
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a\n", "b"}, SplitLines("a\nb"))
	assert.Equal(t, []string{"a\n", "\n", "b\n"}, SplitLines("a\n\nb\n"))
}
