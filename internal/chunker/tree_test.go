package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dgallion1/mdsplit/internal/doctree"
	"github.com/dgallion1/mdsplit/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(md string, cfg Config) *doctree.Section {
	return BuildTree(parser.SplitLines(md), parser.ExtractHeadings(md), nil, cfg)
}

func TestChunkTree_ShortSections(t *testing.T) {
	doc := doctree.Document{
		DocID:    "d1",
		Title:    "Guide",
		Link:     "https://example.com/guide",
		Year:     "2024",
		Category: "manual",
		Markdown: "# A\n\nshort\n\n# B\n\nshort2\n",
	}
	root := ChunkTree(doc, Config{MaxChunkSize: 400, MinChunkSize: 100, OverlapSize: 50})

	assert.Equal(t, RootID, root.ID)
	assert.Empty(t, root.Chunks)
	require.Len(t, root.Children, 2)

	a, b := root.Children[0], root.Children[1]
	assert.Equal(t, []string{"A"}, a.Breadcrumb)
	assert.Equal(t, []string{"B"}, b.Breadcrumb)
	assert.Equal(t, 1, a.Level)
	assert.Equal(t, 1, b.Level)
	assert.Equal(t, 1, a.StartLine)
	assert.Equal(t, 4, a.EndLine)

	require.Len(t, a.Chunks, 1)
	require.Len(t, b.Chunks, 1)
	assert.Equal(t, "short", a.Chunks[0].Text)
	assert.Equal(t, "short2", b.Chunks[0].Text)

	md := a.Chunks[0].Metadata
	assert.Equal(t, "A", md["section_title"])
	assert.Equal(t, "A", md["section_breadcrumb"])
	assert.Equal(t, "a", md["section_anchor"])
	assert.Equal(t, "1/1", md["chunk_position"])
	assert.Equal(t, "final", md["chunk_type"])
	assert.Equal(t, 5, md["length"])
	assert.Equal(t, "Guide", md["doc_title"])
	assert.Equal(t, "2024", md["doc_year"])
	assert.Equal(t, "manual", md["doc_category"])
	assert.Equal(t, "https://example.com/guide", md["doc_link"])

	assert.Equal(t, StableID("A"), a.ID)
	assert.Equal(t, a.ID, a.Chunks[0].SectionID)
	assert.Equal(t, doctree.SectionMetadata{TotalChunks: 1, TotalLength: 8}, a.Metadata)
}

func TestBuildTree_Nesting(t *testing.T) {
	md := "Intro para.\n\n" +
		"# Top\n\ntop body\n\n" +
		"## Child\n\nchild body\n\n" +
		"### Grand\n\ng\n\n" +
		"## Child2\n\nc2\n\n" +
		"# Other\n\no\n"
	root := buildTree(md, DefaultTreeConfig())

	require.Len(t, root.Chunks, 1)
	assert.Equal(t, "Intro para.", root.Chunks[0].Text)
	assert.Equal(t, RootID, root.Chunks[0].SectionID)

	require.Len(t, root.Children, 2)
	top, other := root.Children[0], root.Children[1]
	assert.Equal(t, "Top", top.Title)
	assert.Equal(t, "Other", other.Title)

	require.Len(t, top.Children, 2)
	child := top.Children[0]
	assert.Equal(t, "Child2", top.Children[1].Title)

	require.Len(t, child.Children, 1)
	grand := child.Children[0]
	assert.Equal(t, 3, grand.Level)
	assert.Equal(t, []string{"Top", "Child", "Grand"}, grand.Breadcrumb)
	assert.Equal(t, "Top > Child > Grand", grand.Chunks[0].Metadata["section_breadcrumb"])
	assert.Equal(t, 3, grand.Chunks[0].Level)
	assert.NotContains(t, grand.Chunks[0].Metadata, "doc_title")

	assert.Equal(t,
		[]string{"Intro para.", "top body", "child body", "g", "c2", "o"},
		texts(doctree.AllChunks(root)))
}

func TestBuildTree_ChildLevelsExceedParent(t *testing.T) {
	md := "# A\n\n### C\n\nc\n\n## D\n\nd\n\n# E\n\ne\n"
	root := buildTree(md, DefaultTreeConfig())

	var check func(s *doctree.Section)
	check = func(s *doctree.Section) {
		for _, c := range s.Children {
			assert.Greater(t, c.Level, s.Level, "%s under %s", c.Title, s.Title)
			check(c)
		}
	}
	check(root)

	require.Len(t, root.Children, 2)
	require.Len(t, root.Children[0].Children, 2)
	assert.Equal(t, 3, root.Children[0].Children[0].Level)
	assert.Equal(t, 2, root.Children[0].Children[1].Level)
}

func TestBuildTree_DuplicateTitles(t *testing.T) {
	md := "# A\n\n## Notes\n\nx\n\n## Notes\n\ny\n"
	root := buildTree(md, DefaultTreeConfig())
	require.Len(t, root.Children, 1)
	notes := root.Children[0].Children
	require.Len(t, notes, 2)

	assert.Equal(t, StableID("A", "Notes"), notes[0].ID)
	assert.Equal(t, StableID("A", "Notes", "#1"), notes[1].ID)
	assert.NotEqual(t, notes[0].ID, notes[1].ID)

	again := buildTree(md, DefaultTreeConfig())
	assert.Equal(t, notes[1].ID, again.Children[0].Children[1].ID)
}

func TestBuildTree_EmptyBody(t *testing.T) {
	root := buildTree("# A\n# B\nbody\n", DefaultTreeConfig())
	require.Len(t, root.Children, 2)

	a := root.Children[0]
	require.Len(t, a.Chunks, 1)
	assert.Equal(t, "", a.Chunks[0].Text)
	assert.Equal(t, doctree.SectionMetadata{TotalChunks: 1, TotalLength: 0}, a.Metadata)
	assert.Equal(t, "body", root.Children[1].Chunks[0].Text)
}

func TestBuildTree_NoHeadings(t *testing.T) {
	root := buildTree("plain text\n", DefaultTreeConfig())
	require.Len(t, root.Chunks, 1)
	assert.Equal(t, "plain text", root.Chunks[0].Text)
	assert.NotNil(t, root.Children)
	assert.Empty(t, root.Children)
	assert.Equal(t, []string{}, root.Breadcrumb)
}

func TestBuildTree_BlankPreface(t *testing.T) {
	root := buildTree("\n\n# A\nx\n", DefaultTreeConfig())
	assert.NotNil(t, root.Chunks)
	assert.Empty(t, root.Chunks)
	assert.Equal(t, doctree.SectionMetadata{TotalChunks: 0, TotalLength: 2}, root.Metadata)
}

func TestBuildTree_LongSectionPositions(t *testing.T) {
	md := "# Getting Started\n\n" + strings.Repeat("Install the tool and run it. ", 60)
	root := buildTree(md, DefaultTreeConfig())
	require.Len(t, root.Children, 1)

	sec := root.Children[0]
	assert.Equal(t, "getting-started", sec.Anchor)
	require.Greater(t, len(sec.Chunks), 2)

	for i, c := range sec.Chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, fmt.Sprintf("%d/%d", i+1, len(sec.Chunks)), c.Metadata["chunk_position"])
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), DefaultTreeConfig().MaxChunkSize)
		assert.Equal(t, utf8.RuneCountInString(c.Text), c.Metadata["length"])
		if i == len(sec.Chunks)-1 {
			assert.Equal(t, "final", c.Metadata["chunk_type"])
		} else {
			assert.Equal(t, "normal", c.Metadata["chunk_type"])
		}
		if i > 0 {
			assert.Greater(t, c.StartChar, sec.Chunks[i-1].StartChar)
			assert.Less(t, c.StartChar, sec.Chunks[i-1].EndChar, "consecutive chunks overlap")
		}
	}
	assert.Equal(t, len(sec.Chunks), sec.Metadata.TotalChunks)
}

func TestBuildTree_TableOpensSectionBody(t *testing.T) {
	var tb strings.Builder
	tb.WriteString("| key | value |\n| --- | --- |\n")
	for range 12 {
		tb.WriteString("| some key | some value |\n")
	}
	table := tb.String()
	md := "# Data\n" + table + strings.Repeat("Closing remarks follow here. ", 20) + "\n"
	cfg := Config{MaxChunkSize: 200, MinChunkSize: 50, OverlapSize: 20}

	root := buildTree(md, cfg)
	require.Len(t, root.Children, 1)
	sec := root.Children[0]

	body := strings.Join(parser.SplitLines(md)[sec.StartLine:sec.EndLine], "")
	spans := DetectTables(body)
	require.Len(t, spans, 1)
	require.Equal(t, 0, spans[0].Start)

	require.Greater(t, len(sec.Chunks), 2)
	first := sec.Chunks[0]
	assert.Equal(t, 0, first.StartChar)
	assert.Equal(t, spans[0].End, first.EndChar)
	assert.Equal(t, strings.TrimSpace(table), first.Text)

	// The stride after the table resumes at its end.
	assert.Equal(t, spans[0].End, sec.Chunks[1].StartChar)
	for _, c := range sec.Chunks[1:] {
		assert.NotContains(t, c.Text, "|")
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), cfg.MaxChunkSize)
	}
}
