package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/mdsplit/internal/doctree"
	"github.com/dgallion1/mdsplit/internal/parser"
)

// RootID is the identifier of every tree's root section.
const RootID = "root"

// treeNode is an arena entry; children are arena indices.
type treeNode struct {
	sec      doctree.Section
	children []int
}

type treeBuilder struct {
	lines []string
	doc   *doctree.Document
	cfg   Config
	nodes []treeNode
	seen  map[string]int
}

// ChunkTree parses doc's Markdown and builds its section tree.
func ChunkTree(doc doctree.Document, cfg Config) *doctree.Section {
	cfg = cfg.WithDefaults(DefaultTreeConfig())
	lines := parser.SplitLines(doc.Markdown)
	return BuildTree(lines, parser.ExtractHeadings(doc.Markdown), &doc, cfg)
}

// BuildTree assembles headings into a section tree. Each section owns the
// chunks of its body: the lines after its heading up to the next heading
// of any level. The root owns the text ahead of the first heading. doc
// may be nil, in which case chunks carry section metadata only.
func BuildTree(lines []string, headings []doctree.Heading, doc *doctree.Document, cfg Config) *doctree.Section {
	b := &treeBuilder{
		lines: lines,
		doc:   doc,
		cfg:   cfg,
		seen:  make(map[string]int),
	}

	rootEnd := len(lines)
	if len(headings) > 0 {
		rootEnd = headings[0].StartLine
	}
	root := doctree.Section{
		Level:      0,
		StartLine:  0,
		EndLine:    rootEnd,
		Breadcrumb: []string{},
		ID:         RootID,
	}
	preface := b.text(0, rootEnd)
	if strings.TrimSpace(preface) != "" {
		root.Chunks = SliceSection(preface, RootID, cfg)
	}
	b.finish(&root, preface)
	b.nodes = append(b.nodes, treeNode{sec: root})

	stack := []int{0}
	for i, h := range headings {
		bodyStart := min(h.StartLine+1, len(lines))
		bodyEnd := len(lines)
		if i+1 < len(headings) {
			bodyEnd = headings[i+1].StartLine
		}
		bodyStart = min(bodyStart, bodyEnd)

		for len(stack) > 1 && h.Level <= b.nodes[stack[len(stack)-1]].sec.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]

		breadcrumb := append(append([]string{}, b.nodes[parent].sec.Breadcrumb...), h.Title)
		id := b.sectionID(breadcrumb)
		body := b.text(bodyStart, bodyEnd)

		sec := doctree.Section{
			Level:      h.Level,
			Title:      h.Title,
			Anchor:     Slugify(h.Title),
			StartLine:  bodyStart,
			EndLine:    bodyEnd,
			Breadcrumb: breadcrumb,
			ID:         id,
			Chunks:     SliceSection(body, id, cfg),
		}
		b.finish(&sec, body)

		b.nodes = append(b.nodes, treeNode{sec: sec})
		idx := len(b.nodes) - 1
		b.nodes[parent].children = append(b.nodes[parent].children, idx)
		stack = append(stack, idx)
	}

	return b.materialize(0)
}

func (b *treeBuilder) text(start, end int) string {
	return strings.Join(b.lines[start:end], "")
}

// sectionID derives the section's identifier from its breadcrumb. A
// breadcrumb seen before in this document is salted with its ordinal so
// sibling sections with equal titles stay distinct.
func (b *treeBuilder) sectionID(breadcrumb []string) string {
	id := StableID(breadcrumb...)
	n := b.seen[id]
	b.seen[id]++
	if n == 0 {
		return id
	}
	return StableID(append(append([]string{}, breadcrumb...), fmt.Sprintf("#%d", n))...)
}

// finish sets section counters and stamps every chunk with its section
// and document context.
func (b *treeBuilder) finish(sec *doctree.Section, body string) {
	if sec.Chunks == nil {
		sec.Chunks = []doctree.Chunk{}
	}
	sec.Metadata = doctree.SectionMetadata{
		TotalChunks: len(sec.Chunks),
		TotalLength: utf8.RuneCountInString(body),
	}

	crumb := strings.Join(sec.Breadcrumb, " > ")
	for i := range sec.Chunks {
		c := &sec.Chunks[i]
		c.Level = sec.Level
		c.SectionID = sec.ID
		kind := "normal"
		if i == len(sec.Chunks)-1 {
			kind = "final"
		}
		md := doctree.Metadata{
			"chunk_type":         kind,
			"length":             utf8.RuneCountInString(c.Text),
			"section_title":      sec.Title,
			"section_breadcrumb": crumb,
			"section_anchor":     sec.Anchor,
			"chunk_position":     fmt.Sprintf("%d/%d", i+1, len(sec.Chunks)),
		}
		if b.doc != nil {
			md["doc_title"] = b.doc.Title
			md["doc_year"] = b.doc.Year
			md["doc_category"] = b.doc.Category
			md["doc_link"] = b.doc.Link
		}
		c.Metadata = md
	}
}

func (b *treeBuilder) materialize(i int) *doctree.Section {
	n := b.nodes[i]
	sec := n.sec
	sec.Children = make([]*doctree.Section, 0, len(n.children))
	for _, c := range n.children {
		sec.Children = append(sec.Children, b.materialize(c))
	}
	return &sec
}
