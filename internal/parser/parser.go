package parser

import (
	"path/filepath"
	"strings"

	"github.com/dgallion1/mdsplit/internal/doctree"
)

// SupportedExtensions lists the input file types accepted from disk.
var SupportedExtensions = map[string]bool{
	".json":     true,
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// IsMarkdownFile reports whether filename holds one bare Markdown
// document rather than a JSON batch.
func IsMarkdownFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}

// DocumentFromMarkdown wraps a standalone Markdown file as a batch
// document. The title is the first heading's, or the file name without
// its extension when there is none.
func DocumentFromMarkdown(markdown, filename string) doctree.Document {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	title := stem
	if hs := ExtractHeadings(markdown); len(hs) > 0 && hs[0].Title != "" {
		title = hs[0].Title
	}
	return doctree.Document{
		DocID:    stem,
		Title:    title,
		Link:     filename,
		Markdown: markdown,
	}
}
