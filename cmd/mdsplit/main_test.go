package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/mdsplit/internal/doctree"
)

const batch = `[
  {"doc_id": "a", "title": "Alpha", "link": "https://example.com/a", "year": 2024, "category": "guide",
   "markdown": "# A\n\nshort\n\n# B\n\nshort2\n"},
  {"doc_id": "b", "title": "Beta", "year": "2023", "category": "guide", "markdown": "text"}
]`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	// Keep config lookup away from any mdsplit.yaml in the working tree.
	args = append([]string{"--config", emptyConfig(t)}, args...)

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func emptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mdsplit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	return path
}

func TestFlat_Stdin(t *testing.T) {
	out, err := run(t, batch, "flat")
	require.NoError(t, err)

	var records []doctree.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].Metadata["doc_id"])
	assert.Equal(t, "2024", records[0].Metadata["year"])
}

func TestTree_FilesAndChunksOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "batch.json")
	output := filepath.Join(dir, "tree.json")
	chunks := filepath.Join(dir, "chunks.json")
	require.NoError(t, os.WriteFile(input, []byte(batch), 0o644))

	_, err := run(t, "", "tree", "--input", input, "--output", output, "--chunks-output", chunks, "--max-chunk-size", "400")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var trees []doctree.Section
	require.NoError(t, json.Unmarshal(data, &trees))
	require.Len(t, trees, 1)
	require.Len(t, trees[0].Children, 2)
	assert.Equal(t, []string{"A"}, trees[0].Children[0].Breadcrumb)

	data, err = os.ReadFile(chunks)
	require.NoError(t, err)
	var flat []doctree.Chunk
	require.NoError(t, json.Unmarshal(data, &flat))
	require.Len(t, flat, 2)
	assert.Equal(t, "short", flat[0].Text)
	assert.Equal(t, "short2", flat[1].Text)
}

func TestFlat_YAML(t *testing.T) {
	out, err := run(t, batch, "flat", "--format", "yaml")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Contains(t, records[0], "text")
	assert.Contains(t, records[0], "metadata")
}

func TestTree_Documents(t *testing.T) {
	out, err := run(t, batch, "tree", "--format", "documents")
	require.NoError(t, err)

	var docs []struct {
		PageContent string
		Metadata    map[string]any
	}
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "short", docs[0].PageContent)
	assert.Equal(t, "a", docs[0].Metadata["doc_id"])
}

func TestChunk_Errors(t *testing.T) {
	_, err := run(t, batch, "flat", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, batch, "flat", "--max-chunk-size", "50")
	assert.ErrorContains(t, err, "flat profile")

	_, err = run(t, `{"not":"array"}`, "flat")
	assert.Error(t, err)

	_, err = run(t, `[{"title":"t"}]`, "flat")
	assert.ErrorContains(t, err, "all 1 documents failed")

	_, err = run(t, "", "flat", "--input", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "open input")

	_, err = run(t, "", "flat", "--input", "scan.pdf")
	assert.ErrorContains(t, err, "unsupported input")
}

func TestTree_MarkdownFileInput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "guide.md")
	require.NoError(t, os.WriteFile(input, []byte("# Guide\n\n## Setup\n\nrun it\n"), 0o644))

	out, err := run(t, "", "tree", "--input", input)
	require.NoError(t, err)

	var trees []doctree.Section
	require.NoError(t, json.Unmarshal([]byte(out), &trees))
	require.Len(t, trees, 1)
	require.Len(t, trees[0].Children, 1)
	setup := trees[0].Children[0].Children[0]
	assert.Equal(t, []string{"Guide", "Setup"}, setup.Breadcrumb)
	assert.Equal(t, "Guide", setup.Chunks[0].Metadata["doc_title"])
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdsplit.yaml")

	out, err := run(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = run(t, "", "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--config", path, "config", "show"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "max_chunk_size: 400")
	assert.Contains(t, buf.String(), "max_chunk_size: 500")
}
