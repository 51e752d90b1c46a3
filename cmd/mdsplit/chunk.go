package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/mdsplit/internal/chunker"
	"github.com/dgallion1/mdsplit/internal/config"
	"github.com/dgallion1/mdsplit/internal/doctree"
	"github.com/dgallion1/mdsplit/internal/parser"
	"github.com/dgallion1/mdsplit/internal/pipeline"
)

type chunkOptions struct {
	input        string
	output       string
	format       string
	chunksOutput string
	maxChunkSize int
	minChunkSize int
	overlapSize  int
	workers      int
}

func newChunkCmd(root *rootOptions, mode pipeline.Mode) *cobra.Command {
	opts := &chunkOptions{}
	cmd := &cobra.Command{
		Use:  string(mode),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunk(cmd, root, opts, mode)
		},
	}
	switch mode {
	case pipeline.ModeTree:
		cmd.Short = "Build a section tree per document"
		cmd.Flags().StringVar(&opts.chunksOutput, "chunks-output", "", "also write every chunk as a flat list to this file")
	default:
		cmd.Short = "Produce one merged, overlapped chunk list per document"
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "-", "JSON batch file, - for stdin")
	f.StringVarP(&opts.output, "output", "o", "-", "output file, - for stdout")
	f.StringVarP(&opts.format, "format", "f", "json", "output format: json, yaml or documents")
	f.IntVar(&opts.maxChunkSize, "max-chunk-size", 0, "chunk size ceiling in characters (default from config)")
	f.IntVar(&opts.minChunkSize, "min-chunk-size", 0, "boundary search floor in characters (default from config)")
	f.IntVar(&opts.overlapSize, "overlap-size", 0, "overlap in characters (default from config)")
	f.IntVar(&opts.workers, "workers", 0, "documents chunked in parallel (default from config)")
	return cmd
}

func runChunk(cmd *cobra.Command, root *rootOptions, opts *chunkOptions, mode pipeline.Mode) error {
	log := root.logger(cmd.ErrOrStderr())

	switch opts.format {
	case "json", "yaml", "documents":
	default:
		return fmt.Errorf("unknown format %q (want json, yaml or documents)", opts.format)
	}

	mgr, err := config.NewManager(root.cfgFile, log)
	if err != nil {
		return err
	}
	cfg := mgr.Get()

	profiles := pipeline.Profiles{Flat: cfg.Flat, Tree: cfg.Tree}
	target := &profiles.Flat
	if mode == pipeline.ModeTree {
		target = &profiles.Tree
	}
	flags := cmd.Flags()
	if flags.Changed("max-chunk-size") {
		target.MaxChunkSize = opts.maxChunkSize
	}
	if flags.Changed("min-chunk-size") {
		target.MinChunkSize = opts.minChunkSize
	}
	if flags.Changed("overlap-size") {
		target.OverlapSize = opts.overlapSize
	}
	if err := target.Validate(); err != nil {
		return fmt.Errorf("%s profile: %w", mode, err)
	}

	workers := opts.workers
	if workers <= 0 {
		workers = cfg.MaxConcurrentDocs
	}

	raws, err := readBatch(cmd, opts.input)
	if err != nil {
		return err
	}
	log.Debug("batch decoded", "documents", len(raws), "mode", mode, "profile", *target)

	results, err := pipeline.RunBatch(cmd.Context(), raws, mode, profiles, workers, nil)
	if err != nil {
		return err
	}

	failures := pipeline.Failures(results)
	for _, r := range failures {
		log.Warn("document skipped", "index", r.Index, "error", r.Error)
	}
	if len(raws) > 0 && len(failures) == len(raws) {
		return fmt.Errorf("all %d documents failed", len(raws))
	}

	var out any
	switch {
	case opts.format == "documents":
		out = pipeline.Documents(results)
	case mode == pipeline.ModeTree:
		out = pipeline.Trees(results)
	default:
		out = pipeline.FlatRecords(results)
	}
	if err := writeOutput(cmd, opts.output, opts.format, out); err != nil {
		return err
	}

	if opts.chunksOutput != "" {
		var chunks []doctree.Chunk
		for _, t := range pipeline.Trees(results) {
			chunks = append(chunks, doctree.AllChunks(t)...)
		}
		var v any = chunks
		if opts.format == "documents" {
			v = chunker.ToDocuments(chunks, nil)
		}
		if err := writeOutput(cmd, opts.chunksOutput, opts.format, v); err != nil {
			return err
		}
	}

	chunkCount := 0
	for _, r := range results {
		chunkCount += r.ChunkCount()
	}
	log.Info("chunked batch",
		"mode", mode,
		"documents", len(results)-len(failures),
		"failed", len(failures),
		"chunks", chunkCount,
	)
	return nil
}

// readBatch reads a JSON batch from path or stdin. A Markdown file on
// disk becomes a batch of one.
func readBatch(cmd *cobra.Command, path string) ([]json.RawMessage, error) {
	if path == "" || path == "-" {
		return parser.DecodeBatch(cmd.InOrStdin())
	}
	if !parser.IsSupportedExtension(path) {
		return nil, fmt.Errorf("unsupported input file type: %s", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	if !parser.IsMarkdownFile(path) {
		return parser.DecodeBatch(bytes.NewReader(data))
	}
	raw, err := json.Marshal(parser.DocumentFromMarkdown(string(data), path))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return []json.RawMessage{raw}, nil
}

func writeOutput(cmd *cobra.Command, path, format string, v any) (err error) {
	w := cmd.OutOrStdout()
	if path != "" && path != "-" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return fmt.Errorf("create output: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return encode(w, format, v)
}

// encode writes v as YAML for format "yaml" and as indented JSON otherwise.
func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
