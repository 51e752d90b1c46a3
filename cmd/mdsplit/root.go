package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/mdsplit/internal/pipeline"
)

type rootOptions struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "mdsplit",
		Short: "Split Markdown documents into bounded-size chunks for retrieval",
		Long: `mdsplit reads a JSON batch of Markdown documents and splits each one
into chunks that respect heading structure and never break a pipe table.

Two modes are available:
  flat  one merged, overlapped chunk list per document
  tree  a section tree whose sections own their chunks`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(
		&opts.cfgFile, "config", "", "config file (default: ./mdsplit.yaml or ~/.mdsplit/mdsplit.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newChunkCmd(opts, pipeline.ModeFlat),
		newChunkCmd(opts, pipeline.ModeTree),
		newConfigCmd(opts),
	)
	return cmd
}

// logger writes human-readable logs to the command's stderr.
func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
