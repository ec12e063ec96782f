// Command index builds a dictionary file and postings file from a
// directory of documents, per spec.md §6's "index" CLI contract. Build mode
// (Boolean or ranked) is selected with --mode, the Open Question resolution
// recorded in SPEC_FULL.md §1.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrel-ir/spindex/internal/config"
	"github.com/kestrel-ir/spindex/internal/dictfile"
	"github.com/kestrel-ir/spindex/internal/merge"
	"github.com/kestrel-ir/spindex/internal/spimi"
	"github.com/kestrel-ir/spindex/internal/tokenizer"
)

func main() {
	os.Exit(run())
}

// run returns spec.md §7's exit code contract: 2 for a usage error (missing
// or invalid flags, caught before RunE ever starts doing work), 1 for any
// other failure.
func run() int {
	cmd := newRootCmd()
	ran, err := cmd.ExecuteC()
	if err == nil {
		return 0
	}
	if ran != nil && ran.SilenceUsage {
		return 1
	}
	return 2
}

func newRootCmd() *cobra.Command {
	var (
		docsDir    string
		dictPath   string
		postings   string
		mode       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build a dictionary and postings file from a document directory",
		Long: "usage: index -i directory-of-documents -d dictionary-file -p postings-file " +
			"[--mode boolean|ranked] [--config path]",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseMode(mode); err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return runIndex(cmd.Context(), docsDir, dictPath, postings, mode, configPath)
		},
	}

	cmd.Flags().StringVarP(&docsDir, "input", "i", "", "directory of documents to index (required)")
	cmd.Flags().StringVarP(&dictPath, "dictionary", "d", "", "output dictionary file path (required)")
	cmd.Flags().StringVarP(&postings, "postings", "p", "", "output postings file path (required)")
	cmd.Flags().StringVar(&mode, "mode", "boolean", "build mode: boolean or ranked")
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML tuning file")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("dictionary")
	cmd.MarkFlagRequired("postings")

	return cmd
}

func runIndex(ctx context.Context, docsDir, dictPath, postingsPath, modeFlag, configPath string) error {
	buildMode, err := parseMode(modeFlag)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = cfg.Defaulted()

	blockDir, err := os.MkdirTemp("", "spindex-blocks-*")
	if err != nil {
		return fmt.Errorf("index: creating scratch directory: %w", err)
	}
	defer os.RemoveAll(blockDir)

	corpus := tokenizer.Corpus{Dir: docsDir}
	pairs, errc := corpus.Generate(ctx)

	acc := spimi.NewAccumulator(buildMode, cfg.Threshold, *cfg.WriteSkips, blockDir)
	slog.Info("indexing started", slog.String("docs", docsDir), slog.String("mode", modeFlag))

	result, err := acc.Process(ctx, pairs, errc)
	if err != nil {
		return fmt.Errorf("index: accumulating blocks: %w", err)
	}

	if err := merge.Run(merge.Options{
		Mode:         buildMode,
		BlockFiles:   result.BlockFiles,
		PostingsPath: postingsPath,
		DictPath:     dictPath,
		WriteSkips:   *cfg.WriteSkips,
		AllDocIDs:    result.AllDocIDs,
		Lengths:      result.Lengths,
	}); err != nil {
		return fmt.Errorf("index: merging blocks: %w", err)
	}

	slog.Info("indexing complete", slog.String("dictionary", dictPath), slog.String("postings", postingsPath))
	return nil
}

func parseMode(s string) (dictfile.Mode, error) {
	switch s {
	case "boolean":
		return dictfile.ModeBoolean, nil
	case "ranked":
		return dictfile.ModeRanked, nil
	default:
		return 0, fmt.Errorf("index: unknown --mode %q (want boolean or ranked)", s)
	}
}
