// Command search answers queries against a dictionary/postings pair built
// by cmd/index, per spec.md §6's "search" CLI contract. --mode must match
// the mode the index was built with; the dictionary file's own mode byte is
// used to catch a mismatch early rather than misinterpreting the postings
// stream.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrel-ir/spindex/internal/boolean"
	"github.com/kestrel-ir/spindex/internal/dictfile"
	"github.com/kestrel-ir/spindex/internal/queryparse"
	"github.com/kestrel-ir/spindex/internal/ranked"
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
		dictPath     string
		postingsPath string
		queriesPath  string
		outputPath   string
		mode         string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Answer queries against a dictionary and postings file",
		Long: "usage: search -d dictionary-file -p postings-file -q file-of-queries " +
			"-o output-file-of-results [--mode boolean|ranked]",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != "boolean" && mode != "ranked" {
				return fmt.Errorf("search: unknown --mode %q (want boolean or ranked)", mode)
			}
			cmd.SilenceUsage = true
			return runSearch(dictPath, postingsPath, queriesPath, outputPath, mode)
		},
	}

	cmd.Flags().StringVarP(&dictPath, "dictionary", "d", "", "dictionary file path (required)")
	cmd.Flags().StringVarP(&postingsPath, "postings", "p", "", "postings file path (required)")
	cmd.Flags().StringVarP(&queriesPath, "queries", "q", "", "file of queries, one per line (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file of results (required)")
	cmd.Flags().StringVar(&mode, "mode", "boolean", "query mode: boolean or ranked")
	cmd.MarkFlagRequired("dictionary")
	cmd.MarkFlagRequired("postings")
	cmd.MarkFlagRequired("queries")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runSearch(dictPath, postingsPath, queriesPath, outputPath, modeFlag string) error {
	dictF, err := os.Open(dictPath)
	if err != nil {
		return fmt.Errorf("search: opening dictionary: %w", err)
	}
	defer dictF.Close()
	dict, err := dictfile.Read(dictF)
	if err != nil {
		return fmt.Errorf("search: reading dictionary: %w", err)
	}

	if err := checkModeMatches(dict.Mode, modeFlag); err != nil {
		return err
	}

	postingsF, err := os.Open(postingsPath)
	if err != nil {
		return fmt.Errorf("search: opening postings: %w", err)
	}
	defer postingsF.Close()

	queries, err := readQueries(queriesPath)
	if err != nil {
		return fmt.Errorf("search: reading queries: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("search: creating output file: %w", err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	defer w.Flush()

	switch dict.Mode {
	case dictfile.ModeBoolean:
		ev, err := boolean.NewEvaluator(dict, postingsF)
		if err != nil {
			return err
		}
		for _, q := range queries {
			runBooleanQuery(ev, q, w)
		}
	case dictfile.ModeRanked:
		ev, err := ranked.NewEvaluator(dict, postingsF)
		if err != nil {
			return err
		}
		for _, q := range queries {
			runRankedQuery(ev, q, w)
		}
	}

	return nil
}

func runBooleanQuery(ev *boolean.Evaluator, query string, w *bufio.Writer) {
	if query == "" {
		fmt.Fprintln(w)
		return
	}
	postfix, err := queryparse.ToPostfix(query)
	if err != nil {
		slog.Warn("error processing query", slog.String("query", query), slog.Any("error", err))
		fmt.Fprintln(w)
		return
	}
	tree, err := boolean.BuildTree(postfix)
	if err != nil {
		slog.Warn("error processing query", slog.String("query", query), slog.Any("error", err))
		fmt.Fprintln(w)
		return
	}
	ids, err := ev.Resolve(tree)
	if err != nil {
		slog.Warn("error processing query", slog.String("query", query), slog.Any("error", err))
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintln(w, joinInts(ids))
}

func runRankedQuery(ev *ranked.Evaluator, query string, w *bufio.Writer) {
	if query == "" {
		fmt.Fprintln(w)
		return
	}
	results, err := ev.Search(query, ranked.DefaultTopK)
	if err != nil {
		slog.Warn("error processing query", slog.String("query", query), slog.Any("error", err))
		fmt.Fprintln(w)
		return
	}
	ids := make([]int, len(results))
	for i, r := range results {
		ids[i] = r.DocID
	}
	fmt.Fprintln(w, joinInts(ids))
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var queries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		queries = append(queries, strings.TrimRight(sc.Text(), " \t\r\n"))
	}
	return queries, sc.Err()
}

func checkModeMatches(dictMode dictfile.Mode, modeFlag string) error {
	want := map[string]dictfile.Mode{"boolean": dictfile.ModeBoolean, "ranked": dictfile.ModeRanked}[modeFlag]
	if dictMode != want {
		return fmt.Errorf("search: --mode %s does not match dictionary file's build mode", modeFlag)
	}
	return nil
}
