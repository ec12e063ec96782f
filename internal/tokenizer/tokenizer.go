// Package tokenizer walks a corpus directory and produces the (term,
// doc_id) pair stream the SPIMI indexer consumes, grounded on
// original_source/Tokenizer.py's make_pair_generator: a generator that
// yields one pair per token, in increasing doc_id order, ending with a
// sentinel. Go has no generator expressions, so the sentinel becomes channel
// closure and the pull-based "next()" becomes a range over the channel —
// the idiomatic Go shape for a cooperative producer, the way the teacher's
// own index.go streams documents into its builder one at a time rather than
// materializing the whole corpus up front.
package tokenizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/kestrel-ir/spindex/internal/analyze"
)

// Pair is one (term, doc_id) emission. Within a single document, pairs are
// emitted in token order, so repeated terms appear once per occurrence —
// callers that need term frequency count repetitions themselves, exactly
// as the original generator leaves that aggregation to its caller.
type Pair struct {
	Term  string
	DocID int
}

// Corpus describes a directory of documents named by their numeric document
// id (e.g. "1", "2", "3", ...), the layout the original assignment corpus
// uses and spec.md's "documents directory" CLI flag assumes.
type Corpus struct {
	Dir string
}

// DocIDs returns every document id found in the corpus directory, sorted
// ascending. Filenames that do not parse as an integer are skipped with a
// warning, not treated as fatal — a stray README or .DS_Store alongside the
// real corpus files shouldn't abort indexing.
func (c Corpus) DocIDs() ([]int, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: reading corpus directory %q: %w", c.Dir, err)
	}
	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, err := strconv.Atoi(entry.Name())
		if err != nil {
			slog.Warn("skipping non-numeric corpus file name", slog.String("name", entry.Name()))
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// Generate streams (term, doc_id) pairs for every document in the corpus,
// in ascending doc_id order, closing the returned channel when the corpus
// is exhausted or ctx is canceled. Errors encountered mid-walk are sent on
// the error channel and the pair channel is closed immediately after.
func (c Corpus) Generate(ctx context.Context) (<-chan Pair, <-chan error) {
	pairs := make(chan Pair)
	errc := make(chan error, 1)

	go func() {
		defer close(pairs)
		defer close(errc)

		ids, err := c.DocIDs()
		if err != nil {
			errc <- err
			return
		}

		for _, docID := range ids {
			path := filepath.Join(c.Dir, strconv.Itoa(docID))
			content, err := os.ReadFile(path)
			if err != nil {
				errc <- fmt.Errorf("tokenizer: reading document %d: %w", docID, err)
				return
			}

			for _, term := range analyze.Tokens(string(content)) {
				select {
				case pairs <- Pair{Term: term, DocID: docID}:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			}
		}
	}()

	return pairs, errc
}
