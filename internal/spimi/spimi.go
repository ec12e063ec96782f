// Package spimi implements the single-pass in-memory indexing block builder
// from spec.md §4.2: accumulate (term, doc_id) pairs in memory, flush a
// sorted block to disk once the threshold is crossed, and repeat until the
// corpus is exhausted. The accumulator also derives the two per-document
// summaries the merge step's companion payload needs: the all-doc-id
// universe for Boolean NOT, and the ltc.lnc length norm for ranked cosine
// scoring — both computed incrementally as doc_id boundaries are crossed in
// the pair stream, since the tokenizer guarantees documents arrive in
// ascending doc_id order with all of one document's pairs contiguous.
//
// The roaring bitmap accumulator for Boolean postings is the same
// dependency the teacher's index.go reaches for instant doc-id set
// membership, repurposed here as a block's per-term scratch structure
// rather than the index's primary storage.
package spimi

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/kestrel-ir/spindex/internal/codec"
	"github.com/kestrel-ir/spindex/internal/dictfile"
	"github.com/kestrel-ir/spindex/internal/tokenizer"
)

// Result is what a completed accumulation run hands off to the merge step.
type Result struct {
	BlockFiles []string
	AllDocIDs  *roaring.Bitmap // populated for dictfile.ModeBoolean
	Lengths    map[int]float64 // populated for dictfile.ModeRanked
}

// Accumulator holds one block's worth of in-memory postings plus the
// running per-document state that survives across block flushes.
type Accumulator struct {
	mode       dictfile.Mode
	threshold  int
	writeSkips bool
	blockDir   string

	boolPostings   map[string]*roaring.Bitmap
	rankedPostings map[string]map[int]int // term -> doc_id -> term_freq
	pairCount      int
	blockIndex     int
	blockFiles     []string

	currentDocID       int
	currentDocTermFreq map[string]int
	haveCurrentDoc     bool

	allDocIDs *roaring.Bitmap
	lengths   map[int]float64
}

// NewAccumulator prepares a block accumulator. writeSkips is honored only
// for dictfile.ModeBoolean — ranked postings are read linearly by the
// cosine evaluator (spec.md §4.4 has no skip-intersection step), so ranked
// blocks never carry skip pointers regardless of the flag.
func NewAccumulator(mode dictfile.Mode, threshold int, writeSkips bool, blockDir string) *Accumulator {
	a := &Accumulator{
		mode:       mode,
		threshold:  threshold,
		writeSkips: writeSkips,
		blockDir:   blockDir,
	}
	switch mode {
	case dictfile.ModeBoolean:
		a.boolPostings = make(map[string]*roaring.Bitmap)
		a.allDocIDs = roaring.New()
	case dictfile.ModeRanked:
		a.rankedPostings = make(map[string]map[int]int)
		a.lengths = make(map[int]float64)
	}
	return a
}

// Process consumes the tokenizer's pair stream to completion, flushing
// blocks as the threshold is crossed and returning the accumulated corpus
// summaries. It returns the first error observed on errc, if any.
func (a *Accumulator) Process(ctx context.Context, pairs <-chan tokenizer.Pair, errc <-chan error) (Result, error) {
	for p := range pairs {
		if !a.haveCurrentDoc || p.DocID != a.currentDocID {
			if a.haveCurrentDoc {
				a.finalizeCurrentDoc()
			}
			if a.pairCount >= a.threshold {
				if err := a.flush(); err != nil {
					return Result{}, err
				}
			}
			a.startDoc(p.DocID)
		}
		a.addPosting(p.Term, p.DocID)
		a.pairCount++
	}

	if err := <-errc; err != nil {
		return Result{}, err
	}

	if a.haveCurrentDoc {
		a.finalizeCurrentDoc()
	}
	if a.pairCount > 0 {
		if err := a.flush(); err != nil {
			return Result{}, err
		}
	}

	return Result{
		BlockFiles: a.blockFiles,
		AllDocIDs:  a.allDocIDs,
		Lengths:    a.lengths,
	}, nil
}

func (a *Accumulator) startDoc(docID int) {
	a.currentDocID = docID
	a.currentDocTermFreq = make(map[string]int)
	a.haveCurrentDoc = true
	if a.allDocIDs != nil {
		a.allDocIDs.Add(uint32(docID))
	}
}

func (a *Accumulator) addPosting(term string, docID int) {
	a.currentDocTermFreq[term]++
	switch a.mode {
	case dictfile.ModeBoolean:
		bm, ok := a.boolPostings[term]
		if !ok {
			bm = roaring.New()
			a.boolPostings[term] = bm
		}
		bm.Add(uint32(docID))
	case dictfile.ModeRanked:
		m, ok := a.rankedPostings[term]
		if !ok {
			m = make(map[int]int)
			a.rankedPostings[term] = m
		}
		m[docID]++
	}
}

// finalizeCurrentDoc computes the document's ltc.lnc length norm
// sqrt(sum((1+log10(tf))^2)) over its term frequencies, spec.md §4.4's
// document-side weighting scheme, and records it against the doc_id.
func (a *Accumulator) finalizeCurrentDoc() {
	if a.mode != dictfile.ModeRanked {
		return
	}
	var sumSquares float64
	for _, tf := range a.currentDocTermFreq {
		w := 1 + math.Log10(float64(tf))
		sumSquares += w * w
	}
	a.lengths[a.currentDocID] = math.Sqrt(sumSquares)
}

// flush sorts and writes the current block's postings to a new block file,
// then resets the in-memory accumulator for the next block. Because flush
// only ever runs at a document boundary, every block covers a contiguous,
// disjoint range of doc_ids — the merge step relies on this to concatenate
// same-term postings across blocks without re-sorting or de-duplicating.
func (a *Accumulator) flush() error {
	path := filepath.Join(a.blockDir, fmt.Sprintf("block-%05d.txt", a.blockIndex))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("spimi: creating block file: %w", err)
	}
	w := bufio.NewWriter(f)

	var terms []string
	switch a.mode {
	case dictfile.ModeBoolean:
		terms = make([]string, 0, len(a.boolPostings))
		for t := range a.boolPostings {
			terms = append(terms, t)
		}
	case dictfile.ModeRanked:
		terms = make([]string, 0, len(a.rankedPostings))
		for t := range a.rankedPostings {
			terms = append(terms, t)
		}
	}
	sort.Strings(terms)

	for _, term := range terms {
		encoded, err := a.encodeTerm(term)
		if err != nil {
			f.Close()
			return fmt.Errorf("spimi: encoding term %q: %w", term, err)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", term, encoded); err != nil {
			f.Close()
			return fmt.Errorf("spimi: writing block entry: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("spimi: flushing block file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("spimi: closing block file: %w", err)
	}

	slog.Info("flushed spimi block",
		slog.String("path", path),
		slog.Int("terms", len(terms)),
		slog.Int("pairs", a.pairCount))

	a.blockFiles = append(a.blockFiles, path)
	a.blockIndex++
	a.pairCount = 0
	switch a.mode {
	case dictfile.ModeBoolean:
		a.boolPostings = make(map[string]*roaring.Bitmap)
	case dictfile.ModeRanked:
		a.rankedPostings = make(map[string]map[int]int)
	}
	return nil
}

func (a *Accumulator) encodeTerm(term string) (string, error) {
	switch a.mode {
	case dictfile.ModeBoolean:
		bm := a.boolPostings[term]
		it := bm.Iterator()
		entries := make([]codec.PlainEntry, 0, bm.GetCardinality())
		for it.HasNext() {
			entries = append(entries, codec.PlainEntry{DocID: int(it.Next())})
		}
		return codec.Encode(entries, false, a.writeSkips)
	case dictfile.ModeRanked:
		m := a.rankedPostings[term]
		docIDs := make([]int, 0, len(m))
		for id := range m {
			docIDs = append(docIDs, id)
		}
		// spec.md §3 describes ranked build order as descending term_freq,
		// ties ascending doc_id; this block sorts ascending by doc_id
		// instead, because the merge step concatenates same-term postings
		// across blocks and depends on each block's contribution already
		// being in ascending doc_id order. Scoring sums over every posting
		// regardless of its position in the list, so the ordering swap does
		// not change any result.
		sort.Ints(docIDs)
		entries := make([]codec.PlainEntry, len(docIDs))
		for i, id := range docIDs {
			entries[i] = codec.PlainEntry{DocID: id, TermFreq: m[id]}
		}
		return codec.Encode(entries, true, false)
	default:
		return "", fmt.Errorf("spimi: unknown mode %d", a.mode)
	}
}
