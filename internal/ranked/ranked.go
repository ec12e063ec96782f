// Package ranked implements the ltc.lnc cosine-scored retrieval evaluator
// from spec.md §4.4: the query vector uses log-tf * idf weights and is not
// length normalized; document vectors use log-tf weights only (no idf),
// cosine normalized at query time by dividing each document's score by the
// length norm the SPIMI accumulator precomputed for it. Scores accumulate term-at-a-time
// by streaming each query term's posting list, the standard vector-space
// "document-at-a-time is memory-heavy, term-at-a-time is not" tradeoff.
package ranked

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/kestrel-ir/spindex/internal/codec"
	"github.com/kestrel-ir/spindex/internal/dictfile"
	"github.com/kestrel-ir/spindex/internal/queryparse"
)

var ErrNotRankedMode = errors.New("ranked: dictionary is not in ranked mode")

// DefaultTopK is spec.md §4.4's result-set size.
const DefaultTopK = 10

// Result is one scored document in a ranked result set.
type Result struct {
	DocID int
	Score float64
}

// Evaluator resolves a free-text query against a ranked dictionary and its
// postings file.
type Evaluator struct {
	dict     *dictfile.Dictionary
	postings io.ReaderAt
}

// NewEvaluator binds a dictionary (which must be in ModeRanked) to the
// postings file it was built from.
func NewEvaluator(dict *dictfile.Dictionary, postings io.ReaderAt) (*Evaluator, error) {
	if dict.Mode != dictfile.ModeRanked {
		return nil, ErrNotRankedMode
	}
	return &Evaluator{dict: dict, postings: postings}, nil
}

// Search scores every document that shares at least one term with query and
// returns the top k by descending score, ties broken by ascending doc_id.
func (e *Evaluator) Search(query string, k int) ([]Result, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	totalDocs := len(e.dict.Lengths)
	if totalDocs == 0 {
		return nil, nil
	}

	queryTF := make(map[string]int)
	for _, term := range queryparse.RankedTerms(query) {
		queryTF[term]++
	}

	scores := make(map[int]float64)

	for term, tf := range queryTF {
		entry, ok := e.dict.Terms[term]
		if !ok {
			continue
		}
		idf := math.Log10(float64(totalDocs) / float64(entry.DocFreq))
		weightQ := (1 + math.Log10(float64(tf))) * idf
		if weightQ == 0 {
			continue
		}

		_, entries, err := codec.DecodeAll(e.postings, entry.Offset)
		if err != nil {
			return nil, fmt.Errorf("ranked: reading postings for %q: %w", term, err)
		}
		for _, posting := range entries {
			weightD := 1 + math.Log10(float64(posting.TermFreq))
			scores[posting.DocID] += weightQ * weightD
		}
	}

	if len(scores) == 0 {
		return nil, nil
	}

	// score = Σ w_{t,d}·w_{t,q} / length[d] — spec.md §4.6 step 5. The
	// document length norm is already baked into dict.Lengths at index
	// time; no further query-side normalization is applied here.
	results := make([]Result, 0, len(scores))
	for docID, raw := range scores {
		length := e.dict.Lengths[docID]
		var score float64
		if length > 0 {
			score = raw / length
		}
		results = append(results, Result{DocID: docID, Score: score})
	}

	// Stable sort ascending by doc_id first establishes the tie-break
	// order, then a stable sort descending by score preserves that order
	// among equal scores.
	sort.SliceStable(results, func(i, j int) bool { return results[i].DocID < results[j].DocID })
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
