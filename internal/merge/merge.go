// Package merge implements the n-way merge step that follows SPIMI block
// accumulation (spec.md §4.2): read every block's sorted (term, postings)
// lines in lockstep, join the postings for matching terms across blocks,
// and write one consolidated postings file plus its dictionary.
//
// Because spimi.Accumulator only ever flushes a block at a document
// boundary, every block covers a disjoint, increasing range of doc_ids.
// That means a term's postings across several blocks are already globally
// sorted once the blocks are read in ascending block-index order — merging
// is concatenation, not a sorted interleave, and the classic k-way
// postings-merge only has to worry about finding the next lexicographically
// smallest term, which is exactly what container/heap (the standard
// library's only priority-queue primitive, and the right tool here since
// none of the retrieval pack's example repos ship a k-way merge utility)
// is for.
package merge

import (
	"bufio"
	"container/heap"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/kestrel-ir/spindex/internal/codec"
	"github.com/kestrel-ir/spindex/internal/dictfile"
)

// Options configures a merge run.
type Options struct {
	Mode         dictfile.Mode
	BlockFiles   []string
	PostingsPath string
	DictPath     string
	WriteSkips   bool // honored only for dictfile.ModeBoolean
	AllDocIDs    *roaring.Bitmap
	Lengths      map[int]float64
}

type blockCursor struct {
	scanner *bufio.Scanner
	file    *os.File
	index   int
	term    string
	body    string
	ok      bool
}

func (c *blockCursor) advance() error {
	if !c.scanner.Scan() {
		c.ok = false
		return c.scanner.Err()
	}
	line := c.scanner.Text()
	i := strings.IndexByte(line, '\t')
	if i < 0 {
		return fmt.Errorf("merge: malformed block line %q", line)
	}
	c.term, c.body, c.ok = line[:i], line[i+1:], true
	return nil
}

// heapQueue orders active cursors by term, breaking ties by block index so
// a group's cursors pop in block order; Run still sorts each group by block
// index before merging it.
type heapQueue []*blockCursor

func (h heapQueue) Len() int { return len(h) }
func (h heapQueue) Less(i, j int) bool {
	if h[i].term != h[j].term {
		return h[i].term < h[j].term
	}
	return h[i].index < h[j].index
}
func (h heapQueue) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *heapQueue) Push(x interface{}) { *h = append(*h, x.(*blockCursor)) }
func (h *heapQueue) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Run performs the merge described by opts, then deletes the block files.
func Run(opts Options) error {
	cursors := make([]*blockCursor, 0, len(opts.BlockFiles))
	defer func() {
		for _, c := range cursors {
			c.file.Close()
		}
	}()

	q := &heapQueue{}
	for i, path := range opts.BlockFiles {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("merge: opening block %q: %w", path, err)
		}
		c := &blockCursor{scanner: bufio.NewScanner(f), file: f, index: i}
		c.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		cursors = append(cursors, c)
		if err := c.advance(); err != nil {
			return fmt.Errorf("merge: reading block %q: %w", path, err)
		}
		if c.ok {
			heap.Push(q, c)
		}
	}

	out, err := os.Create(opts.PostingsPath)
	if err != nil {
		return fmt.Errorf("merge: creating postings file: %w", err)
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	dict := dictfile.New(opts.Mode)
	switch opts.Mode {
	case dictfile.ModeBoolean:
		dict.AllDocIDs = opts.AllDocIDs
	case dictfile.ModeRanked:
		dict.Lengths = opts.Lengths
	}

	var offset int64
	termCount := 0
	for q.Len() > 0 {
		group := []*blockCursor{heap.Pop(q).(*blockCursor)}
		term := group[0].term
		for q.Len() > 0 && (*q)[0].term == term {
			group = append(group, heap.Pop(q).(*blockCursor))
		}
		sort.Slice(group, func(i, j int) bool { return group[i].index < group[j].index })

		merged, err := mergeGroup(group, opts.Mode)
		if err != nil {
			return fmt.Errorf("merge: term %q: %w", term, err)
		}
		encoded, err := codec.Encode(merged, opts.Mode == dictfile.ModeRanked, opts.Mode == dictfile.ModeBoolean && opts.WriteSkips)
		if err != nil {
			return fmt.Errorf("merge: re-encoding term %q: %w", term, err)
		}
		n, err := w.WriteString(encoded)
		if err != nil {
			return fmt.Errorf("merge: writing postings for %q: %w", term, err)
		}
		dict.Terms[term] = dictfile.TermEntry{Offset: offset, DocFreq: len(merged)}
		offset += int64(n)
		termCount++

		for _, c := range group {
			if err := c.advance(); err != nil {
				return fmt.Errorf("merge: advancing block %d: %w", c.index, err)
			}
			if c.ok {
				heap.Push(q, c)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("merge: flushing postings file: %w", err)
	}

	dictOut, err := os.Create(opts.DictPath)
	if err != nil {
		return fmt.Errorf("merge: creating dictionary file: %w", err)
	}
	defer dictOut.Close()
	if err := dict.Write(dictOut); err != nil {
		return fmt.Errorf("merge: writing dictionary file: %w", err)
	}

	for _, c := range cursors {
		c.file.Close()
	}
	for _, path := range opts.BlockFiles {
		if err := os.Remove(path); err != nil {
			slog.Warn("could not remove spent block file", slog.String("path", path), slog.Any("error", err))
		}
	}

	slog.Info("merge complete", slog.Int("terms", termCount), slog.Int("blocks", len(opts.BlockFiles)))
	return nil
}

// mergeGroup decodes and concatenates the postings for one term across the
// blocks that contain it, in block order — already globally doc_id-sorted,
// per the package doc comment.
func mergeGroup(group []*blockCursor, mode dictfile.Mode) ([]codec.PlainEntry, error) {
	var merged []codec.PlainEntry
	for _, c := range group {
		_, entries, err := codec.DecodeAll(strings.NewReader(c.body), 0)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			merged = append(merged, codec.PlainEntry{DocID: e.DocID, TermFreq: e.TermFreq})
		}
	}
	if mode == dictfile.ModeBoolean {
		for i := range merged {
			merged[i].TermFreq = 0
		}
	}
	return merged, nil
}
