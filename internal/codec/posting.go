// Package codec implements the posting-list textual wire format from
// spec.md §4.1:
//
//	<doc_freq> "$" entry ("," entry)* "|"
//	entry := doc_id ("*" term_freq)? ("^" skip_delta)?
//
// The encoder/decoder pairing here is grounded on the teacher's
// serialization.go: a small stateful encoder struct that accumulates into a
// buffer, and a stateful decoder struct that tracks its own read cursor —
// the same shape the teacher uses for its binary skip-list format, carried
// over to this package's length-prefixed-free, self-delimiting text format.
package codec

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Sentinel errors, declared package-level so callers can compare with
// errors.Is, following the teacher's index.go convention.
var (
	ErrEmptyList      = errors.New("codec: cannot encode an empty posting list")
	ErrMalformedEntry = errors.New("codec: malformed posting entry")
	ErrMalformedList  = errors.New("codec: malformed posting list")
	ErrReadAfterDone  = errors.New("codec: read_entry called after list exhausted")
	ErrTruncated      = errors.New("codec: truncated postings stream")
)

// PlainEntry is one undecorated posting: a document id and, for ranked
// builds, its term frequency within that document. TermFreq of 0 means "no
// term frequency field" (Boolean build).
type PlainEntry struct {
	DocID    int
	TermFreq int
}

// Entry is a fully decoded posting-list entry, including a skip, the shape
// the streaming reader returns for each call to ReadEntry. TermFreq is 1
// when no "*tf" field was present (Boolean build, or a ranked build's entry
// legitimately at tf=1). HasSkip/SkipDelta report whether this entry carries
// a skip pointer, mirroring the "(-1)/absent indicator" described in
// spec.md's streaming reader contract.
type Entry struct {
	DocID     int
	TermFreq  int
	HasSkip   bool
	SkipDelta int
}

// SkipPositions returns, in ascending order, the entry indices (0-based)
// that must carry a skip pointer for a posting list of length n, per
// spec.md §4.1's placement formula: k = floor(sqrt(n)); skip-carrying
// positions are the multiples of k at 0, k, 2k, ... up to and including the
// largest such index L <= (n-1)-k. Returns nil if n < 4 (no skips are ever
// written for short lists).
func SkipPositions(n int) []int {
	if n < 4 {
		return nil
	}
	k := SkipInterval(n)
	last := (n - 1) - k
	if last < 0 {
		return nil
	}
	var positions []int
	for i := 0; i <= last; i += k {
		positions = append(positions, i)
	}
	return positions
}

// SkipInterval returns floor(sqrt(n)), the skip interval k used throughout
// §4.1 and §4.5 (initial skip placement and re-skipping after Boolean
// resolution).
func SkipInterval(n int) int {
	return int(math.Sqrt(float64(n)))
}

// Encode serializes an ordered posting list into the §4.1 wire format.
// Callers are responsible for supplying entries in the order their build
// mode uses (this module's builders supply ascending doc_id in both Boolean
// and ranked mode; see spimi's encodeTerm) — Encode does not sort.
//
// ranked selects whether each entry carries a "*term_freq" field.
// writeSkips selects whether skip pointers are computed and embedded; per
// spec.md, lists shorter than 4 entries never carry skips regardless of this
// flag.
//
// The skip delta for entry i is "the byte distance from the byte
// immediately following entry i's terminating separator to the first byte
// of entry i+k". Because the entries strictly between i and i+k never
// themselves carry a skip (skip-carrying positions are exactly the
// multiples of k, and fewer than k positions separate consecutive
// carriers), their rendered length is fixed before any skip delta is known,
// so deltas can be computed in a single left-to-right pass instead of the
// right-to-left accumulation the original implementation used.
func Encode(entries []PlainEntry, ranked, writeSkips bool) (string, error) {
	if len(entries) == 0 {
		return "", ErrEmptyList
	}

	n := len(entries)
	plain := make([]string, n)
	for i, e := range entries {
		plain[i] = renderPlain(e, ranked)
	}

	skipAt := make(map[int]int) // index -> skip delta
	if writeSkips {
		k := SkipInterval(n)
		for _, i := range SkipPositions(n) {
			target := i + k
			if target >= n {
				// Defensive: the placement formula guarantees target < n for
				// every position it returns, but guard against a future
				// change to SkipPositions silently breaking this invariant.
				continue
			}
			delta := 0
			for j := i + 1; j < target; j++ {
				delta += len(plain[j]) + 1 // +1 for the trailing separator
			}
			skipAt[i] = delta
		}
	}

	buf := make([]byte, 0, n*8)
	buf = strconv.AppendInt(buf, int64(n), 10)
	buf = append(buf, '$')
	for i, s := range plain {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, s...)
		if delta, ok := skipAt[i]; ok {
			buf = append(buf, '^')
			buf = strconv.AppendInt(buf, int64(delta), 10)
		}
	}
	buf = append(buf, '|')
	return string(buf), nil
}

func renderPlain(e PlainEntry, ranked bool) string {
	if ranked {
		return strconv.Itoa(e.DocID) + "*" + strconv.Itoa(e.TermFreq)
	}
	return strconv.Itoa(e.DocID)
}

// Reader streams a single posting list from a random-access byte source,
// starting at a given absolute byte offset. It implements the state machine
// from spec.md §4.6: Opened -> HeaderRead -> EntryRead* -> Done. The reader
// tracks its own logical cursor (rather than relying on the source to carry
// positioning state) because skip() must be able to jump the cursor forward
// by an arbitrary byte count, and all positioning in this format is always
// absolute from the file origin.
type Reader struct {
	src     io.ReaderAt
	cursor  int64
	docFreq int
	read    int
	total   int
	done    bool
}

// NewReader opens a posting-list reader at byteOffset and immediately reads
// the document-frequency header, transitioning Opened -> HeaderRead.
func NewReader(src io.ReaderAt, byteOffset int64) (*Reader, error) {
	r := &Reader{src: src, cursor: byteOffset}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	var digits []byte
	for {
		b, err := r.readByte()
		if err != nil {
			return fmt.Errorf("%w: reading doc_freq header: %v", ErrTruncated, err)
		}
		if b == '$' {
			break
		}
		if b < '0' || b > '9' {
			return fmt.Errorf("%w: non-digit %q in doc_freq header", ErrMalformedList, b)
		}
		digits = append(digits, b)
	}
	if len(digits) == 0 {
		return fmt.Errorf("%w: empty doc_freq header", ErrMalformedList)
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedList, err)
	}
	r.docFreq = n
	r.total = n
	if n == 0 {
		r.done = true
	}
	return nil
}

// DocFreq returns the header value read when the reader was opened. Safe to
// call at any point in the reader's lifetime, including after the list is
// fully consumed — PeekDocFreq relies on this for a header-only read,
// without ever calling ReadEntry.
func (r *Reader) DocFreq() int {
	return r.docFreq
}

// IsDone reports whether the "|" terminator has been consumed.
func (r *Reader) IsDone() bool {
	return r.done
}

// Offset returns the reader's current absolute byte cursor.
func (r *Reader) Offset() int64 {
	return r.cursor
}

// ReadEntry decodes the next posting entry. It is a programmer error to
// call this once IsDone() is true; doing so returns ErrReadAfterDone rather
// than silently returning a zero Entry.
func (r *Reader) ReadEntry() (Entry, error) {
	if r.done {
		return Entry{}, ErrReadAfterDone
	}

	var e Entry
	e.TermFreq = 1
	e.SkipDelta = -1

	docDigits, term, err := r.readDocIDField()
	if err != nil {
		return Entry{}, err
	}
	docID, err := strconv.Atoi(string(docDigits))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: doc_id %v", ErrMalformedEntry, err)
	}
	e.DocID = docID

	if term == '*' {
		tfDigits, next, err := r.readDigitsUntilFieldBoundary()
		if err != nil {
			return Entry{}, err
		}
		tf, err := strconv.Atoi(string(tfDigits))
		if err != nil {
			return Entry{}, fmt.Errorf("%w: term_freq %v", ErrMalformedEntry, err)
		}
		e.TermFreq = tf
		term = next
	}

	if term == '^' {
		skDigits, next, err := r.readDigitsUntilFieldBoundary()
		if err != nil {
			return Entry{}, err
		}
		sk, err := strconv.Atoi(string(skDigits))
		if err != nil {
			return Entry{}, fmt.Errorf("%w: skip_delta %v", ErrMalformedEntry, err)
		}
		e.HasSkip = true
		e.SkipDelta = sk
		term = next
	}

	switch term {
	case ',':
		r.read++
	case '|':
		r.read++
		r.done = true
	default:
		return Entry{}, fmt.Errorf("%w: unexpected terminator %q", ErrMalformedEntry, term)
	}

	return e, nil
}

// readDocIDField reads the doc_id digit run and returns the byte that ended
// it; ReadEntry rejects any terminator other than '*', '^', ',' or '|'.
func (r *Reader) readDocIDField() ([]byte, byte, error) {
	return r.readDigitsUntilFieldBoundary()
}

// readDigitsUntilFieldBoundary reads decimal digits until it hits a
// non-digit byte, returning the digits and that terminating byte, whatever
// it is; the caller decides whether it is a valid field boundary.
func (r *Reader) readDigitsUntilFieldBoundary() ([]byte, byte, error) {
	var digits []byte
	for {
		b, err := r.readByte()
		if err != nil {
			return nil, 0, fmt.Errorf("%w: reading entry: %v", ErrTruncated, err)
		}
		if b >= '0' && b <= '9' {
			digits = append(digits, b)
			continue
		}
		if len(digits) == 0 {
			return nil, 0, fmt.Errorf("%w: empty numeric field", ErrMalformedEntry)
		}
		return digits, b, nil
	}
}

// Skip advances the logical cursor by n bytes without reading anything,
// consuming a previously-recorded skip_delta to jump straight to the entry
// it points at. The next ReadEntry call then decodes from the new position.
func (r *Reader) Skip(n int) {
	r.cursor += int64(n)
}

func (r *Reader) readByte() (byte, error) {
	var b [1]byte
	n, err := r.src.ReadAt(b[:], r.cursor)
	if n == 1 {
		r.cursor++
		return b[0], nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return 0, err
}

// PeekDocFreq opens a reader at offset purely to read the document-frequency
// header, then discards it, without materializing the posting list. The
// Boolean query path does not call it: queryparse.ToPostfix emits bare
// operands with no df annotation.
func PeekDocFreq(src io.ReaderAt, byteOffset int64) (int, error) {
	r, err := NewReader(src, byteOffset)
	if err != nil {
		return 0, err
	}
	return r.DocFreq(), nil
}

// DecodeAll reads an entire posting list at byteOffset into memory, for
// callers (the merger, tests) that need every entry rather than a stream.
func DecodeAll(src io.ReaderAt, byteOffset int64) (docFreq int, entries []Entry, err error) {
	r, err := NewReader(src, byteOffset)
	if err != nil {
		return 0, nil, err
	}
	docFreq = r.DocFreq()
	entries = make([]Entry, 0, docFreq)
	for !r.IsDone() {
		e, err := r.ReadEntry()
		if err != nil {
			return 0, nil, err
		}
		entries = append(entries, e)
	}
	if len(entries) != docFreq {
		return 0, nil, fmt.Errorf("%w: header says %d entries, read %d", ErrMalformedList, docFreq, len(entries))
	}
	return docFreq, entries, nil
}
