// Package dictfile implements the dictionary file's binary layout
// (spec.md §3, §4.1): a term -> (postings byte offset, document frequency)
// map, plus a companion payload whose shape depends on build mode — the
// Boolean evaluator's NOT universe (all document ids) or the ranked
// evaluator's document length norms.
//
// The encoder/decoder pair below follows the same shape as the teacher's
// serialization.go: a small struct wrapping a byte buffer with length-
// prefixed string/byte-array helpers, little-endian throughout.
package dictfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/RoaringBitmap/roaring"
)

// Mode selects which companion payload a dictionary file carries.
type Mode uint8

const (
	ModeBoolean Mode = iota
	ModeRanked
)

var (
	ErrUnknownMode    = errors.New("dictfile: unknown mode byte")
	ErrTruncated      = errors.New("dictfile: truncated dictionary file")
	ErrMissingPayload = errors.New("dictfile: payload absent for this mode")
)

// TermEntry is one dictionary row: where the term's posting list begins in
// the postings file, and its document frequency (duplicated from the
// posting list's own header so the ranked evaluator can read df for its idf
// weight without parsing that header).
type TermEntry struct {
	Offset  int64
	DocFreq int
}

// Dictionary is the complete in-memory form of a dictionary file.
type Dictionary struct {
	Mode  Mode
	Terms map[string]TermEntry

	// AllDocIDs holds every document id ever indexed, populated for
	// ModeBoolean and consumed by the Boolean evaluator's NOT operator
	// (spec.md §4.5: NOT is a corpus-wide set difference).
	AllDocIDs *roaring.Bitmap

	// Lengths holds each document's ltc.lnc length norm, populated for
	// ModeRanked and consumed by the ranked evaluator's cosine
	// normalization step (spec.md §4.4).
	Lengths map[int]float64
}

// New returns an empty dictionary ready for incremental population by the
// merger.
func New(mode Mode) *Dictionary {
	d := &Dictionary{Mode: mode, Terms: make(map[string]TermEntry)}
	switch mode {
	case ModeBoolean:
		d.AllDocIDs = roaring.New()
	case ModeRanked:
		d.Lengths = make(map[int]float64)
	}
	return d
}

// Write serializes the dictionary to w.
func (d *Dictionary) Write(w io.Writer) error {
	buf := new(bytes.Buffer)
	if err := buf.WriteByte(byte(d.Mode)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(d.Terms))); err != nil {
		return err
	}

	enc := &encoder{buf: buf}
	for term, entry := range d.Terms {
		if err := enc.writeString(term); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, uint64(entry.Offset)); err != nil {
			return err
		}
		if err := binary.Write(buf, binary.LittleEndian, uint32(entry.DocFreq)); err != nil {
			return err
		}
	}

	payload, err := d.encodePayload()
	if err != nil {
		return err
	}
	if err := enc.writeBytes(payload); err != nil {
		return err
	}

	_, err = w.Write(buf.Bytes())
	return err
}

func (d *Dictionary) encodePayload() ([]byte, error) {
	switch d.Mode {
	case ModeBoolean:
		if d.AllDocIDs == nil {
			return nil, ErrMissingPayload
		}
		return d.AllDocIDs.ToBytes()
	case ModeRanked:
		buf := new(bytes.Buffer)
		if err := binary.Write(buf, binary.LittleEndian, uint32(len(d.Lengths))); err != nil {
			return nil, err
		}
		for docID, length := range d.Lengths {
			if err := binary.Write(buf, binary.LittleEndian, uint32(docID)); err != nil {
				return nil, err
			}
			if err := binary.Write(buf, binary.LittleEndian, math.Float64bits(length)); err != nil {
				return nil, err
			}
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, d.Mode)
	}
}

// Read deserializes a dictionary file from r.
func Read(r io.Reader) (*Dictionary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	dec := &decoder{data: data}

	modeByte, err := dec.readByte()
	if err != nil {
		return nil, fmt.Errorf("%w: mode byte: %v", ErrTruncated, err)
	}
	mode := Mode(modeByte)
	if mode != ModeBoolean && mode != ModeRanked {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, modeByte)
	}

	numTerms, err := dec.readUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: term count: %v", ErrTruncated, err)
	}

	d := New(mode)
	for i := uint32(0); i < numTerms; i++ {
		term, err := dec.readString()
		if err != nil {
			return nil, fmt.Errorf("%w: term %d: %v", ErrTruncated, i, err)
		}
		offset, err := dec.readUint64()
		if err != nil {
			return nil, fmt.Errorf("%w: offset for %q: %v", ErrTruncated, term, err)
		}
		docFreq, err := dec.readUint32()
		if err != nil {
			return nil, fmt.Errorf("%w: doc_freq for %q: %v", ErrTruncated, term, err)
		}
		d.Terms[term] = TermEntry{Offset: int64(offset), DocFreq: int(docFreq)}
	}

	payload, err := dec.readBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrTruncated, err)
	}
	if err := d.decodePayload(payload); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dictionary) decodePayload(payload []byte) error {
	switch d.Mode {
	case ModeBoolean:
		bm := roaring.New()
		if err := bm.UnmarshalBinary(payload); err != nil {
			return fmt.Errorf("%w: doc-id universe: %v", ErrTruncated, err)
		}
		d.AllDocIDs = bm
		return nil
	case ModeRanked:
		dec := &decoder{data: payload}
		n, err := dec.readUint32()
		if err != nil {
			return fmt.Errorf("%w: lengths count: %v", ErrTruncated, err)
		}
		lengths := make(map[int]float64, n)
		for i := uint32(0); i < n; i++ {
			docID, err := dec.readUint32()
			if err != nil {
				return fmt.Errorf("%w: length entry %d: %v", ErrTruncated, i, err)
			}
			bits, err := dec.readUint64()
			if err != nil {
				return fmt.Errorf("%w: length entry %d: %v", ErrTruncated, i, err)
			}
			lengths[int(docID)] = math.Float64frombits(bits)
		}
		d.Lengths = lengths
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMode, d.Mode)
	}
}

// encoder wraps a byte buffer with length-prefixed write helpers, the same
// shape as the teacher's indexEncoder.
type encoder struct {
	buf *bytes.Buffer
}

func (e *encoder) writeString(s string) error {
	return e.writeBytes([]byte(s))
}

func (e *encoder) writeBytes(data []byte) error {
	if err := binary.Write(e.buf, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := e.buf.Write(data)
	return err
}

// decoder wraps a byte slice with a cursor, the same shape as the teacher's
// indexDecoder, but with bounds-checked reads since a dictionary file is
// untrusted input (the teacher's own decoder trusts its input and indexes
// raw slices, which spec.md's error-handling design explicitly rejects for
// this module's file-format readers).
type decoder struct {
	data   []byte
	offset int
}

func (d *decoder) readByte() (byte, error) {
	if d.offset+1 > len(d.data) {
		return 0, io.ErrUnexpectedEOF
	}
	b := d.data[d.offset]
	d.offset++
	return b, nil
}

func (d *decoder) readUint32() (uint32, error) {
	if d.offset+4 > len(d.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(d.data[d.offset : d.offset+4])
	d.offset += 4
	return v, nil
}

func (d *decoder) readUint64() (uint64, error) {
	if d.offset+8 > len(d.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(d.data[d.offset : d.offset+8])
	d.offset += 8
	return v, nil
}

func (d *decoder) readBytes() ([]byte, error) {
	n, err := d.readUint32()
	if err != nil {
		return nil, err
	}
	if d.offset+int(n) > len(d.data) {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.data[d.offset : d.offset+int(n)]
	d.offset += int(n)
	return b, nil
}

func (d *decoder) readString() (string, error) {
	b, err := d.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
