package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipPositions(t *testing.T) {
	assert.Nil(t, SkipPositions(0))
	assert.Nil(t, SkipPositions(3))
	// len 9 -> k = 3, last = (9-1)-3 = 5 -> positions 0,3
	assert.Equal(t, []int{0, 3}, SkipPositions(9))
	// len 16 -> k = 4, last = 15-4 = 11 -> positions 0,4,8
	assert.Equal(t, []int{0, 4, 8}, SkipPositions(16))
}

func TestEncodeDecode_BooleanRoundTrip(t *testing.T) {
	entries := []PlainEntry{{DocID: 1}, {DocID: 4}, {DocID: 9}, {DocID: 16}, {DocID: 25}}
	s, err := Encode(entries, false, true)
	require.NoError(t, err)

	docFreq, decoded, err := DecodeAll(bytes.NewReader([]byte(s)), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, docFreq)
	require.Len(t, decoded, 5)
	for i, e := range entries {
		assert.Equal(t, e.DocID, decoded[i].DocID)
		assert.Equal(t, 1, decoded[i].TermFreq)
	}
	// k = floor(sqrt(5)) = 2, last = 4-2=2 -> skip-carrying indices 0, 2
	assert.True(t, decoded[0].HasSkip)
	assert.False(t, decoded[1].HasSkip)
	assert.True(t, decoded[2].HasSkip)
	assert.False(t, decoded[3].HasSkip)
	assert.False(t, decoded[4].HasSkip)
}

func TestEncodeDecode_RankedRoundTrip(t *testing.T) {
	entries := []PlainEntry{
		{DocID: 2, TermFreq: 5},
		{DocID: 7, TermFreq: 1},
		{DocID: 8, TermFreq: 3},
	}
	s, err := Encode(entries, true, false)
	require.NoError(t, err)

	docFreq, decoded, err := DecodeAll(bytes.NewReader([]byte(s)), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, docFreq)
	require.Len(t, decoded, 3)
	for i, e := range entries {
		assert.Equal(t, e.DocID, decoded[i].DocID)
		assert.Equal(t, e.TermFreq, decoded[i].TermFreq)
		assert.False(t, decoded[i].HasSkip)
	}
}

func TestEncode_EmptyListRejected(t *testing.T) {
	_, err := Encode(nil, false, true)
	assert.ErrorIs(t, err, ErrEmptyList)
}

func TestEncode_ShortListNeverCarriesSkips(t *testing.T) {
	entries := []PlainEntry{{DocID: 1}, {DocID: 2}, {DocID: 3}}
	s, err := Encode(entries, false, true)
	require.NoError(t, err)
	_, decoded, err := DecodeAll(bytes.NewReader([]byte(s)), 0)
	require.NoError(t, err)
	for _, e := range decoded {
		assert.False(t, e.HasSkip)
	}
}

func TestReader_SkipJumpsOverIntermediateEntries(t *testing.T) {
	entries := []PlainEntry{{DocID: 1}, {DocID: 4}, {DocID: 9}, {DocID: 16}, {DocID: 25}}
	s, err := Encode(entries, false, true)
	require.NoError(t, err)
	src := bytes.NewReader([]byte(s))

	r, err := NewReader(src, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, r.DocFreq())

	first, err := r.ReadEntry()
	require.NoError(t, err)
	assert.Equal(t, 1, first.DocID)
	require.True(t, first.HasSkip)

	r.Skip(first.SkipDelta)
	third, err := r.ReadEntry()
	require.NoError(t, err)
	assert.Equal(t, 9, third.DocID)
}

func TestReader_MalformedHeaderRejected(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("abc$1|")), 0)
	assert.ErrorIs(t, err, ErrMalformedList)
}

func TestReader_PeekDocFreqDoesNotMaterializeEntries(t *testing.T) {
	entries := []PlainEntry{{DocID: 1}, {DocID: 2}}
	s, err := Encode(entries, false, false)
	require.NoError(t, err)
	df, err := PeekDocFreq(bytes.NewReader([]byte(s)), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, df)
}

func TestDecodeAll_OffsetIntoLargerStream(t *testing.T) {
	first, err := Encode([]PlainEntry{{DocID: 1}}, false, false)
	require.NoError(t, err)
	second, err := Encode([]PlainEntry{{DocID: 2}, {DocID: 3}}, false, false)
	require.NoError(t, err)
	blob := []byte(first + second)

	df, entries, err := DecodeAll(bytes.NewReader(blob), int64(len(first)))
	require.NoError(t, err)
	assert.Equal(t, 2, df)
	assert.Equal(t, []int{2, 3}, []int{entries[0].DocID, entries[1].DocID})
}
