package dictfile

import (
	"bytes"
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooleanRoundTrip(t *testing.T) {
	d := New(ModeBoolean)
	d.Terms["cat"] = TermEntry{Offset: 0, DocFreq: 3}
	d.Terms["dog"] = TermEntry{Offset: 42, DocFreq: 7}
	d.AllDocIDs.AddMany([]uint32{1, 2, 3, 4, 5})

	var buf bytes.Buffer
	require.NoError(t, d.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, ModeBoolean, got.Mode)
	assert.Equal(t, TermEntry{Offset: 0, DocFreq: 3}, got.Terms["cat"])
	assert.Equal(t, TermEntry{Offset: 42, DocFreq: 7}, got.Terms["dog"])
	assert.True(t, got.AllDocIDs.Equals(roaring.BitmapOf(1, 2, 3, 4, 5)))
}

func TestRankedRoundTrip(t *testing.T) {
	d := New(ModeRanked)
	d.Terms["fox"] = TermEntry{Offset: 10, DocFreq: 2}
	d.Lengths[1] = 3.14159
	d.Lengths[2] = 1.0

	var buf bytes.Buffer
	require.NoError(t, d.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, ModeRanked, got.Mode)
	assert.InDelta(t, 3.14159, got.Lengths[1], 1e-9)
	assert.InDelta(t, 1.0, got.Lengths[2], 1e-9)
}

func TestRead_TruncatedInputRejected(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0x00, 0x05}))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestRead_UnknownModeRejected(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0xFF, 0, 0, 0, 0}))
	assert.ErrorIs(t, err, ErrUnknownMode)
}
