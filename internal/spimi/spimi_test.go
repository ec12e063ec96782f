package spimi

import (
	"bufio"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-ir/spindex/internal/codec"
	"github.com/kestrel-ir/spindex/internal/dictfile"
	"github.com/kestrel-ir/spindex/internal/tokenizer"
)

func feed(pairs []tokenizer.Pair) (<-chan tokenizer.Pair, <-chan error) {
	ch := make(chan tokenizer.Pair)
	errc := make(chan error, 1)
	go func() {
		defer close(ch)
		defer close(errc)
		for _, p := range pairs {
			ch <- p
		}
	}()
	return ch, errc
}

func readBlock(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	got := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		parts := strings.SplitN(sc.Text(), "\t", 2)
		require.Len(t, parts, 2)
		got[parts[0]] = parts[1]
	}
	require.NoError(t, sc.Err())
	return got
}

func TestAccumulator_BooleanSingleBlock(t *testing.T) {
	dir := t.TempDir()
	a := NewAccumulator(dictfile.ModeBoolean, 1000, true, dir)
	pairs, errc := feed([]tokenizer.Pair{
		{Term: "cat", DocID: 1},
		{Term: "dog", DocID: 1},
		{Term: "cat", DocID: 2},
	})

	res, err := a.Process(context.Background(), pairs, errc)
	require.NoError(t, err)
	require.Len(t, res.BlockFiles, 1)
	assert.True(t, res.AllDocIDs.ContainsInt(1))
	assert.True(t, res.AllDocIDs.ContainsInt(2))

	block := readBlock(t, res.BlockFiles[0])
	_, entries, err := codec.DecodeAll(strings.NewReader(block["cat"]), 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, []int{entries[0].DocID, entries[1].DocID})
}

func TestAccumulator_RankedComputesLengths(t *testing.T) {
	dir := t.TempDir()
	a := NewAccumulator(dictfile.ModeRanked, 1000, false, dir)
	pairs, errc := feed([]tokenizer.Pair{
		{Term: "cat", DocID: 1},
		{Term: "cat", DocID: 1},
		{Term: "dog", DocID: 1},
	})

	res, err := a.Process(context.Background(), pairs, errc)
	require.NoError(t, err)
	require.Contains(t, res.Lengths, 1)
	assert.Greater(t, res.Lengths[1], 0.0)

	block := readBlock(t, res.BlockFiles[0])
	_, entries, err := codec.DecodeAll(strings.NewReader(block["cat"]), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, entries[0].TermFreq)
}

func TestAccumulator_FlushesOnlyAtDocBoundary(t *testing.T) {
	dir := t.TempDir()
	// threshold of 2 would normally trip mid-document; the accumulator must
	// defer the flush until doc 1's pairs are fully consumed.
	a := NewAccumulator(dictfile.ModeBoolean, 2, true, dir)
	pairs, errc := feed([]tokenizer.Pair{
		{Term: "a", DocID: 1},
		{Term: "b", DocID: 1},
		{Term: "c", DocID: 1},
		{Term: "a", DocID: 2},
	})

	res, err := a.Process(context.Background(), pairs, errc)
	require.NoError(t, err)
	require.Len(t, res.BlockFiles, 2)

	first := readBlock(t, res.BlockFiles[0])
	assert.Contains(t, first, "a")
	assert.Contains(t, first, "b")
	assert.Contains(t, first, "c")

	second := readBlock(t, res.BlockFiles[1])
	_, entries, err := codec.DecodeAll(strings.NewReader(second["a"]), 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, []int{entries[0].DocID})
}
