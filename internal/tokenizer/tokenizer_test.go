package tokenizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestDocIDs_SortsAscendingAndSkipsNonNumeric(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"3":        "three",
		"1":        "one",
		"2":        "two",
		"README":   "not a document",
	})
	ids, err := Corpus{Dir: dir}.DocIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestGenerate_EmitsPairsInDocOrder(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"1": "apple apple",
		"2": "banana",
	})
	pairs, errc := Corpus{Dir: dir}.Generate(context.Background())

	var got []Pair
	for p := range pairs {
		got = append(got, p)
	}
	require.NoError(t, <-errc)

	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].DocID)
	assert.Equal(t, 1, got[1].DocID)
	assert.Equal(t, 2, got[2].DocID)
	assert.Equal(t, "appl", got[0].Term)
	assert.Equal(t, "banana", got[2].Term)
}

func TestGenerate_CancelableViaContext(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"1": "one two three four five"})
	ctx, cancel := context.WithCancel(context.Background())
	pairs, errc := Corpus{Dir: dir}.Generate(ctx)

	<-pairs
	cancel()
	for range pairs {
	}
	assert.ErrorIs(t, <-errc, context.Canceled)
}
