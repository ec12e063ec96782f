package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens_BasicPipeline(t *testing.T) {
	got := Tokens("The Quick Brown Fox Jumps!")
	assert.Equal(t, []string{"the", "quick", "brown", "fox", "jump"}, got)
}

func TestTokens_DropsPunctuationOnlyRuns(t *testing.T) {
	got := Tokens("price: $9.99 -- wow!")
	for _, tok := range got {
		assert.NotEmpty(t, tok)
	}
	assert.Contains(t, got, "9")
	assert.Contains(t, got, "99")
	assert.Contains(t, got, "wow")
}

func TestTokens_PreservesDuplicateOrder(t *testing.T) {
	got := Tokens("apple apple cherry")
	assert.Equal(t, []string{"appl", "appl", "cherri"}, got)
}

func TestTerm_LowercasesAndStems(t *testing.T) {
	assert.Equal(t, "appl", Term("Apples"))
	assert.Equal(t, "cherri", Term("CHERRY"))
}
