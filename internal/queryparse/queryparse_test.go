package queryparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPostfix_PrecedenceOrderedOrAndNot(t *testing.T) {
	got, err := ToPostfix("fool AND friend OR NOT romeo")
	require.NoError(t, err)
	assert.Equal(t, []string{"fool", "friend", "AND", "romeo", "NOT", "OR"}, got)
}

func TestToPostfix_ParenthesesOverridePrecedence(t *testing.T) {
	got, err := ToPostfix("fool AND ( friend OR romeo )")
	require.NoError(t, err)
	assert.Equal(t, []string{"fool", "friend", "romeo", "OR", "AND"}, got)
}

func TestToPostfix_StemsOperands(t *testing.T) {
	got, err := ToPostfix("Apples AND Cherry")
	require.NoError(t, err)
	assert.Equal(t, []string{"appl", "cherri", "AND"}, got)
}

func TestToPostfix_ParensWithoutSurroundingSpaces(t *testing.T) {
	got, err := ToPostfix("apple AND (banana OR cherry)")
	require.NoError(t, err)
	assert.Equal(t, []string{"appl", "banana", "cherri", "OR", "AND"}, got)
}

func TestToPostfix_UnbalancedParens(t *testing.T) {
	_, err := ToPostfix("fool AND ( friend")
	assert.ErrorIs(t, err, ErrUnbalancedParens)

	_, err = ToPostfix("fool )")
	assert.ErrorIs(t, err, ErrUnbalancedParens)
}

func TestToPostfix_EmptyQuery(t *testing.T) {
	_, err := ToPostfix("   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRankedTerms_PreservesOrderAndDuplicates(t *testing.T) {
	got := RankedTerms("fools friends romans friends")
	assert.Equal(t, []string{"fool", "friend", "roman", "friend"}, got)
}
