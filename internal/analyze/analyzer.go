// Package analyze implements the Tokenizer collaborator named in spec.md
// §1/§6: lowercase -> word-tokenize -> Porter-stem -> drop punctuation-only
// tokens. The pipeline and its stage-by-stage structure are adapted from the
// teacher's text-analysis pipeline (analyzer.go), trimmed to the exact
// contract the search engine spec requires: no stopword removal and no
// minimum-length filter, since the original Python Tokenizer performs
// neither and the spec's worked examples (e.g. "a" as an operand) depend on
// tokens passing through untouched.
package analyze

import (
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
)

// Tokens splits text into analyzed terms: tokenize, lowercase, stem. Order
// and duplicates are preserved, which ranked-mode query analysis (spec.md
// §4.4) depends on for within-query term frequency.
func Tokens(text string) []string {
	tokens := tokenize(text)
	tokens = lowercaseFilter(tokens)
	tokens = stemmerFilter(tokens)
	return tokens
}

// Term analyzes a single operand (a Boolean query literal) the way the
// original Tokenizer's clean_operand does: lowercase then stem, without
// going through the multi-token splitting step, since the caller already
// knows this string is one operand.
func Term(operand string) string {
	return snowballeng.Stem(strings.ToLower(operand), false)
}

// tokenize splits text into word-like runs, treating every character that
// is neither a letter nor a digit as a delimiter. This also implements the
// Tokenizer contract's "drop punctuation-only tokens" clause: a run of only
// punctuation never survives FieldsFunc's delimiter test, so it never
// appears as a token in the first place.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func lowercaseFilter(tokens []string) []string {
	r := make([]string, len(tokens))
	for i, token := range tokens {
		r[i] = strings.ToLower(token)
	}
	return r
}

// stemmerFilter reduces tokens to their Snowball (Porter2) root form, the
// same stemmer call the teacher uses in its own stemmerFilter.
func stemmerFilter(tokens []string) []string {
	r := make([]string, len(tokens))
	for i, token := range tokens {
		r[i] = snowballeng.Stem(token, false)
	}
	return r
}
