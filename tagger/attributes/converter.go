// Package attributes turns tokens into the discrete feature indices that
// select rows of the feature tables.
package attributes

import (
	"github.com/golangast/nlpnet/tagger/tag"
)

// Extractor maps every token of a sentence to a code in [0, NumValues()).
// It receives the whole sentence so that context features (multi-word
// gazetteer entries) can be computed.
type Extractor interface {
	Kind() string
	NumValues() int
	Extract(sentence []tag.Token) []int
}

// TokenConverter composes extractors. Column i of a converted sentence
// holds the codes of extractor i.
type TokenConverter struct {
	extractors []Extractor
}

// NewTokenConverter creates a converter applying the extractors in order.
func NewTokenConverter(extractors ...Extractor) *TokenConverter {
	return &TokenConverter{extractors: extractors}
}

// Add appends an extractor.
func (c *TokenConverter) Add(e Extractor) {
	c.extractors = append(c.extractors, e)
}

// Extractors returns the extractors in column order.
func (c *TokenConverter) Extractors() []Extractor {
	return c.extractors
}

// NumValues returns the table size each column requires.
func (c *TokenConverter) NumValues() []int {
	ans := make([]int, len(c.extractors))
	for i, e := range c.extractors {
		ans[i] = e.NumValues()
	}
	return ans
}

// Convert produces a [len(sentence)][len(extractors)] index array.
func (c *TokenConverter) Convert(sentence []tag.Token) [][]int {
	ans := make([][]int, len(sentence))
	for i := range ans {
		ans[i] = make([]int, len(c.extractors))
	}
	for j, e := range c.extractors {
		for i, code := range e.Extract(sentence) {
			ans[i][j] = code
		}
	}
	return ans
}

// ConvertWords converts a sentence given as plain strings.
func (c *TokenConverter) ConvertWords(words []string) [][]int {
	return c.Convert(tag.Tokens(words))
}

// PaddingLeft returns the feature vector of the left padding token.
func (c *TokenConverter) PaddingLeft() []int {
	return c.Convert([]tag.Token{tag.PaddingLeft()})[0]
}

// PaddingRight returns the feature vector of the right padding token.
func (c *TokenConverter) PaddingRight() []int {
	return c.Convert([]tag.Token{tag.PaddingRight()})[0]
}
