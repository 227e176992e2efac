// Package tokenizer splits raw text into sentences of tokens for the
// taggers.
package tokenizer

import (
	"strings"
	"unicode"
)

const punctuation = `.,;:!?"()[]{}`

func isPunct(r rune) bool {
	return strings.ContainsRune(punctuation, r)
}

// Tokenize splits text on whitespace and separates punctuation marks into
// tokens of their own. Dots and commas between digits (3.39, 1,000) stay
// inside the number.
func Tokenize(text string) []string {
	var tokens []string
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]

		if unicode.IsSpace(r) {
			i++
			continue
		}

		if isPunct(r) {
			tokens = append(tokens, string(r))
			i++
			continue
		}

		start := i
		for i < len(runes) && !unicode.IsSpace(runes[i]) {
			if isPunct(runes[i]) && !inNumber(runes, i) {
				break
			}
			i++
		}
		tokens = append(tokens, string(runes[start:i]))
	}
	return tokens
}

func inNumber(runes []rune, i int) bool {
	if runes[i] != '.' && runes[i] != ',' {
		return false
	}
	return i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1])
}

// Sentences tokenizes text and splits it after every sentence final mark.
func Sentences(text string) [][]string {
	var ans [][]string
	var current []string
	for _, tok := range Tokenize(text) {
		current = append(current, tok)
		if tok == "." || tok == "!" || tok == "?" {
			ans = append(ans, current)
			current = nil
		}
	}
	if len(current) > 0 {
		ans = append(ans, current)
	}
	return ans
}
