package attributes

import (
	"unicode"
	"unicode/utf8"

	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger/tag"
)

// Capitalization codes.
const (
	CapsPadding = iota
	CapsUpper
	CapsHasCap
	CapsTitle
	CapsNoCaps
	NumCaps
)

// Capitalization classifies a word by the case of its letters only:
// every cased letter uppercase gives CapsUpper, an uppercase first letter
// with no other uppercase letter gives CapsTitle, any other uppercase
// letter gives CapsHasCap and everything else CapsNoCaps.
func Capitalization(word string) int {
	var hasUpper, hasLower, upperAfterFirst bool
	first, _ := utf8.DecodeRuneInString(word)
	for i, r := range word {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
			if i > 0 {
				upperAfterFirst = true
			}
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	switch {
	case hasUpper && !hasLower:
		return CapsUpper
	case unicode.IsUpper(first) && !upperAfterFirst:
		return CapsTitle
	case hasUpper:
		return CapsHasCap
	default:
		return CapsNoCaps
	}
}

// CapsExtractor emits capitalization codes.
type CapsExtractor struct{}

func NewCapsExtractor() CapsExtractor {
	return CapsExtractor{}
}

func (CapsExtractor) Kind() string {
	return metadata.FeatureCaps
}

func (CapsExtractor) NumValues() int {
	return NumCaps
}

func (CapsExtractor) Extract(sentence []tag.Token) []int {
	ans := make([]int, len(sentence))
	for i, t := range sentence {
		if t.IsPadding() {
			ans[i] = CapsPadding
			continue
		}
		ans[i] = Capitalization(t.Word)
	}
	return ans
}
