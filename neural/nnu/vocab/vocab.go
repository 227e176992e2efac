// Package vocab maps tokens and tags to the integer indices used by the
// feature tables and the output layers.
package vocab

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/golangast/nlpnet/neural/nnu/gobs"
)

// Reserved entries. They can never collide with a normalized corpus token
// because normalization lower-cases everything.
const (
	Rare         = "*RARE*"
	PaddingLeft  = "*LEFT*"
	PaddingRight = "*RIGHT*"
)

// Reserved indices, always the first three entries of a dictionary.
const (
	RareIndex = iota
	PaddingLeftIndex
	PaddingRightIndex
	numReserved
)

// WordDictionary maps normalized token strings to contiguous indices in
// [0, Size()). It is immutable once created.
type WordDictionary struct {
	// Tokens lists the entries in index order. It is the only persisted field.
	Tokens []string

	index map[string]int
}

// Normalize lower-cases a token and replaces every digit with 9, so that
// numbers of the same shape share an entry.
func Normalize(token string) string {
	var sb strings.Builder
	sb.Grow(len(token))
	for _, r := range token {
		if unicode.IsDigit(r) {
			sb.WriteRune('9')
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// NewWordDictionary counts the normalized tokens of the given sentences and
// keeps the most frequent ones. Tokens seen fewer than minOccurrences times
// are dropped; maxSize caps the number of corpus entries (0 means no cap).
// Ties in frequency are broken alphabetically so the result is deterministic.
func NewWordDictionary(sentences [][]string, maxSize, minOccurrences int) *WordDictionary {
	counts := make(map[string]int)
	for _, sentence := range sentences {
		for _, token := range sentence {
			counts[Normalize(token)]++
		}
	}
	words := make([]string, 0, len(counts))
	for w, n := range counts {
		if n >= minOccurrences {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if maxSize > 0 && len(words) > maxSize {
		words = words[:maxSize]
	}

	tokens := make([]string, 0, len(words)+numReserved)
	tokens = append(tokens, Rare, PaddingLeft, PaddingRight)
	tokens = append(tokens, words...)
	wd := &WordDictionary{Tokens: tokens}
	wd.buildIndex()
	return wd
}

func (wd *WordDictionary) buildIndex() {
	wd.index = make(map[string]int, len(wd.Tokens))
	for i, t := range wd.Tokens {
		wd.index[t] = i
	}
}

// Size returns the number of entries including the reserved ones.
func (wd *WordDictionary) Size() int {
	return len(wd.Tokens)
}

// Index returns the index of a token, or RareIndex for unknown tokens.
func (wd *WordDictionary) Index(token string) int {
	if i, ok := wd.index[Normalize(token)]; ok {
		return i
	}
	return RareIndex
}

// Indices maps every token of a sentence with Index.
func (wd *WordDictionary) Indices(tokens []string) []int {
	ans := make([]int, len(tokens))
	for i, t := range tokens {
		ans[i] = wd.Index(t)
	}
	return ans
}

// Word returns the entry stored at index i.
func (wd *WordDictionary) Word(i int) string {
	return wd.Tokens[i]
}

// Check validates the reserved entries and that indices are contiguous and
// unique. Loaded dictionaries failing the check must not be used.
func (wd *WordDictionary) Check() error {
	if len(wd.Tokens) < numReserved {
		return fmt.Errorf("word dictionary has %d entries, reserved entries missing", len(wd.Tokens))
	}
	if wd.Tokens[RareIndex] != Rare || wd.Tokens[PaddingLeftIndex] != PaddingLeft ||
		wd.Tokens[PaddingRightIndex] != PaddingRight {
		return fmt.Errorf("word dictionary reserved entries are corrupted: %v", wd.Tokens[:numReserved])
	}
	seen := make(map[string]struct{}, len(wd.Tokens))
	for i, t := range wd.Tokens {
		if _, ok := seen[t]; ok {
			return fmt.Errorf("word dictionary entry %q duplicated at index %d", t, i)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// Save writes the dictionary as a single gob object.
func (wd *WordDictionary) Save(filePath string) error {
	return gobs.Save(filePath, wd)
}

// LoadWordDictionary reads and validates a dictionary written by Save.
func LoadWordDictionary(filePath string) (*WordDictionary, error) {
	wd := new(WordDictionary)
	if err := gobs.Load(filePath, "word dictionary", wd); err != nil {
		return nil, err
	}
	if err := wd.Check(); err != nil {
		return nil, fmt.Errorf("invalid word dictionary %s: %w", filePath, err)
	}
	wd.buildIndex()
	return wd, nil
}
