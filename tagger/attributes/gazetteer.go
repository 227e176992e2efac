package attributes

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger/tag"
)

// Gazetteer codes.
const (
	GazPadding = iota
	GazAbsent
	GazPresent
	NumGazetteerValues
)

// Gazetteer marks the tokens belonging to a known entity of one category.
// Entries may span several words; the longest match wins.
type Gazetteer struct {
	Category string
	entries  map[string]struct{}
	maxLen   int
}

func normalizeEntry(words []string) string {
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	return strings.Join(lowered, " ")
}

// NewGazetteer creates a gazetteer from entries given as space
// separated words.
func NewGazetteer(category string, entries []string) *Gazetteer {
	g := &Gazetteer{Category: category, entries: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		words := strings.Fields(e)
		if len(words) == 0 {
			continue
		}
		g.entries[normalizeEntry(words)] = struct{}{}
		if len(words) > g.maxLen {
			g.maxLen = len(words)
		}
	}
	return g
}

// LoadGazetteer reads one entry per line.
func LoadGazetteer(category, filePath string) (*Gazetteer, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, nerror.MissingResourceError{Resource: "gazetteer " + category, Path: filePath, Err: err}
	}
	defer f.Close()
	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entries = append(entries, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gazetteer %s: %w", filePath, err)
	}
	return NewGazetteer(category, entries), nil
}

// Len returns the number of entries.
func (g *Gazetteer) Len() int {
	return len(g.entries)
}

// GazetteerExtractor emits presence codes for one gazetteer.
type GazetteerExtractor struct {
	gaz *Gazetteer
}

// NewGazetteerExtractor fails when the gazetteer was never loaded.
func NewGazetteerExtractor(g *Gazetteer) (*GazetteerExtractor, error) {
	if g == nil {
		return nil, fmt.Errorf("gazetteer extractor: %w", ErrTableNotLoaded)
	}
	return &GazetteerExtractor{gaz: g}, nil
}

func (e *GazetteerExtractor) Kind() string {
	return metadata.FeatureGazetteer
}

func (e *GazetteerExtractor) NumValues() int {
	return NumGazetteerValues
}

func (e *GazetteerExtractor) Extract(sentence []tag.Token) []int {
	ans := make([]int, len(sentence))
	for i, t := range sentence {
		if t.IsPadding() {
			ans[i] = GazPadding
		} else {
			ans[i] = GazAbsent
		}
	}
	words := tag.Words(sentence)
	for i := 0; i < len(sentence); i++ {
		if sentence[i].IsPadding() {
			continue
		}
		for n := min(e.gaz.maxLen, len(sentence)-i); n > 0; n-- {
			if _, ok := e.gaz.entries[normalizeEntry(words[i:i+n])]; ok {
				for j := i; j < i+n; j++ {
					ans[j] = GazPresent
				}
				break
			}
		}
	}
	return ans
}
