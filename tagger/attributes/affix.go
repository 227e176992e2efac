package attributes

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger/tag"
)

// AffixKind selects the end of the word an affix table looks at.
type AffixKind int

const (
	Suffix AffixKind = iota
	Prefix
)

func (k AffixKind) String() string {
	if k == Prefix {
		return metadata.FeaturePrefix
	}
	return metadata.FeatureSuffix
}

// DefaultAffixSize is the affix width used unless configured otherwise.
const DefaultAffixSize = 2

// AffixOther is the code of unknown affixes and words shorter than the
// affix size. Known affixes are numbered from 1.
const AffixOther = 0

// AffixTable maps fixed-width lower-cased affixes to codes. It is immutable
// once created.
type AffixTable struct {
	Kind    AffixKind
	Size    int
	Affixes []string

	codes map[string]int
}

// NewAffixTable creates a table where Affixes[i] receives code i+1.
func NewAffixTable(kind AffixKind, size int, affixes []string) (*AffixTable, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid affix size %d", size)
	}
	t := &AffixTable{
		Kind:    kind,
		Size:    size,
		Affixes: affixes,
		codes:   make(map[string]int, len(affixes)),
	}
	for i, a := range affixes {
		if len([]rune(a)) != size {
			return nil, fmt.Errorf("%s %q does not have size %d", kind, a, size)
		}
		if _, ok := t.codes[a]; ok {
			return nil, fmt.Errorf("duplicate %s %q", kind, a)
		}
		t.codes[a] = i + 1
	}
	return t, nil
}

// BuildAffixes counts the affixes of the given word types and keeps the num
// most common ones occurring at least minOccurrences times. Only words
// longer than size contribute, and affixes containing digits or underscores
// are skipped.
func BuildAffixes(kind AffixKind, words []string, num, size, minOccurrences int) (*AffixTable, error) {
	types := make(map[string]struct{}, len(words))
	for _, w := range words {
		types[strings.ToLower(w)] = struct{}{}
	}
	counts := make(map[string]int)
	for w := range types {
		a, ok := sliceAffix(kind, w, size)
		if !ok || len([]rune(w)) == size {
			continue
		}
		if strings.ContainsFunc(a, func(r rune) bool { return r == '_' || unicode.IsDigit(r) }) {
			continue
		}
		counts[a]++
	}
	affixes := make([]string, 0, len(counts))
	for a := range counts {
		affixes = append(affixes, a)
	}
	sort.Slice(affixes, func(i, j int) bool {
		if counts[affixes[i]] != counts[affixes[j]] {
			return counts[affixes[i]] > counts[affixes[j]]
		}
		return affixes[i] < affixes[j]
	})
	if num > 0 && len(affixes) > num {
		affixes = affixes[:num]
	}
	kept := affixes[:0]
	for _, a := range affixes {
		if counts[a] >= minOccurrences {
			kept = append(kept, a)
		}
	}
	return NewAffixTable(kind, size, kept)
}

func sliceAffix(kind AffixKind, word string, size int) (string, bool) {
	runes := []rune(word)
	if len(runes) < size {
		return "", false
	}
	if kind == Prefix {
		return string(runes[:size]), true
	}
	return string(runes[len(runes)-size:]), true
}

// Code returns the code of the word's affix, AffixOther when unknown.
func (t *AffixTable) Code(word string) int {
	a, ok := sliceAffix(t.Kind, strings.ToLower(word), t.Size)
	if !ok {
		return AffixOther
	}
	if c, ok := t.codes[a]; ok {
		return c
	}
	return AffixOther
}

// PaddingCode is the code assigned to padding tokens.
func (t *AffixTable) PaddingCode() int {
	return len(t.Affixes) + 1
}

// NumValues is the number of rows the matching feature table needs.
func (t *AffixTable) NumValues() int {
	return len(t.Affixes) + 2
}

// Save writes one affix per line, in code order.
func (t *AffixTable) Save(filePath string) error {
	var sb strings.Builder
	for _, a := range t.Affixes {
		sb.WriteString(a)
		sb.WriteString("\n")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, []byte(sb.String()), 0644)
}

// LoadAffixTable reads a list written by Save.
func LoadAffixTable(kind AffixKind, filePath string, size int) (*AffixTable, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, nerror.MissingResourceError{Resource: kind.String() + " list", Path: filePath, Err: err}
	}
	defer f.Close()
	var affixes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		affixes = append(affixes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	t, err := NewAffixTable(kind, size, affixes)
	if err != nil {
		return nil, fmt.Errorf("invalid %s list %s: %w", kind, filePath, err)
	}
	return t, nil
}

// AffixExtractor emits affix codes from a loaded table.
type AffixExtractor struct {
	table *AffixTable
}

// ErrTableNotLoaded is returned when an extractor is created over a
// missing table.
var ErrTableNotLoaded = errors.New("feature table not loaded")

// NewAffixExtractor fails when the table was never loaded.
func NewAffixExtractor(table *AffixTable) (*AffixExtractor, error) {
	if table == nil {
		return nil, fmt.Errorf("affix extractor: %w", ErrTableNotLoaded)
	}
	return &AffixExtractor{table: table}, nil
}

func (e *AffixExtractor) Kind() string {
	return e.table.Kind.String()
}

func (e *AffixExtractor) NumValues() int {
	return e.table.NumValues()
}

func (e *AffixExtractor) Extract(sentence []tag.Token) []int {
	ans := make([]int, len(sentence))
	for i, t := range sentence {
		if t.IsPadding() {
			ans[i] = e.table.PaddingCode()
			continue
		}
		ans[i] = e.table.Code(t.Word)
	}
	return ans
}
