package attributes

import (
	"fmt"

	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/nnu/vocab"
	"github.com/golangast/nlpnet/tagger/tag"
)

// WordExtractor emits word dictionary indices. With UseLemma the lemma is
// looked up instead of the surface form.
type WordExtractor struct {
	dict     *vocab.WordDictionary
	useLemma bool
}

// NewWordExtractor fails when the dictionary was never loaded.
func NewWordExtractor(dict *vocab.WordDictionary, useLemma bool) (*WordExtractor, error) {
	if dict == nil {
		return nil, fmt.Errorf("word extractor: %w", ErrTableNotLoaded)
	}
	return &WordExtractor{dict: dict, useLemma: useLemma}, nil
}

func (e *WordExtractor) Kind() string {
	return metadata.FeatureTypes
}

func (e *WordExtractor) NumValues() int {
	return e.dict.Size()
}

func (e *WordExtractor) Extract(sentence []tag.Token) []int {
	ans := make([]int, len(sentence))
	for i, t := range sentence {
		switch t.Pad {
		case tag.PadLeft:
			ans[i] = vocab.PaddingLeftIndex
		case tag.PadRight:
			ans[i] = vocab.PaddingRightIndex
		default:
			w := t.Word
			if e.useLemma && t.Lemma != "" && t.Lemma != tag.NA {
				w = t.Lemma
			}
			ans[i] = e.dict.Index(w)
		}
	}
	return ans
}

// Tag feature codes. Dictionary tags are numbered from TagFeatureFirst.
const (
	TagFeaturePadding = iota
	TagFeatureUnknown
	TagFeatureFirst
)

// TagFeatureExtractor turns a token attribute (POS or chunk tag) into a
// discrete feature.
type TagFeatureExtractor struct {
	kind  string
	dict  *vocab.TagDictionary
	field func(tag.Token) string
}

// NewPOSExtractor reads Token.Pos.
func NewPOSExtractor(dict *vocab.TagDictionary) (*TagFeatureExtractor, error) {
	return newTagFeatureExtractor(metadata.FeaturePOS, dict, func(t tag.Token) string { return t.Pos })
}

// NewChunkExtractor reads Token.Chunk.
func NewChunkExtractor(dict *vocab.TagDictionary) (*TagFeatureExtractor, error) {
	return newTagFeatureExtractor(metadata.FeatureChunk, dict, func(t tag.Token) string { return t.Chunk })
}

func newTagFeatureExtractor(kind string, dict *vocab.TagDictionary, field func(tag.Token) string) (*TagFeatureExtractor, error) {
	if dict == nil {
		return nil, fmt.Errorf("%s extractor: %w", kind, ErrTableNotLoaded)
	}
	return &TagFeatureExtractor{kind: kind, dict: dict, field: field}, nil
}

func (e *TagFeatureExtractor) Kind() string {
	return e.kind
}

func (e *TagFeatureExtractor) NumValues() int {
	return e.dict.Size() + TagFeatureFirst
}

func (e *TagFeatureExtractor) Extract(sentence []tag.Token) []int {
	ans := make([]int, len(sentence))
	for i, t := range sentence {
		if t.IsPadding() {
			ans[i] = TagFeaturePadding
			continue
		}
		if idx, ok := e.dict.Index(e.field(t)); ok {
			ans[i] = idx + TagFeatureFirst
		} else {
			ans[i] = TagFeatureUnknown
		}
	}
	return ans
}
