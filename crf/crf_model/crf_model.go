// Package crf_model holds the tag transition scores added to per-position
// network scores, and the decoder searching the best tag path under them.
package crf_model

import (
	"fmt"
	"strings"

	"github.com/golangast/nlpnet/neural/tensor"
)

// Impossible is the initial score of transitions the tag encoding forbids.
// Decoding never picks such a transition unless the network scores of the
// alternatives are lower by the same margin.
const Impossible = -1000.0

// Transitions is a [NumTags+2, NumTags+2] matrix. Entry (a, b) is the score
// of tag b following tag a. Row Start() holds the scores of the first tag
// and column End() those of the last one.
type Transitions struct {
	NumTags int
	Scores  *tensor.Tensor
}

// NewTransitions creates a transition matrix where every transition
// scores zero.
func NewTransitions(numTags int) *Transitions {
	return &Transitions{
		NumTags: numTags,
		Scores:  tensor.NewTensor([]int{numTags + 2, numTags + 2}, nil),
	}
}

// Start is the index of the virtual state preceding the first token.
func (t *Transitions) Start() int {
	return t.NumTags
}

// End is the index of the virtual state following the last token.
func (t *Transitions) End() int {
	return t.NumTags + 1
}

// Score returns the score of moving from state a to state b.
func (t *Transitions) Score(a, b int) float64 {
	return t.Scores.At(a, b)
}

// Scheme names a tag encoding the transitions can be initialized for.
type Scheme string

const (
	SchemeIOB   Scheme = "iob"
	SchemeIOBES Scheme = "iobes"
)

func splitTag(t string) (byte, string) {
	if t == "" {
		return 'O', ""
	}
	switch t[0] {
	case 'B', 'I', 'E', 'S':
		if len(t) == 1 {
			return t[0], ""
		}
		if t[1] == '-' {
			return t[0], t[2:]
		}
	}
	// tags outside the encoding (O, V) behave like O
	return 'O', ""
}

func allowedIOB(from, to string) bool {
	tp, tl := splitTag(to)
	if tp != 'I' {
		return true
	}
	fp, fl := splitTag(from)
	return (fp == 'B' || fp == 'I') && fl == tl
}

func allowedIOBES(from, to string) bool {
	fp, fl := splitTag(from)
	tp, tl := splitTag(to)
	open := fp == 'B' || fp == 'I'
	continues := tp == 'I' || tp == 'E'
	if open {
		return continues && fl == tl
	}
	return !continues
}

func (t *Transitions) init(tags []string, allowed func(from, to string) bool, canEnd func(tag string) bool) error {
	if len(tags) != t.NumTags {
		return fmt.Errorf("transitions created for %d tags, got %d", t.NumTags, len(tags))
	}
	for i := range t.Scores.Data {
		t.Scores.Data[i] = 0
	}
	for a, from := range tags {
		for b, to := range tags {
			if !allowed(from, to) {
				t.Scores.Set(a, b, Impossible)
			}
		}
		if !canEnd(from) {
			t.Scores.Set(a, t.End(), Impossible)
		}
	}
	// the start state behaves like O
	for b, to := range tags {
		if !allowed("O", to) {
			t.Scores.Set(t.Start(), b, Impossible)
		}
	}
	t.Scores.Set(t.Start(), t.End(), Impossible)
	for b := 0; b < t.NumTags+2; b++ {
		t.Scores.Set(t.End(), b, Impossible)
		t.Scores.Set(b, t.Start(), Impossible)
	}
	return nil
}

// InitIOB forbids I-X unless it follows B-X or I-X.
func (t *Transitions) InitIOB(tags []string) error {
	return t.init(tags, allowedIOB, func(string) bool { return true })
}

// InitIOBES forbids everything but I-X and E-X after B-X or I-X, forbids
// I-X and E-X anywhere else and forbids ending inside an open span.
func (t *Transitions) InitIOBES(tags []string) error {
	return t.init(tags, allowedIOBES, func(tag string) bool {
		p, _ := splitTag(tag)
		return p != 'B' && p != 'I'
	})
}

// InitBoundaries initializes the transitions for argument identification,
// where the tags are the untyped IOBES boundaries (B, I, E, S, O).
func (t *Transitions) InitBoundaries(tags []string) error {
	for _, tag := range tags {
		if strings.Contains(tag, "-") {
			return fmt.Errorf("boundary tag %q carries a label", tag)
		}
	}
	return t.InitIOBES(tags)
}

// Init selects the initialization matching scheme.
func (t *Transitions) Init(scheme Scheme, onlyBoundaries bool, tags []string) error {
	switch {
	case onlyBoundaries:
		return t.InitBoundaries(tags)
	case scheme == SchemeIOBES:
		return t.InitIOBES(tags)
	case scheme == SchemeIOB || scheme == "":
		return t.InitIOB(tags)
	default:
		return fmt.Errorf("unknown tag scheme %s", scheme)
	}
}
