package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/golangast/nlpnet/neural/nnu/vocab"
)

func TestPadding(t *testing.T) {
	left := PaddingLeft()
	assert.True(t, left.IsPadding())
	assert.Equal(t, vocab.PaddingLeft, left.Word)
	assert.True(t, PaddingRight().IsPadding())

	// a real token spelled like the padding entry is not padding
	assert.False(t, NewToken(vocab.PaddingLeft).IsPadding())
}

func TestSRLString(t *testing.T) {
	s := SRLAnnotatedSentence{
		Tokens: []string{"John", "ate", "apples"},
		ArgStructures: []ArgStructure{{
			Predicate:      "ate",
			PredicateIndex: 1,
			Arguments: map[string][]string{
				"A1": {"apples"},
				"A0": {"John"},
			},
		}},
	}
	assert.Equal(t, "John ate apples\nate\n\tA0: John\n\tA1: apples\n", s.String())
}
