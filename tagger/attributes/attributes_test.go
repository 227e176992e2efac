package attributes

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/vocab"
	"github.com/golangast/nlpnet/tagger/tag"
)

func TestCapitalization(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"The", CapsTitle},
		{"dog", CapsNoCaps},
		{"USA", CapsUpper},
		{"iPhone", CapsHasCap},
		{"McDonald", CapsHasCap},
		{"A", CapsUpper},
		{"3D", CapsUpper},
		{"1999", CapsNoCaps},
		{".", CapsNoCaps},
		{"", CapsNoCaps},
		{"Über", CapsTitle},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, Capitalization(tt.word))
		})
	}
}

func TestCapsPaddingIgnoresLiteral(t *testing.T) {
	upper := tag.NewToken("ABC")
	upper.Pad = tag.PadLeft
	sentence := []tag.Token{upper, tag.PaddingRight(), tag.NewToken(vocab.PaddingLeft)}
	codes := NewCapsExtractor().Extract(sentence)
	assert.Equal(t, CapsPadding, codes[0])
	assert.Equal(t, CapsPadding, codes[1])
	// a regular token spelled like the padding marker is not padding
	assert.NotEqual(t, CapsPadding, codes[2])
	for _, c := range codes {
		assert.True(t, c >= 0 && c < NumCaps)
	}
}

func TestBuildAffixes(t *testing.T) {
	words := []string{"walking", "talking", "Running", "sing", "ng", "cats", "dogs", "x_ng", "a1ng", "is"}
	table, err := BuildAffixes(Suffix, words, 10, 2, 2)
	require.NoError(t, err)
	// "ng" occurs in walking, talking, running, sing; "gs"/"ts" only once
	assert.Equal(t, []string{"ng"}, table.Affixes)
	assert.Equal(t, 1, table.Code("JUMPING"))
	assert.Equal(t, AffixOther, table.Code("cat"))
	assert.Equal(t, AffixOther, table.Code("a"))
	assert.Equal(t, 2, table.PaddingCode())
	assert.Equal(t, 3, table.NumValues())

	prefixes, err := BuildAffixes(Prefix, []string{"unable", "undo", "until", "re", "redo", "rerun"}, 1, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"un"}, prefixes.Affixes)
	assert.Equal(t, 1, prefixes.Code("Unknown"))
}

func TestAffixCodesDistinct(t *testing.T) {
	table, err := NewAffixTable(Suffix, 2, []string{"ed", "ng", "ly", "er"})
	require.NoError(t, err)
	seen := make(map[int]string)
	for _, a := range table.Affixes {
		c := table.Code("xx" + a)
		assert.NotEqual(t, AffixOther, c)
		_, dup := seen[c]
		assert.False(t, dup, "code %d assigned twice", c)
		seen[c] = a
	}
	assert.Len(t, seen, len(table.Affixes))
	assert.NotEqual(t, AffixOther, table.PaddingCode())
	_, ok := seen[table.PaddingCode()]
	assert.False(t, ok)

	_, err = NewAffixTable(Suffix, 2, []string{"ed", "ed"})
	assert.Error(t, err)
	_, err = NewAffixTable(Suffix, 2, []string{"ing"})
	assert.Error(t, err)
}

func TestAffixTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suffixes.txt")
	table, err := NewAffixTable(Suffix, 2, []string{"ed", "ng", "ly"})
	require.NoError(t, err)
	require.NoError(t, table.Save(path))

	loaded, err := LoadAffixTable(Suffix, path, 2)
	require.NoError(t, err)
	for _, w := range []string{"walked", "sing", "quickly", "cat", "a"} {
		assert.Equal(t, table.Code(w), loaded.Code(w), w)
	}
	assert.Equal(t, table.NumValues(), loaded.NumValues())

	_, err = LoadAffixTable(Suffix, filepath.Join(t.TempDir(), "none.txt"), 2)
	var mre nerror.MissingResourceError
	assert.True(t, errors.As(err, &mre))
}

func TestExtractorsFailOnMissingTables(t *testing.T) {
	_, err := NewAffixExtractor(nil)
	assert.True(t, errors.Is(err, ErrTableNotLoaded))
	_, err = NewWordExtractor(nil, false)
	assert.True(t, errors.Is(err, ErrTableNotLoaded))
	_, err = NewGazetteerExtractor(nil)
	assert.True(t, errors.Is(err, ErrTableNotLoaded))
	_, err = NewPOSExtractor(nil)
	assert.True(t, errors.Is(err, ErrTableNotLoaded))
}

func TestGazetteerLongestMatch(t *testing.T) {
	g := NewGazetteer("LOC", []string{"New York", "New York City", "Paris", "  "})
	assert.Equal(t, 3, g.Len())
	e, err := NewGazetteerExtractor(g)
	require.NoError(t, err)

	sentence := append([]tag.Token{tag.PaddingLeft()}, tag.Tokens([]string{"I", "love", "new", "york", "city", "and", "PARIS"})...)
	got := e.Extract(sentence)
	want := []int{GazPadding, GazAbsent, GazAbsent, GazPresent, GazPresent, GazPresent, GazAbsent, GazPresent}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestTagFeatureExtractor(t *testing.T) {
	dict := vocab.NewTagDictionary([][]string{{"NN", "VB", "DT"}})
	e, err := NewPOSExtractor(dict)
	require.NoError(t, err)
	assert.Equal(t, 5, e.NumValues())

	tokens := tag.Tokens([]string{"the", "dog", "runs"})
	tokens[0].Pos = "DT"
	tokens[1].Pos = "NN"
	tokens[2].Pos = "VBZ"
	sentence := append(tokens, tag.PaddingRight())
	want := []int{TagFeatureFirst + 2, TagFeatureFirst, TagFeatureUnknown, TagFeaturePadding}
	assert.Equal(t, want, e.Extract(sentence))
}

func TestWordExtractorLemma(t *testing.T) {
	dict := vocab.NewWordDictionary([][]string{{"run", "dog"}}, 0, 1)
	tokens := tag.Tokens([]string{"runs", "Dog"})
	tokens[0].Lemma = "run"

	plain, err := NewWordExtractor(dict, false)
	require.NoError(t, err)
	assert.Equal(t, []int{vocab.RareIndex, dict.Index("dog")}, plain.Extract(tokens))

	lemma, err := NewWordExtractor(dict, true)
	require.NoError(t, err)
	// a missing lemma falls back to the surface form
	assert.Equal(t, []int{dict.Index("run"), dict.Index("dog")}, lemma.Extract(tokens))
}

func TestConvertSentence(t *testing.T) {
	words := []string{"The", "Dog", "barks", "."}
	dict := vocab.NewWordDictionary([][]string{words}, 0, 1)
	we, err := NewWordExtractor(dict, false)
	require.NoError(t, err)
	conv := NewTokenConverter(we, NewCapsExtractor())

	got := conv.ConvertWords(words)
	require.Len(t, got, 4)
	for _, row := range got {
		require.Len(t, row, 2)
	}
	assert.Equal(t, dict.Index("Dog"), got[1][0])
	assert.Equal(t, CapsTitle, got[1][1])
	assert.Equal(t, CapsNoCaps, got[2][1])

	assert.Equal(t, []int{vocab.PaddingLeftIndex, CapsPadding}, conv.PaddingLeft())
	assert.Equal(t, []int{vocab.PaddingRightIndex, CapsPadding}, conv.PaddingRight())
	assert.Equal(t, []int{dict.Size(), NumCaps}, conv.NumValues())
}
