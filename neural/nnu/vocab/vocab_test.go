package vocab

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = [][]string{
	{"The", "dog", "barks", "."},
	{"the", "cat", "sleeps", "in", "1999", "."},
	{"A", "dog", "and", "the", "cat", "."},
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		token    string
		expected string
	}{
		{"Dog", "dog"},
		{"1984", "9999"},
		{"A4", "a9"},
		{"", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.token))
		})
	}
}

func TestNewWordDictionary(t *testing.T) {
	wd := NewWordDictionary(corpus, 0, 1)
	require.NoError(t, wd.Check())
	assert.Equal(t, Rare, wd.Word(RareIndex))
	assert.Equal(t, PaddingLeft, wd.Word(PaddingLeftIndex))
	assert.Equal(t, PaddingRight, wd.Word(PaddingRightIndex))
	// "the" and "." both occur 3 times, "." sorts first
	assert.Equal(t, ".", wd.Word(3))
	assert.Equal(t, "the", wd.Word(4))
	assert.Equal(t, wd.Index("THE"), wd.Index("the"))
	assert.Equal(t, wd.Index("2001"), wd.Index("1999"))
	assert.Equal(t, RareIndex, wd.Index("unseen"))
}

func TestWordDictionaryThresholds(t *testing.T) {
	wd := NewWordDictionary(corpus, 0, 2)
	// ".", "the", "dog", "cat" occur at least twice
	assert.Equal(t, 4+3, wd.Size())
	assert.Equal(t, RareIndex, wd.Index("barks"))

	capped := NewWordDictionary(corpus, 2, 1)
	assert.Equal(t, 2+3, capped.Size())
}

func TestWordDictionaryRoundTrip(t *testing.T) {
	wd := NewWordDictionary(corpus, 0, 1)
	path := filepath.Join(t.TempDir(), "words.gob")
	require.NoError(t, wd.Save(path))

	loaded, err := LoadWordDictionary(path)
	require.NoError(t, err)
	for _, sent := range corpus {
		assert.Equal(t, wd.Indices(sent), loaded.Indices(sent))
	}
	assert.Equal(t, wd.Size(), loaded.Size())
}

func TestLoadRejectsCorruptedDictionary(t *testing.T) {
	bad := &WordDictionary{Tokens: []string{"a", "b", "c"}}
	path := filepath.Join(t.TempDir(), "bad.gob")
	require.NoError(t, bad.Save(path))
	_, err := LoadWordDictionary(path)
	assert.Error(t, err)
}

func TestTagDictionary(t *testing.T) {
	td := NewTagDictionary([][]string{{"DT", "NN", "VB"}, {"NN", "."}})
	assert.Equal(t, 4, td.Size())
	i, ok := td.Index("VB")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = td.Index("JJ")
	assert.False(t, ok)

	td.RareTag = "NN"
	i, ok = td.Index("JJ")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	path := filepath.Join(t.TempDir(), "tags.gob")
	require.NoError(t, td.Save(path))
	loaded, err := LoadTagDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, td.Tags, loaded.Tags)
	i, ok = loaded.Index("JJ")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}
