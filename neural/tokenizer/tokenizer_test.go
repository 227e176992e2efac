package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		text     string
		expected []string
	}{
		{"The dog barks.", []string{"The", "dog", "barks", "."}},
		{"Gas hit $3.39!", []string{"Gas", "hit", "$3.39", "!"}},
		{"(yes), 1,000 times", []string{"(", "yes", ")", ",", "1,000", "times"}},
		{"don't", []string{"don't"}},
		{"   ", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			actual := Tokenize(tc.text)
			if !reflect.DeepEqual(actual, tc.expected) {
				t.Errorf("Tokenize(%q) = %q; expected %q", tc.text, actual, tc.expected)
			}
		})
	}
}

func TestSentences(t *testing.T) {
	got := Sentences("It rains. Does it? Yes")
	expected := [][]string{{"It", "rains", "."}, {"Does", "it", "?"}, {"Yes"}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Sentences() = %q; expected %q", got, expected)
	}
}
