package tag

import (
	"strings"

	"github.com/golangast/nlpnet/neural/nnu/vocab"
)

// Pad marks synthesized tokens placed around a sentence.
type Pad int

const (
	NoPad Pad = iota
	PadLeft
	PadRight
)

// Token carries the surface form of a word plus the optional attributes
// the extractors may read. Unset attributes hold NA.
type Token struct {
	Word  string `json:"word"`
	Lemma string `json:"lemma,omitempty"`
	Pos   string `json:"pos,omitempty"`
	Morph string `json:"morph,omitempty"`
	Chunk string `json:"chunk,omitempty"`
	Pad   Pad    `json:"-"`
}

// NA is the value of an attribute the reader did not provide.
const NA = "NA"

// NewToken creates a token with only its surface form set.
func NewToken(word string) Token {
	return Token{Word: word, Lemma: NA, Pos: NA, Morph: NA, Chunk: NA}
}

// Tokens wraps plain strings into tokens.
func Tokens(words []string) []Token {
	ans := make([]Token, len(words))
	for i, w := range words {
		ans[i] = NewToken(w)
	}
	return ans
}

// Words returns the surface forms of a sentence.
func Words(sentence []Token) []string {
	ans := make([]string, len(sentence))
	for i, t := range sentence {
		ans[i] = t.Word
	}
	return ans
}

// PaddingLeft returns the token placed before the first word.
func PaddingLeft() Token {
	t := NewToken(vocab.PaddingLeft)
	t.Pad = PadLeft
	return t
}

// PaddingRight returns the token placed after the last word.
func PaddingRight() Token {
	t := NewToken(vocab.PaddingRight)
	t.Pad = PadRight
	return t
}

// IsPadding reports whether the token was synthesized as padding. The
// literal word of a regular token never makes it padding.
func (t Token) IsPadding() bool {
	return t.Pad != NoPad
}

func (t Token) String() string {
	return t.Word
}

// TaggedToken is one token of a tagger's output.
type TaggedToken struct {
	Token string `json:"token"`
	Tag   string `json:"tag"`
}

// ArgStructure lists the arguments of one predicate, keyed by role label.
type ArgStructure struct {
	Predicate      string              `json:"predicate"`
	PredicateIndex int                 `json:"predicateIndex"`
	Arguments      map[string][]string `json:"arguments"`
}

// SRLAnnotatedSentence is the output of the SRL tagger.
type SRLAnnotatedSentence struct {
	Tokens        []string       `json:"tokens"`
	ArgStructures []ArgStructure `json:"argStructures"`
}

// String renders the sentence the way the command line tagger prints it.
func (s SRLAnnotatedSentence) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(s.Tokens, " "))
	sb.WriteString("\n")
	for _, as := range s.ArgStructures {
		sb.WriteString(as.Predicate)
		sb.WriteString("\n")
		for _, label := range as.Labels() {
			sb.WriteString("\t")
			sb.WriteString(label)
			sb.WriteString(": ")
			sb.WriteString(strings.Join(as.Arguments[label], " "))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
