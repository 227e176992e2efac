// Package tagger gives the POS, NER and SRL taggers a common face.
package tagger

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/tokenizer"
	"github.com/golangast/nlpnet/tagger/nertagger"
	"github.com/golangast/nlpnet/tagger/postagger"
	"github.com/golangast/nlpnet/tagger/srltagger"
	"github.com/golangast/nlpnet/tagger/tag"
)

// Result is the output of a tagger. Tokens is set by the POS and NER
// taggers, SRL by the SRL tagger.
type Result struct {
	Task   metadata.Task              `json:"task"`
	Tokens [][]tag.TaggedToken        `json:"tokens,omitempty"`
	SRL    []tag.SRLAnnotatedSentence `json:"srl,omitempty"`
}

// Tagger tags tokenized sentences.
type Tagger interface {
	Task() metadata.Task
	TagSentences(sentences [][]string) (Result, error)
}

type posTagger struct{ *postagger.POSTagger }

func (posTagger) Task() metadata.Task { return metadata.TaskPOS }

func (t posTagger) TagSentences(sentences [][]string) (Result, error) {
	return Result{Task: metadata.TaskPOS, Tokens: t.Tag(sentences)}, nil
}

type nerTagger struct{ *nertagger.NERTagger }

func (nerTagger) Task() metadata.Task { return metadata.TaskNER }

func (t nerTagger) TagSentences(sentences [][]string) (Result, error) {
	return Result{Task: metadata.TaskNER, Tokens: t.Tag(sentences)}, nil
}

type srlTagger struct{ *srltagger.SRLTagger }

func (srlTagger) Task() metadata.Task { return metadata.TaskSRL }

func (t srlTagger) TagSentences(sentences [][]string) (Result, error) {
	ans, err := t.Tag(sentences)
	if err != nil {
		return Result{}, err
	}
	return Result{Task: metadata.TaskSRL, SRL: ans}, nil
}

// Load loads the tagger of a task from the data directory. noRepeat only
// matters for SRL.
func Load(paths config.Paths, task metadata.Task, noRepeat bool) (Tagger, error) {
	switch task {
	case metadata.TaskPOS:
		t, err := postagger.Load(paths)
		if err != nil {
			return nil, err
		}
		return posTagger{t}, nil
	case metadata.TaskNER:
		t, err := nertagger.Load(paths)
		if err != nil {
			return nil, err
		}
		return nerTagger{t}, nil
	case metadata.TaskSRL:
		t, err := srltagger.Load(paths, noRepeat)
		if err != nil {
			return nil, err
		}
		return srlTagger{t}, nil
	}
	return nil, nerror.NewConfigError("no tagger for task %s", task)
}

// TagText splits the text into sentences and tokens and tags them.
func TagText(t Tagger, text string) (Result, error) {
	return t.TagSentences(tokenizer.Sentences(text))
}

// Write prints the result the way the command line tools do. Tagged tokens
// go one per line, sentences are separated by a blank line.
func (r Result) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if r.Task == metadata.TaskSRL {
		for _, s := range r.SRL {
			fmt.Fprintln(bw, s.String())
		}
		return bw.Flush()
	}
	for _, s := range r.Tokens {
		for _, t := range s {
			fmt.Fprintf(bw, "%s\t%s\n", t.Token, t.Tag)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// Inline renders token-tag sentences on single lines as token_TAG.
func (r Result) Inline() string {
	lines := make([]string, len(r.Tokens))
	for i, s := range r.Tokens {
		parts := make([]string, len(s))
		for j, t := range s {
			parts[j] = t.Token + "_" + t.Tag
		}
		lines[i] = strings.Join(parts, " ")
	}
	return strings.Join(lines, "\n")
}
