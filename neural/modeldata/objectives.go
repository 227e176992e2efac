package modeldata

import (
	"golang.org/x/exp/rand"

	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nn"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/nnu/train"
	"github.com/golangast/nlpnet/neural/nnu/vocab"
	"github.com/golangast/nlpnet/tagger/tag"
)

func tagIndices(td *vocab.TagDictionary, tags []string) ([]int, error) {
	ans := make([]int, len(tags))
	for i, t := range tags {
		idx, ok := td.Index(t)
		if !ok {
			return nil, nerror.NewConfigError("tag %s is not in the tag dictionary", t)
		}
		ans[i] = idx
	}
	return ans, nil
}

// srlExample is one predicate of a sentence.
type srlExample struct {
	sentence  [][]int
	predicate int
	tags      []int
	spans     []tag.Span
}

// NewObjective binds the corpus to the network of the model. The corpus is
// converted once, up front.
func NewObjective(c *Corpus, m *Model, rng *rand.Rand, alpha float64) (train.Objective, error) {
	conv := m.Converter
	switch c.Task {
	case metadata.TaskPOS, metadata.TaskNER, metadata.TaskSRLPredicates:
		var tokens [][]tag.Token
		var gold [][]string
		if c.Task == metadata.TaskSRLPredicates {
			for _, s := range c.SRL {
				tokens = append(tokens, s.Tokens)
				gold = append(gold, s.PredicateTags())
			}
		} else {
			for _, s := range c.Tagged {
				tokens = append(tokens, s.Tokens)
				gold = append(gold, s.Tags)
			}
		}
		sentences := make([][][]int, len(tokens))
		tags := make([][]int, len(tokens))
		for i := range tokens {
			sentences[i] = conv.Convert(tokens[i])
			var err error
			if tags[i], err = tagIndices(m.Resources.Tags, gold[i]); err != nil {
				return nil, err
			}
		}
		return train.Func(len(sentences), func(i int) (int, int, error) {
			hits, err := m.Network.TrainSentence(sentences[i], tags[i])
			return hits, len(tags[i]), err
		}), nil

	case metadata.TaskSRL, metadata.TaskSRLBoundary, metadata.TaskSRLClassify:
		examples, err := srlExamples(c, m)
		if err != nil {
			return nil, err
		}
		return train.Func(len(examples), func(i int) (int, int, error) {
			ex := examples[i]
			var hits int
			var err error
			if c.Task == metadata.TaskSRLClassify {
				hits, err = m.Conv.TrainArguments(ex.sentence, ex.predicate, ex.spans, ex.tags)
			} else {
				hits, err = m.Conv.TrainSentence(ex.sentence, ex.predicate, ex.tags)
			}
			return hits, len(ex.tags), err
		}), nil

	case metadata.TaskLM:
		lm, err := nn.WrapLanguageModel(m.Network, rng)
		if err != nil {
			return nil, err
		}
		sentences := make([][][]int, len(c.Plain))
		for i, s := range c.Plain {
			sentences[i] = conv.ConvertWords(s)
		}
		return train.Func(len(sentences), func(i int) (int, int, error) {
			hits, err := lm.TrainSentence(sentences[i])
			return hits, len(sentences[i]), err
		}), nil

	case metadata.TaskSSLM:
		sm, err := nn.WrapSentimentModel(m.Network, rng, alpha)
		if err != nil {
			return nil, err
		}
		sentences := make([][][]int, len(c.Tweets))
		for i, t := range c.Tweets {
			sentences[i] = conv.ConvertWords(t.Tokens)
		}
		return train.Func(len(sentences), func(i int) (int, int, error) {
			hits, err := sm.TrainTweet(sentences[i], int(c.Tweets[i].Polarity))
			return hits, len(sentences[i]), err
		}), nil
	}
	return nil, nerror.NewConfigError("unknown task: %s", c.Task)
}

func srlExamples(c *Corpus, m *Model) ([]srlExample, error) {
	var ans []srlExample
	for _, s := range c.SRL {
		sentence := m.Converter.Convert(s.Tokens)
		for _, p := range s.Predicates {
			ex := srlExample{sentence: sentence, predicate: p.Index}
			var labels []string
			if c.Task == metadata.TaskSRLClassify {
				if len(p.Arguments) == 0 {
					continue
				}
				for _, a := range p.Arguments {
					labels = append(labels, a.Label)
					ex.spans = append(ex.spans, a.Span)
				}

			} else {
				var err error
				if labels, err = srlTags(c.Task, s, p); err != nil {
					return nil, err
				}
			}
			var err error
			if ex.tags, err = tagIndices(m.Resources.Tags, labels); err != nil {
				return nil, err
			}
			ans = append(ans, ex)
		}
	}
	if len(ans) == 0 {
		return nil, nerror.NewConfigError("the corpus contains no usable predicates")
	}
	return ans, nil
}
