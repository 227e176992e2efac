package modeldata

import (
	"github.com/rs/zerolog/log"

	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger/reader"
	"github.com/golangast/nlpnet/tagger/tag"
)

// Corpus is the training data of one task. Only the field matching the
// task is set.
type Corpus struct {
	Task   metadata.Task
	Tagged []reader.TaggedSentence
	SRL    []reader.SRLSentence
	Plain  [][]string
	Tweets []reader.Tweet
}

// ReadCorpus reads the gold corpus in the format of the task. For SRL
// tasks the optional semi corpus is appended.
func ReadCorpus(task metadata.Task, gold, semi string) (*Corpus, error) {
	c := &Corpus{Task: task}
	var err error
	switch {
	case task == metadata.TaskPOS:
		c.Tagged, err = reader.ReadPOSFile(gold)
	case task == metadata.TaskNER:
		c.Tagged, err = reader.ReadNERFile(gold)
	case task == metadata.TaskLM:
		c.Plain, err = reader.ReadPlainFile(gold)
	case task == metadata.TaskSSLM:
		c.Tweets, err = reader.ReadTweetsFile(gold)
	case task.IsSRL():
		c.SRL, err = reader.ReadSRLFile(gold)
		if err == nil && semi != "" {
			var extra []reader.SRLSentence
			if extra, err = reader.ReadSRLFile(semi); err == nil {
				log.Info().Int("sentences", len(extra)).Msg("adding semi-supervised data")
				c.SRL = append(c.SRL, extra...)
			}
		}
	default:
		return nil, nerror.NewConfigError("unknown task: %s", task)
	}
	if err != nil {
		return nil, err
	}
	if c.Len() == 0 {
		return nil, nerror.NewConfigError("corpus %s contains no sentences", gold)
	}
	return c, nil
}

// Len returns the number of sentences.
func (c *Corpus) Len() int {
	return len(c.Tagged) + len(c.SRL) + len(c.Plain) + len(c.Tweets)
}

// Sentences returns the tokens of every sentence.
func (c *Corpus) Sentences() [][]tag.Token {
	ans := make([][]tag.Token, 0, c.Len())
	for _, s := range c.Tagged {
		ans = append(ans, s.Tokens)
	}
	for _, s := range c.SRL {
		ans = append(ans, s.Tokens)
	}
	for _, s := range c.Plain {
		ans = append(ans, tag.Tokens(s))
	}
	for _, t := range c.Tweets {
		ans = append(ans, tag.Tokens(t.Tokens))
	}
	return ans
}

// srlTags encodes the arguments of a predicate the way the task's network
// outputs them.
func srlTags(task metadata.Task, s reader.SRLSentence, p reader.Predicate) ([]string, error) {
	if task == metadata.TaskSRLBoundary {
		return reader.ConvertTags(p.Arguments, len(s.Tokens), reader.SchemeIOBES, true)
	}
	return reader.ConvertTags(p.Arguments, len(s.Tokens), reader.SchemeIOB, false)
}

// TagSequences returns the gold output tags the tag dictionary of the task
// is built from.
func (c *Corpus) TagSequences() ([][]string, error) {
	switch c.Task {
	case metadata.TaskPOS, metadata.TaskNER:
		return reader.Tags(c.Tagged), nil
	case metadata.TaskSRLPredicates:
		ans := make([][]string, len(c.SRL))
		for i, s := range c.SRL {
			ans[i] = s.PredicateTags()
		}
		return ans, nil
	case metadata.TaskSRLClassify:
		var ans [][]string
		for _, s := range c.SRL {
			for _, p := range s.Predicates {
				labels := make([]string, len(p.Arguments))
				for i, a := range p.Arguments {
					labels[i] = a.Label
				}
				ans = append(ans, labels)
			}
		}
		return ans, nil
	case metadata.TaskSRL, metadata.TaskSRLBoundary:
		var ans [][]string
		for _, s := range c.SRL {
			for _, p := range s.Predicates {
				tags, err := srlTags(c.Task, s, p)
				if err != nil {
					return nil, err
				}
				ans = append(ans, tags)
			}
		}
		return ans, nil
	}
	return nil, nil
}
