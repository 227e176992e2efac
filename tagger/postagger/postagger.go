// Package postagger assigns part-of-speech tags with a trained window
// network.
package postagger

import (
	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/modeldata"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger/tag"
)

type POSTagger struct {
	model *modeldata.Model
}

// New wraps a loaded POS model.
func New(m *modeldata.Model) (*POSTagger, error) {
	if m.Metadata.Task != metadata.TaskPOS || m.Network == nil {
		return nil, nerror.NewConfigError("model of task %s cannot tag POS", m.Metadata.Task)
	}
	return &POSTagger{model: m}, nil
}

// Load reads the POS model from the data directory.
func Load(paths config.Paths) (*POSTagger, error) {
	m, err := modeldata.LoadModel(paths, metadata.TaskPOS)
	if err != nil {
		return nil, err
	}
	return New(m)
}

// Tags returns the POS tag of every token.
func (pt *POSTagger) Tags(tokens []string) []string {
	if len(tokens) == 0 {
		return []string{}
	}
	codes := pt.model.Converter.ConvertWords(tokens)
	indices := pt.model.Network.Tag(codes)
	ans := make([]string, len(indices))
	for i, idx := range indices {
		ans[i] = pt.model.Resources.Tags.Tag(idx)
	}
	return ans
}

// TagSentence pairs every token with its tag.
func (pt *POSTagger) TagSentence(tokens []string) []tag.TaggedToken {
	tags := pt.Tags(tokens)
	ans := make([]tag.TaggedToken, len(tokens))
	for i, t := range tokens {
		ans[i] = tag.TaggedToken{Token: t, Tag: tags[i]}
	}
	return ans
}

// Tag tags already tokenized sentences.
func (pt *POSTagger) Tag(sentences [][]string) [][]tag.TaggedToken {
	ans := make([][]tag.TaggedToken, len(sentences))
	for i, s := range sentences {
		ans[i] = pt.TagSentence(s)
	}
	return ans
}

// Annotate fills the Pos attribute of the tokens.
func (pt *POSTagger) Annotate(tokens []tag.Token) {
	tags := pt.Tags(tag.Words(tokens))
	for i := range tokens {
		tokens[i].Pos = tags[i]
	}
}
