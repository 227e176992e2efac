// Package nertagger finds named entities with a trained window network
// decoding IOB tags through its transition scores.
package nertagger

import (
	"strings"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/modeldata"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger/tag"
)

type NERTagger struct {
	model *modeldata.Model
}

func New(m *modeldata.Model) (*NERTagger, error) {
	if m.Metadata.Task != metadata.TaskNER || m.Network == nil {
		return nil, nerror.NewConfigError("model of task %s cannot tag named entities", m.Metadata.Task)
	}
	return &NERTagger{model: m}, nil
}

// Load reads the NER model from the data directory.
func Load(paths config.Paths) (*NERTagger, error) {
	m, err := modeldata.LoadModel(paths, metadata.TaskNER)
	if err != nil {
		return nil, err
	}
	return New(m)
}

// TagSentence pairs every token with its entity tag.
func (nt *NERTagger) TagSentence(tokens []string) []tag.TaggedToken {
	ans := make([]tag.TaggedToken, len(tokens))
	if len(tokens) == 0 {
		return ans
	}
	// gazetteer matching needs the whole sentence
	indices := nt.model.Network.Tag(nt.model.Converter.ConvertWords(tokens))
	for i, idx := range indices {
		ans[i] = tag.TaggedToken{Token: tokens[i], Tag: nt.model.Resources.Tags.Tag(idx)}
	}
	return ans
}

// Tag tags already tokenized sentences.
func (nt *NERTagger) Tag(sentences [][]string) [][]tag.TaggedToken {
	ans := make([][]tag.TaggedToken, len(sentences))
	for i, s := range sentences {
		ans[i] = nt.TagSentence(s)
	}
	return ans
}

// Entity is a maximal run of tokens sharing an entity type.
type Entity struct {
	Type  string   `json:"type"`
	Start int      `json:"start"`
	Words []string `json:"words"`
}

// Entities groups the tagged tokens of a sentence into entities. Both
// IOB1 and IOB2 tag sets are accepted: a B tag or a change of type starts
// a new entity.
func Entities(tagged []tag.TaggedToken) []Entity {
	var ans []Entity
	var current *Entity
	for i, t := range tagged {
		prefix, typ, ok := strings.Cut(t.Tag, "-")
		if !ok {
			current = nil
			continue
		}
		if prefix == "B" || current == nil || current.Type != typ {
			ans = append(ans, Entity{Type: typ, Start: i})
			current = &ans[len(ans)-1]
		}
		current.Words = append(current.Words, t.Token)
	}
	return ans
}
