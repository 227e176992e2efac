// Package srltagger labels the semantic roles of the predicates of a
// sentence.
//
// Predicates are found first by a window network. Their arguments then come
// either from a single convolutional network emitting IOB role tags or from
// two of them: one finding argument boundaries and one labelling the spans
// found.
package srltagger

import (
	"sort"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/rs/zerolog/log"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/modeldata"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/tensor"
	"github.com/golangast/nlpnet/tagger/postagger"
	"github.com/golangast/nlpnet/tagger/reader"
	"github.com/golangast/nlpnet/tagger/tag"
)

type SRLTagger struct {
	predicates *modeldata.Model
	// one step mode
	srl *modeldata.Model
	// two step mode
	boundary *modeldata.Model
	classify *modeldata.Model

	pos *postagger.POSTagger

	// NoRepeat forbids a role label to be given to two arguments of the
	// same predicate.
	NoRepeat bool
}

func checkModel(m *modeldata.Model, task metadata.Task) error {
	if m == nil {
		return nil
	}
	if m.Metadata.Task != task {
		return nerror.NewConfigError("expected a %s model, got %s", task, m.Metadata.Task)
	}
	if task == metadata.TaskSRLPredicates && m.Network == nil {
		return nerror.NewConfigError("%s model has no window network", task)
	}
	if task != metadata.TaskSRLPredicates && m.Conv == nil {
		return nerror.NewConfigError("%s model has no convolutional network", task)
	}
	return nil
}

// New combines loaded models. Either srl or both boundary and classify must
// be given. pos is needed only when an argument model reads POS tags.
func New(predicates, srl, boundary, classify *modeldata.Model, pos *postagger.POSTagger) (*SRLTagger, error) {
	if predicates == nil {
		return nil, nerror.NewConfigError("the predicate model is required")
	}
	if srl == nil && (boundary == nil || classify == nil) {
		return nil, nerror.NewConfigError("either the srl model or both the boundary and classify models are required")
	}
	for task, m := range map[metadata.Task]*modeldata.Model{
		metadata.TaskSRLPredicates: predicates,
		metadata.TaskSRL:           srl,
		metadata.TaskSRLBoundary:   boundary,
		metadata.TaskSRLClassify:   classify,
	} {
		if err := checkModel(m, task); err != nil {
			return nil, err
		}
	}
	st := &SRLTagger{predicates: predicates, srl: srl, boundary: boundary, classify: classify, pos: pos}
	if st.needsPOS() && pos == nil {
		return nil, nerror.NewConfigError("the argument models use POS tags but no POS tagger was given")
	}
	return st, nil
}

func (st *SRLTagger) models() []*modeldata.Model {
	ans := []*modeldata.Model{st.predicates}
	for _, m := range []*modeldata.Model{st.srl, st.boundary, st.classify} {
		if m != nil {
			ans = append(ans, m)
		}
	}
	return ans
}

func (st *SRLTagger) needsPOS() bool {
	for _, m := range st.models() {
		if m.Metadata.UsePOS {
			return true
		}
	}
	return false
}

// Load reads the SRL models from the data directory. The one step model is
// preferred when it exists.
func Load(paths config.Paths, noRepeat bool) (*SRLTagger, error) {
	predicates, err := modeldata.LoadModel(paths, metadata.TaskSRLPredicates)
	if err != nil {
		return nil, err
	}
	var srl, boundary, classify *modeldata.Model
	if fs.PathExists(paths.Metadata(metadata.TaskSRL)) {
		if srl, err = modeldata.LoadModel(paths, metadata.TaskSRL); err != nil {
			return nil, err
		}
		log.Debug().Msg("using the one step SRL model")

	} else {
		if boundary, err = modeldata.LoadModel(paths, metadata.TaskSRLBoundary); err != nil {
			return nil, err
		}
		if classify, err = modeldata.LoadModel(paths, metadata.TaskSRLClassify); err != nil {
			return nil, err
		}
		log.Debug().Msg("using the boundary and classify SRL models")
	}
	var pos *postagger.POSTagger
	for _, m := range []*modeldata.Model{predicates, srl, boundary, classify} {
		if m != nil && m.Metadata.UsePOS {
			if pos, err = postagger.Load(paths); err != nil {
				return nil, err
			}
			break
		}
	}
	st, err := New(predicates, srl, boundary, classify, pos)
	if err != nil {
		return nil, err
	}
	st.NoRepeat = noRepeat
	return st, nil
}

// Predicates returns the positions tagged as predicates.
func (st *SRLTagger) Predicates(tokens []tag.Token) []int {
	m := st.predicates
	indices := m.Network.Tag(m.Converter.Convert(tokens))
	var ans []int
	for i, idx := range indices {
		if m.Resources.Tags.Tag(idx) == reader.PredicateTag {
			ans = append(ans, i)
		}
	}
	return ans
}

// TagSentence finds the predicates of the sentence and the arguments of
// each of them.
func (st *SRLTagger) TagSentence(words []string) (tag.SRLAnnotatedSentence, error) {
	ans := tag.SRLAnnotatedSentence{Tokens: words, ArgStructures: []tag.ArgStructure{}}
	if len(words) == 0 {
		return ans, nil
	}
	tokens := tag.Tokens(words)
	if st.pos != nil {
		st.pos.Annotate(tokens)
	}
	for _, p := range st.Predicates(tokens) {
		args, err := st.Arguments(tokens, p)
		if err != nil {
			return ans, err
		}
		as := tag.ArgStructure{Predicate: words[p], PredicateIndex: p, Arguments: map[string][]string{}}
		for _, a := range args {
			if a.Label == reader.PredicateTag {
				continue
			}
			as.Arguments[a.Label] = append(as.Arguments[a.Label], words[a.Span.Start:a.Span.End+1]...)
		}
		ans.ArgStructures = append(ans.ArgStructures, as)
	}
	return ans, nil
}

// Tag tags already tokenized sentences.
func (st *SRLTagger) Tag(sentences [][]string) ([]tag.SRLAnnotatedSentence, error) {
	ans := make([]tag.SRLAnnotatedSentence, len(sentences))
	for i, s := range sentences {
		var err error
		if ans[i], err = st.TagSentence(s); err != nil {
			return nil, err
		}
	}
	return ans, nil
}

// Arguments returns the labelled arguments of the predicate at position
// predicate.
func (st *SRLTagger) Arguments(tokens []tag.Token, predicate int) ([]reader.Argument, error) {
	if st.srl != nil {
		m := st.srl
		indices, err := m.Conv.TagSentence(m.Converter.Convert(tokens), predicate)
		if err != nil {
			return nil, err
		}
		tags := make([]string, len(indices))
		for i, idx := range indices {
			tags[i] = m.Resources.Tags.Tag(idx)
		}
		args := reader.ArgumentsFromTags(tags)
		if st.NoRepeat {
			args = dropRepeated(args)
		}
		return args, nil
	}

	b := st.boundary
	indices, err := b.Conv.TagSentence(b.Converter.Convert(tokens), predicate)
	if err != nil {
		return nil, err
	}
	tags := make([]string, len(indices))
	for i, idx := range indices {
		tags[i] = b.Resources.Tags.Tag(idx)
	}
	args := reader.ArgumentsFromTags(tags)
	if len(args) == 0 {
		return args, nil
	}
	spans := make([]tag.Span, len(args))
	for i, a := range args {
		spans[i] = a.Span
	}

	c := st.classify
	scores, err := c.Conv.Scores(c.Converter.Convert(tokens), predicate, spans)
	if err != nil {
		return nil, err
	}
	labels := c.Resources.Tags.Tags
	var assigned []int
	if st.NoRepeat {
		assigned = AssignUnique(scores)
	} else {
		assigned = make([]int, len(scores))
		for i, s := range scores {
			assigned[i] = tensor.ArgMax(s)
		}
	}
	for i := range args {
		args[i].Label = labels[assigned[i]]
	}
	return args, nil
}

// dropRepeated keeps the first argument of every label.
func dropRepeated(args []reader.Argument) []reader.Argument {
	seen := make(map[string]bool)
	ans := args[:0]
	for _, a := range args {
		if seen[a.Label] {
			continue
		}
		seen[a.Label] = true
		ans = append(ans, a)
	}
	return ans
}

// AssignUnique picks one label for each argument so that no label is used
// twice, taking the (argument, label) pairs greedily by decreasing score.
// Arguments left over once every label is used get their best label.
func AssignUnique(scores [][]float64) []int {
	type candidate struct {
		score      float64
		arg, label int
	}
	var candidates []candidate
	for a, s := range scores {
		for l, v := range s {
			candidates = append(candidates, candidate{v, a, l})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	ans := make([]int, len(scores))
	for i := range ans {
		ans[i] = -1
	}
	usedLabels := make(map[int]bool)
	for _, c := range candidates {
		if ans[c.arg] >= 0 || usedLabels[c.label] {
			continue
		}
		ans[c.arg] = c.label
		usedLabels[c.label] = true
	}
	for a, l := range ans {
		if l < 0 {
			ans[a] = tensor.ArgMax(scores[a])
		}
	}
	return ans
}
