package srltagger

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/neural/modeldata"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger/reader"
	"github.com/golangast/nlpnet/tagger/tag"
)

func TestAssignUnique(t *testing.T) {
	tests := []struct {
		name   string
		scores [][]float64
		want   []int
	}{
		{"distinct best labels", [][]float64{{3, 1}, {0, 2}}, []int{0, 1}},
		{"conflict goes to the higher score", [][]float64{{3, 2}, {4, 0}}, []int{1, 0}},
		{"more arguments than labels", [][]float64{{5, 1}, {4, 0}, {3, 2}}, []int{0, 0, 1}},
		{"no arguments", nil, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AssignUnique(tt.scores); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AssignUnique() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDropRepeated(t *testing.T) {
	args := []reader.Argument{
		{Label: "A0", Span: tag.Span{Start: 0, End: 0}},
		{Label: "A1", Span: tag.Span{Start: 2, End: 3}},
		{Label: "A0", Span: tag.Span{Start: 5, End: 5}},
	}
	got := dropRepeated(args)
	assert.Equal(t, []string{"A0", "A1"}, []string{got[0].Label, got[1].Label})
	assert.Len(t, got, 2)
}

func TestNewRequiresModels(t *testing.T) {
	pred := &modeldata.Model{Metadata: &metadata.Metadata{Task: metadata.TaskSRLPredicates}}
	_, err := New(nil, nil, nil, nil, nil)
	assert.Error(t, err)
	_, err = New(pred, nil, nil, nil, nil)
	assert.Error(t, err)
}

const corpus = `The the DT B-NP - (A0*
cat cat NN I-NP - *)
sat sit VBD B-VP sit (V*)
. . . O - *

John john NNP B-NP - (A0*)
saw see VBD B-VP see (V*)
Mary mary NNP B-NP - (A1*)
`

func trainSRL(t *testing.T, dir string, tasks ...metadata.Task) config.Paths {
	gold := filepath.Join(dir, "srl.txt")
	require.NoError(t, os.WriteFile(gold, []byte(corpus), 0644))
	paths := config.NewPaths(dir)
	for _, task := range tasks {
		opts := config.DefaultTrainOptions(task)
		opts.Gold = gold
		opts.Epochs = 2
		opts.WordWidth = 4
		opts.HiddenSize = 5
		opts.ConvolutionSize = 5
		opts.MaxDist = 3
		opts.Window = 3
		_, err := modeldata.Train(paths, opts, modeldata.TrainHooks{})
		require.NoError(t, err, "training %s", task)
	}
	return paths
}

func checkAnnotated(t *testing.T, st *SRLTagger) {
	words := []string{"John", "saw", "the", "cat"}
	s, err := st.TagSentence(words)
	require.NoError(t, err)
	assert.Equal(t, words, s.Tokens)
	for _, as := range s.ArgStructures {
		assert.Equal(t, words[as.PredicateIndex], as.Predicate)
		assert.NotContains(t, as.Arguments, reader.PredicateTag)
		for _, arg := range as.Arguments {
			assert.NotEmpty(t, arg)
		}
	}

	empty, err := st.TagSentence(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.ArgStructures)
}

func TestOneStepTagger(t *testing.T) {
	paths := trainSRL(t, t.TempDir(), metadata.TaskSRLPredicates, metadata.TaskSRL)
	st, err := Load(paths, true)
	require.NoError(t, err)
	assert.NotNil(t, st.srl)
	assert.Nil(t, st.boundary)
	checkAnnotated(t, st)
}

func TestTwoStepTagger(t *testing.T) {
	paths := trainSRL(t, t.TempDir(),
		metadata.TaskSRLPredicates, metadata.TaskSRLBoundary, metadata.TaskSRLClassify)
	for _, noRepeat := range []bool{false, true} {
		st, err := Load(paths, noRepeat)
		require.NoError(t, err)
		assert.Nil(t, st.srl)
		checkAnnotated(t, st)
	}
}

func TestLoadWithoutArgumentModels(t *testing.T) {
	paths := trainSRL(t, t.TempDir(), metadata.TaskSRLPredicates)
	_, err := Load(paths, false)
	assert.Error(t, err)
}
