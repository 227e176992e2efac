package modeldata

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangast/nlpnet/internal/config"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/neural/nnu/train"
	"github.com/golangast/nlpnet/neural/nnu/vocab"
	"github.com/golangast/nlpnet/tagger/tag"
)

const posCorpus = `The_DT dog_NN barks_VBZ ._.
A_DT cat_NN sleeps_VBZ ._.
The_DT cat_NN barks_VBZ ._.
`

const nerCorpus = `John NNP B-PER
lives VBZ O
in IN O
New NNP B-LOC
York NNP I-LOC

Mary NNP B-PER
left VBD O
`

const srlCorpus = `The the DT B-NP - (A0*
cat cat NN I-NP - *)
sat sit VBD B-VP sit (V*)
. . . O - *

John john NNP B-NP - (A0*)
saw see VBD B-VP see (V*)
Mary mary NNP B-NP - (A1*)
`

const plainCorpus = `the dog barks
a cat sleeps on the mat
`

const tweetCorpus = "1\tu1\tpositive\ti love this movie\n" +
	"2\tu2\tnegative\ti hate this movie\n" +
	"3\tu3\tneutral\tthe movie starts today\n"

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func smallOptions(task metadata.Task, gold string) config.TrainOptions {
	opts := config.DefaultTrainOptions(task)
	opts.Gold = gold
	opts.Epochs = 3
	opts.WordWidth = 4
	opts.HiddenSize = 6
	opts.ConvolutionSize = 5
	opts.MaxDist = 3
	opts.Window = 3
	opts.Seed = 7
	return opts
}

func TestTrainAndLoadPOS(t *testing.T) {
	dir := t.TempDir()
	paths := config.NewPaths(filepath.Join(dir, "models"))
	opts := smallOptions(metadata.TaskPOS, writeFile(t, dir, "pos.txt", posCorpus))
	opts.UseCaps = true
	opts.UseSuffix = true

	var reports []train.Report
	report, err := Train(paths, opts, TrainHooks{OnInterval: func(r train.Report) { reports = append(reports, r) }})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Epoch)
	assert.Len(t, reports, 3)
	assert.Equal(t, 12, report.Total)

	m, err := LoadModel(paths, metadata.TaskPOS)
	require.NoError(t, err)
	require.NotNil(t, m.Network)
	assert.Nil(t, m.Conv)
	assert.Len(t, m.Network.Tables, 3)
	assert.Nil(t, m.Network.Transitions)
	assert.Equal(t, m.Resources.Tags.Size(), m.Network.NumOutputs())

	sentence := m.Converter.ConvertWords([]string{"The", "dog", "sleeps"})
	again, err := LoadModel(paths, metadata.TaskPOS)
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(m.Network.Tag(sentence), again.Network.Tag(sentence)))
}

func TestContinueTraining(t *testing.T) {
	dir := t.TempDir()
	paths := config.NewPaths(dir)
	opts := smallOptions(metadata.TaskPOS, writeFile(t, dir, "pos.txt", posCorpus))
	_, err := Train(paths, opts, TrainHooks{})
	require.NoError(t, err)

	opts.Load = true
	opts.Epochs = 1
	report, err := Train(paths, opts, TrainHooks{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Epoch)
}

func TestLoadModelDetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	paths := config.NewPaths(dir)
	opts := smallOptions(metadata.TaskPOS, writeFile(t, dir, "pos.txt", posCorpus))
	_, err := Train(paths, opts, TrainHooks{})
	require.NoError(t, err)

	// a dictionary rebuilt from another corpus no longer fits the tables
	other := vocab.NewWordDictionary([][]string{{"x", "y", "z", "w", "v", "u", "q", "r"}}, 0, 1)
	require.NoError(t, other.Save(paths.WordDictionary()))

	_, err = LoadModel(paths, metadata.TaskPOS)
	var cerr nerror.ConfigError
	assert.True(t, errors.As(err, &cerr), "expected config error, got %v", err)
}

func TestLoadModelDetectsArchitectureMismatch(t *testing.T) {
	tests := []struct {
		name   string
		task   metadata.Task
		gold   string
		modify func(md *metadata.Metadata)
	}{
		{"window", metadata.TaskPOS, posCorpus, func(md *metadata.Metadata) { md.Window = 7 }},
		{"hidden size", metadata.TaskPOS, posCorpus, func(md *metadata.Metadata) { md.HiddenSize = 99 }},
		{"second hidden layer", metadata.TaskPOS, posCorpus, func(md *metadata.Metadata) { md.Hidden2Size = 4 }},
		{"transitions", metadata.TaskPOS, posCorpus, func(md *metadata.Metadata) {
			md.Transitions = true
			md.TagScheme = "iob"
		}},
		{"everything", metadata.TaskPOS, posCorpus, func(md *metadata.Metadata) {
			md.Window = 7
			md.HiddenSize = 99
			md.Transitions = true
			md.TagScheme = "iob"
		}},
		{"convolution size", metadata.TaskSRLClassify, srlCorpus, func(md *metadata.Metadata) { md.ConvolutionSize = 8 }},
		{"distance limit", metadata.TaskSRLClassify, srlCorpus, func(md *metadata.Metadata) { md.MaxDist = 5 }},
		{"convolution window", metadata.TaskSRLClassify, srlCorpus, func(md *metadata.Metadata) { md.Window = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			paths := config.NewPaths(dir)
			opts := smallOptions(tt.task, writeFile(t, dir, "gold.txt", tt.gold))
			opts.UsePOS = tt.task.IsSRL()
			_, err := Train(paths, opts, TrainHooks{})
			require.NoError(t, err)

			md, err := metadata.Load(paths.Metadata(tt.task))
			require.NoError(t, err)
			tt.modify(md)
			require.NoError(t, md.Save(paths.Metadata(tt.task)))

			_, err = LoadModel(paths, tt.task)
			var cerr nerror.ConfigError
			assert.True(t, errors.As(err, &cerr), "expected config error, got %v", err)
		})
	}
}

func TestLoadMissingModel(t *testing.T) {
	_, err := LoadModel(config.NewPaths(t.TempDir()), metadata.TaskNER)
	var merr nerror.MissingResourceError
	assert.True(t, errors.As(err, &merr))
}

func TestTrainRejectsInvalidOptions(t *testing.T) {
	opts := smallOptions(metadata.TaskPOS, "")
	_, err := Train(config.NewPaths(t.TempDir()), opts, TrainHooks{})
	var cerr nerror.ConfigError
	assert.True(t, errors.As(err, &cerr))
}

func TestTrainNERWithGazetteer(t *testing.T) {
	dir := t.TempDir()
	paths := config.NewPaths(dir)
	writeFile(t, dir, "gazetteer-LOC.txt", "new york\nparis\n")
	writeFile(t, dir, "gazetteer-PER.txt", "mary\n")
	opts := smallOptions(metadata.TaskNER, writeFile(t, dir, "ner.txt", nerCorpus))
	opts.UseGazetteer = true

	_, err := Train(paths, opts, TrainHooks{})
	require.NoError(t, err)

	m, err := LoadModel(paths, metadata.TaskNER)
	require.NoError(t, err)
	assert.Equal(t, []string{"LOC", "PER"}, m.Metadata.Gazetteers)
	require.NotNil(t, m.Network.Transitions)
	assert.Equal(t, m.Resources.Tags.Size(), m.Network.Transitions.NumTags)

	kinds := make([]string, len(m.Metadata.Features))
	for i, f := range m.Metadata.Features {
		kinds[i] = f.Key()
	}
	assert.Equal(t, []string{"types", "gazetteer-LOC", "gazetteer-PER"}, kinds)
}

func TestTrainSRLTasks(t *testing.T) {
	tests := []struct {
		task        metadata.Task
		transitions bool
		tags        []string
	}{
		{metadata.TaskSRL, true, []string{"B-A0", "I-A0", "O", "B-A1"}},
		{metadata.TaskSRLBoundary, true, []string{"B", "E", "O", "S"}},
		{metadata.TaskSRLClassify, false, []string{"A0", "A1"}},
		{metadata.TaskSRLPredicates, false, []string{"O", "V"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.task), func(t *testing.T) {
			dir := t.TempDir()
			paths := config.NewPaths(dir)
			opts := smallOptions(tt.task, writeFile(t, dir, "srl.txt", srlCorpus))
			opts.UsePOS = true
			_, err := Train(paths, opts, TrainHooks{})
			require.NoError(t, err)

			m, err := LoadModel(paths, tt.task)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.tags, m.Resources.Tags.Tags)
			if tt.task == metadata.TaskSRLPredicates {
				require.NotNil(t, m.Network)
				return
			}
			require.NotNil(t, m.Conv)
			assert.Equal(t, tt.transitions, m.Conv.Transitions != nil)
			assert.Equal(t, 7, m.Conv.PredDist.NumValues())
		})
	}
}

func TestFeatureTagsSharedAcrossTasks(t *testing.T) {
	dir := t.TempDir()
	paths := config.NewPaths(dir)
	opts := smallOptions(metadata.TaskSRL, writeFile(t, dir, "srl.txt", srlCorpus))
	opts.UsePOS = true
	_, err := Train(paths, opts, TrainHooks{})
	require.NoError(t, err)
	before, err := LoadModel(paths, metadata.TaskSRL)
	require.NoError(t, err)

	// same sentences, second one first
	reordered := `John john NNP B-NP - (A0*)
saw see VBD B-VP see (V*)
Mary mary NNP B-NP - (A1*)

The the DT B-NP - (A0*
cat cat NN I-NP - *)
sat sit VBD B-VP sit (V*)
. . . O - *
`
	opts = smallOptions(metadata.TaskSRLPredicates, writeFile(t, dir, "reordered.txt", reordered))
	opts.UsePOS = true
	_, err = Train(paths, opts, TrainHooks{})
	require.NoError(t, err)

	after, err := LoadModel(paths, metadata.TaskSRL)
	require.NoError(t, err)
	assert.Equal(t, before.Resources.POSTags.Tags, after.Resources.POSTags.Tags)
	assert.Equal(t, []string{"DT", "NN", "VBD", ".", "NNP"}, after.Resources.POSTags.Tags)

	predicates, err := LoadModel(paths, metadata.TaskSRLPredicates)
	require.NoError(t, err)
	assert.Equal(t, before.Resources.POSTags.Tags, predicates.Resources.POSTags.Tags)
}

func TestTrainLanguageModels(t *testing.T) {
	t.Run("lm", func(t *testing.T) {
		dir := t.TempDir()
		paths := config.NewPaths(dir)
		_, err := Train(paths, smallOptions(metadata.TaskLM, writeFile(t, dir, "plain.txt", plainCorpus)), TrainHooks{})
		require.NoError(t, err)
		m, err := LoadModel(paths, metadata.TaskLM)
		require.NoError(t, err)
		assert.Equal(t, 1, m.Network.NumOutputs())
		assert.Nil(t, m.Resources.Tags)
	})
	t.Run("sslm", func(t *testing.T) {
		dir := t.TempDir()
		paths := config.NewPaths(dir)
		_, err := Train(paths, smallOptions(metadata.TaskSSLM, writeFile(t, dir, "tweets.tsv", tweetCorpus)), TrainHooks{})
		require.NoError(t, err)
		m, err := LoadModel(paths, metadata.TaskSSLM)
		require.NoError(t, err)
		assert.Equal(t, 2, m.Network.NumOutputs())
	})
}

func TestSetFeaturesOrder(t *testing.T) {
	opts := smallOptions(metadata.TaskSRL, "x")
	opts.UseCaps = true
	opts.UseChunk = true
	res := &Resources{
		Words:     vocab.NewWordDictionary([][]string{{"a", "b"}}, 0, 1),
		Tags:      vocab.NewTagDictionary([][]string{{"O", "B-A0"}}),
		ChunkTags: vocab.NewTagDictionary([][]string{{"B-NP", "O"}}),
	}
	md := NewMetadata(&opts, res)
	conv, err := NewConverter(md, res)
	require.NoError(t, err)
	SetFeatures(md, conv, FeatureWidths(&opts))
	require.NoError(t, md.Validate())

	kinds := make([]string, len(md.Features))
	for i, f := range md.Features {
		kinds[i] = f.Kind
	}
	assert.Equal(t, []string{
		metadata.FeatureTypes, metadata.FeatureCaps, metadata.FeatureChunk,
		metadata.FeaturePredDist, metadata.FeatureTargetDist,
	}, kinds)
	assert.Equal(t, 4, md.Features[2].NumValues)
	assert.Len(t, conv.Convert(tag.Tokens([]string{"a", "c"}))[0], 3)
}
