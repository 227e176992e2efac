package nn

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangast/nlpnet/crf/crf_model"
	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/nnu/metadata"
	"github.com/golangast/nlpnet/tagger/tag"
)

const (
	testWords = 10
	capsTitle = 3
	capsLower = 4
)

func testTables(rng *rand.Rand) []*FeatureTable {
	return []*FeatureTable{
		NewFeatureTable(metadata.FeatureSpec{Kind: metadata.FeatureTypes, NumValues: testWords, Width: 5}, rng),
		NewFeatureTable(metadata.FeatureSpec{Kind: metadata.FeatureCaps, NumValues: 5, Width: 3}, rng),
	}
}

func testConfig(numOutputs int) NetworkConfig {
	return NetworkConfig{
		Window:       3,
		HiddenSize:   10,
		NumOutputs:   numOutputs,
		PaddingLeft:  []int{1, 0},
		PaddingRight: []int{2, 0},
	}
}

// separableCorpus tags a token 1 exactly when its capitalization code is
// title case. Words are drawn independently of the capitalization.
func separableCorpus(rng *rand.Rand, numSentences int) ([][][]int, [][]int) {
	sentences := make([][][]int, numSentences)
	tags := make([][]int, numSentences)
	for s := range sentences {
		length := 2 + rng.Intn(4)
		for i := 0; i < length; i++ {
			caps := capsLower
			gold := 0
			if rng.Intn(2) == 0 {
				caps = capsTitle
				gold = 1
			}
			sentences[s] = append(sentences[s], []int{3 + rng.Intn(testWords-3), caps})
			tags[s] = append(tags[s], gold)
		}
	}
	return sentences, tags
}

func trainUntilPerfect(t *testing.T, train func(i int) (int, error), sentences [][][]int, maxEpochs int) {
	total := 0
	for _, s := range sentences {
		total += len(s)
	}
	for epoch := 0; epoch < maxEpochs; epoch++ {
		hits := 0
		for i := range sentences {
			h, err := train(i)
			require.NoError(t, err)
			hits += h
		}
		if hits == total {
			return
		}
	}
	t.Fatalf("training did not reach 100%% accuracy in %d epochs", maxEpochs)
}

func TestNetworkConvergence(t *testing.T) {
	rates := LearningRates{Weights: 0.05, Features: 0.05, Transitions: 0.05}

	t.Run("softmax", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		net, err := NewNetwork(rng, testTables(rng), testConfig(2))
		require.NoError(t, err)
		net.SetLearningRates(rates)
		sentences, tags := separableCorpus(rng, 12)
		trainUntilPerfect(t, func(i int) (int, error) { return net.TrainSentence(sentences[i], tags[i]) }, sentences, 500)
		for i, s := range sentences {
			assert.Equal(t, tags[i], net.Tag(s))
		}
	})

	t.Run("transitions", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		cfg := testConfig(2)
		cfg.Hidden2Size = 6
		net, err := NewNetwork(rng, testTables(rng), cfg)
		require.NoError(t, err)
		net.Transitions = crf_model.NewTransitions(2)
		net.SetLearningRates(rates)
		sentences, tags := separableCorpus(rng, 12)
		trainUntilPerfect(t, func(i int) (int, error) { return net.TrainSentence(sentences[i], tags[i]) }, sentences, 500)
		for i, s := range sentences {
			assert.Equal(t, tags[i], net.Tag(s))
		}
	})
}

func snapshot(ft *FeatureTable) [][]float64 {
	ans := make([][]float64, ft.NumValues())
	for i := range ans {
		ans[i] = append([]float64(nil), ft.Row(i)...)
	}
	return ans
}

func TestSparseUpdateTouchesOnlyUsedRows(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tables := testTables(rng)
	net, err := NewNetwork(rng, tables, testConfig(2))
	require.NoError(t, err)
	net.SetLearningRates(LearningRates{Weights: 0.1, Features: 0.1})
	before := snapshot(tables[0])

	sentence := [][]int{{4, capsTitle}, {6, capsLower}}
	_, err = net.TrainSentence(sentence, []int{1, 0})
	require.NoError(t, err)

	after := snapshot(tables[0])
	used := map[int]bool{1: true, 2: true, 4: true, 6: true}
	changed := false
	for row := range before {
		if !used[row] {
			assert.Equal(t, before[row], after[row], "row %d was not in the window", row)
		} else if !assert.ObjectsAreEqual(before[row], after[row]) {
			changed = true
		}
	}
	assert.True(t, changed)
}

func TestApplySparseIsAdditive(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	ft := NewFeatureTable(metadata.FeatureSpec{Kind: metadata.FeatureTypes, NumValues: 3, Width: 2}, rng)
	orig := snapshot(ft)
	sg := SparseGrad{}
	sg.Add(1, []float64{1, 2})
	sg.Add(1, []float64{1, 2})
	ft.ApplySparse(sg, 0.5)
	assert.InDelta(t, orig[1][0]+1, ft.Row(1)[0], 1e-12)
	assert.InDelta(t, orig[1][1]+2, ft.Row(1)[1], 1e-12)
	assert.Equal(t, orig[0], ft.Row(0))
	assert.Equal(t, orig[2], ft.Row(2))
}

func TestHardTanh(t *testing.T) {
	x := []float64{-3, -1, 0.5, 1, 2}
	HardTanh(x)
	assert.Equal(t, []float64{-1, -1, 0.5, 1, 1}, x)
	g := []float64{1, 1, 1, 1, 1}
	HardTanhBackward(x, g)
	assert.Equal(t, []float64{0, 0, 1, 0, 0}, g)
}

func TestCrossEntropyLoss(t *testing.T) {
	grad := make([]float64, 3)
	loss := CrossEntropyLoss([]float64{2, 1, 0}, 0, grad)
	assert.Greater(t, loss, 0.0)
	sum := 0.0
	for _, g := range grad {
		sum += g
	}
	assert.InDelta(t, 0, sum, 1e-12)
	assert.Less(t, grad[0], 0.0)
	assert.Equal(t, 0.0, HingeLoss(3, 1))
	assert.InDelta(t, 1.5, HingeLoss(0, 0.5), 1e-12)
}

func TestNetworkOverflow(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	net, err := NewNetwork(rng, testTables(rng), testConfig(2))
	require.NoError(t, err)
	net.Hidden.Weights.Data[0] = math.NaN()
	net.Hidden.Weights.Data[1] = math.Inf(1)
	_, err = net.TrainSentence([][]int{{4, capsTitle}}, []int{1})
	assert.True(t, errors.Is(err, nerror.ErrNumericOverflow))
}

func TestNewNetworkErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	tests := []struct {
		name string
		cfg  func(c *NetworkConfig)
	}{
		{"even window", func(c *NetworkConfig) { c.Window = 4 }},
		{"no outputs", func(c *NetworkConfig) { c.NumOutputs = 0 }},
		{"short padding", func(c *NetworkConfig) { c.PaddingLeft = []int{1} }},
		{"padding out of range", func(c *NetworkConfig) { c.PaddingRight = []int{testWords, 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(2)
			tt.cfg(&cfg)
			_, err := NewNetwork(rng, testTables(rng), cfg)
			assert.Error(t, err)
		})
	}
	var ce nerror.ConfigError
	cfg := testConfig(2)
	cfg.Window = 2
	_, err := NewNetwork(rng, testTables(rng), cfg)
	assert.True(t, errors.As(err, &ce))

	_, err = NewNetwork(rng, testTables(rng), testConfig(2))
	require.NoError(t, err)
}

func TestTrainSentenceLengthMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	net, err := NewNetwork(rng, testTables(rng), testConfig(2))
	require.NoError(t, err)
	_, err = net.TrainSentence([][]int{{4, capsTitle}}, []int{1, 0})
	assert.Error(t, err)
}

func TestDistanceCode(t *testing.T) {
	span := tag.Span{Start: 3, End: 5}
	tests := []struct {
		position, want int
	}{
		{4, 2},
		{3, 2},
		{5, 2},
		{2, 1},
		{0, 0},
		{6, 3},
		{10, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DistanceCode(tt.position, span, 2), "position %d", tt.position)
	}
}

func newTestConvolution(t *testing.T, rng *rand.Rand, numOutputs int) *ConvolutionalNetwork {
	maxDist := 3
	pred := NewFeatureTable(metadata.FeatureSpec{Kind: metadata.FeaturePredDist, NumValues: 2*maxDist + 1, Width: 3}, rng)
	target := NewFeatureTable(metadata.FeatureSpec{Kind: metadata.FeatureTargetDist, NumValues: 2*maxDist + 1, Width: 3}, rng)
	cn, err := NewConvolutionalNetwork(rng, testTables(rng), pred, target, ConvolutionConfig{
		Window:          3,
		ConvolutionSize: 8,
		Hidden2Size:     8,
		NumOutputs:      numOutputs,
		MaxDist:         maxDist,
		PaddingLeft:     []int{1, 0},
		PaddingRight:    []int{2, 0},
	})
	require.NoError(t, err)
	return cn
}

func TestConvolutionalNetworkConvergence(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	cn := newTestConvolution(t, rng, 2)
	cn.SetLearningRates(LearningRates{Weights: 0.05, Features: 0.05, Transitions: 0.05})

	// the predicate token is tagged 1, everything else 0
	sentences, _ := separableCorpus(rng, 8)
	predicates := make([]int, len(sentences))
	tags := make([][]int, len(sentences))
	for i, s := range sentences {
		predicates[i] = rng.Intn(len(s))
		tags[i] = make([]int, len(s))
		tags[i][predicates[i]] = 1
	}
	trainUntilPerfect(t, func(i int) (int, error) {
		return cn.TrainSentence(sentences[i], predicates[i], tags[i])
	}, sentences, 1000)
	for i, s := range sentences {
		got, err := cn.TagSentence(s, predicates[i])
		require.NoError(t, err)
		assert.Equal(t, tags[i], got)
	}
}

func TestClassifyArguments(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	cn := newTestConvolution(t, rng, 3)
	sentence := [][]int{{3, capsTitle}, {4, capsLower}, {5, capsLower}, {6, capsLower}}
	spans := []tag.Span{{Start: 0, End: 0}, {Start: 2, End: 3}}

	_, err := cn.TrainArguments(sentence, 1, spans, []int{0, 2})
	require.NoError(t, err)
	labels, err := cn.ClassifyArguments(sentence, 1, spans)
	require.NoError(t, err)
	assert.Len(t, labels, 2)

	_, err = cn.ClassifyArguments(sentence, 1, []tag.Span{{Start: 2, End: 4}})
	assert.Error(t, err)
	_, err = cn.TagSentence(sentence, 7)
	assert.Error(t, err)
	_, err = cn.TrainArguments(sentence, 1, spans, []int{0})
	assert.Error(t, err)
}

func TestLanguageModelRanking(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	tables := testTables(rng)[:1]
	cfg := testConfig(0)
	cfg.PaddingLeft = []int{1}
	cfg.PaddingRight = []int{2}
	lm, err := NewLanguageModel(rng, tables, cfg)
	require.NoError(t, err)
	lm.SetLearningRates(LearningRates{Weights: 0.05, Features: 0.05})

	sentence := [][]int{{3}, {4}, {5}, {6}}
	solved := false
	for epoch := 0; epoch < 2000 && !solved; epoch++ {
		hits, err := lm.TrainSentence(sentence)
		require.NoError(t, err)
		solved = hits == len(sentence)
	}
	assert.True(t, solved)
	assert.Len(t, lm.Score(sentence), len(sentence))

	_, err = WrapLanguageModel(lm.Network, rng)
	assert.NoError(t, err)
	two, err := NewNetwork(rng, testTables(rng), testConfig(2))
	require.NoError(t, err)
	_, err = WrapLanguageModel(two, rng)
	assert.Error(t, err)
}

func TestSentimentModelNeutralKeepsPolarity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	sm, err := NewSentimentModel(rng, testTables(rng), testConfig(0), 0.5)
	require.NoError(t, err)
	sm.SetLearningRates(LearningRates{Weights: 0.1, Features: 0.1})

	polarityRow := append([]float64(nil), sm.Output.Weights.Row(polarityScore)...)
	sentence := [][]int{{3, capsTitle}, {4, capsLower}, {5, capsLower}}
	_, err = sm.TrainTweet(sentence, Neutral)
	require.NoError(t, err)
	assert.Equal(t, polarityRow, sm.Output.Weights.Row(polarityScore))

	_, err = sm.TrainTweet(sentence, Positive)
	require.NoError(t, err)
	assert.Len(t, sm.Polarity(sentence), 3)

	_, err = sm.TrainTweet(sentence, 2)
	assert.Error(t, err)
	_, err = NewSentimentModel(rng, testTables(rng), testConfig(0), 1.5)
	assert.Error(t, err)
}

func TestNetworkSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	tables := testTables(rng)
	cfg := testConfig(3)
	cfg.Hidden2Size = 4
	net, err := NewNetwork(rng, tables, cfg)
	require.NoError(t, err)
	net.Transitions = crf_model.NewTransitions(3)
	require.NoError(t, net.Transitions.InitIOB([]string{"O", "B-X", "I-X"}))

	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "types.gob"), filepath.Join(dir, "caps.gob")}
	require.NoError(t, SaveTables(tables, paths))
	require.NoError(t, net.Save(filepath.Join(dir, "network.gob")))

	specs := []metadata.FeatureSpec{tables[0].Spec, tables[1].Spec}
	loadedTables, err := LoadTables(specs, paths)
	require.NoError(t, err)
	loaded, err := LoadNetwork(filepath.Join(dir, "network.gob"), loadedTables)
	require.NoError(t, err)

	sentence := [][]int{{3, capsTitle}, {7, capsLower}, {5, capsLower}}
	assert.Equal(t, net.Scores(sentence), loaded.Scores(sentence))
	assert.Equal(t, net.Tag(sentence), loaded.Tag(sentence))

	specs[1].Width = 4
	_, err = LoadTables(specs, paths)
	var ce nerror.ConfigError
	assert.True(t, errors.As(err, &ce))

	_, err = LoadNetwork(filepath.Join(dir, "missing.gob"), loadedTables)
	var mre nerror.MissingResourceError
	assert.True(t, errors.As(err, &mre))

	_, err = LoadNetwork(filepath.Join(dir, "network.gob"), loadedTables[:1])
	assert.Error(t, err)
}

func TestConvolutionalSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	cn := newTestConvolution(t, rng, 2)
	dir := t.TempDir()
	all := append(append([]*FeatureTable{}, cn.Tables...), cn.PredDist, cn.TargetDist)
	paths := make([]string, len(all))
	specs := make([]metadata.FeatureSpec, len(all))
	for i, ft := range all {
		paths[i] = filepath.Join(dir, ft.Spec.Key()+".gob")
		specs[i] = ft.Spec
	}
	require.NoError(t, SaveTables(all, paths))
	require.NoError(t, cn.Save(filepath.Join(dir, "conv.gob")))

	loadedTables, err := LoadTables(specs, paths)
	require.NoError(t, err)
	loaded, err := LoadConvolutionalNetwork(filepath.Join(dir, "conv.gob"), loadedTables[:2], loadedTables[2], loadedTables[3])
	require.NoError(t, err)

	sentence := [][]int{{3, capsTitle}, {7, capsLower}, {5, capsLower}}
	want, err := cn.TagSentence(sentence, 1)
	require.NoError(t, err)
	got, err := loaded.TagSentence(sentence, 1)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
