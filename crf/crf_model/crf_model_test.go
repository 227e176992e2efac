package crf_model

import (
	"math"
	"reflect"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bruteForce(scores [][]float64, t *Transitions) ([]int, float64) {
	n := len(scores)
	path := make([]int, n)
	var best []int
	bestScore := math.Inf(-1)
	var rec func(i int)
	rec = func(i int) {
		if i == n {
			if s := PathScore(scores, t, path); s > bestScore {
				bestScore = s
				best = append([]int(nil), path...)
			}
			return
		}
		for tag := 0; tag < t.NumTags; tag++ {
			path[i] = tag
			rec(i + 1)
		}
	}
	rec(0)
	return best, bestScore
}

func TestViterbiOptimal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		length := 1 + trial%5
		trans := NewTransitions(3)
		for i := range trans.Scores.Data {
			trans.Scores.Data[i] = rng.Float64()*4 - 2
		}
		scores := make([][]float64, length)
		for i := range scores {
			scores[i] = []float64{rng.Float64()*4 - 2, rng.Float64()*4 - 2, rng.Float64()*4 - 2}
		}
		out := Viterbi(scores, trans)
		_, bestScore := bruteForce(scores, trans)
		assert.InDelta(t, bestScore, out.Score, 1e-9, "trial %d", trial)
		assert.InDelta(t, out.Score, PathScore(scores, trans, out.Path), 1e-9)
	}
}

func TestViterbiEmpty(t *testing.T) {
	out := Viterbi(nil, NewTransitions(2))
	assert.Empty(t, out.Path)
}

func TestIOBForbidsInsideAfterOutside(t *testing.T) {
	tags := []string{"O", "B-X", "I-X"}
	trans := NewTransitions(len(tags))
	require.NoError(t, trans.InitIOB(tags))

	// locally the scores favor O, I-X, I-X
	scores := [][]float64{
		{5, 0, 0},
		{0, 3, 4},
		{0, 0, 4},
	}
	out := Viterbi(scores, trans)
	assert.Equal(t, []int{0, 1, 2}, out.Path)

	plain := Viterbi(scores, NewTransitions(len(tags)))
	assert.Equal(t, []int{0, 2, 2}, plain.Path)
}

func TestInitIOB(t *testing.T) {
	tags := []string{"O", "B-X", "I-X", "B-Y", "I-Y"}
	trans := NewTransitions(len(tags))
	require.NoError(t, trans.InitIOB(tags))
	tests := []struct {
		from, to   int
		impossible bool
	}{
		{0, 2, true},
		{1, 2, false},
		{2, 2, false},
		{1, 4, true},
		{2, 4, true},
		{3, 4, false},
		{0, 1, false},
		{trans.Start(), 2, true},
		{trans.Start(), 1, false},
		{2, trans.End(), false},
	}
	for _, tt := range tests {
		got := trans.Score(tt.from, tt.to) == Impossible
		assert.Equal(t, tt.impossible, got, "%d -> %d", tt.from, tt.to)
	}
}

func TestInitIOBES(t *testing.T) {
	tags := []string{"O", "B-A", "I-A", "E-A", "S-A"}
	trans := NewTransitions(len(tags))
	require.NoError(t, trans.InitIOBES(tags))
	allowed := map[[2]int]bool{
		{0, 0}: true, {0, 1}: true, {0, 4}: true,
		{1, 2}: true, {1, 3}: true,
		{2, 2}: true, {2, 3}: true,
		{3, 0}: true, {3, 1}: true, {3, 4}: true,
		{4, 0}: true, {4, 1}: true, {4, 4}: true,
	}
	for a := range tags {
		for b := range tags {
			assert.Equal(t, !allowed[[2]int{a, b}], trans.Score(a, b) == Impossible, "%s -> %s", tags[a], tags[b])
		}
	}
	assert.Equal(t, Impossible, trans.Score(1, trans.End()))
	assert.Equal(t, Impossible, trans.Score(2, trans.End()))
	assert.Equal(t, 0.0, trans.Score(3, trans.End()))
}

func TestInitBoundaries(t *testing.T) {
	tags := []string{"O", "B", "I", "E", "S"}
	trans := NewTransitions(len(tags))
	require.NoError(t, trans.Init(SchemeIOBES, true, tags))
	assert.Equal(t, Impossible, trans.Score(0, 2))
	assert.Equal(t, 0.0, trans.Score(1, 3))

	assert.Error(t, trans.InitBoundaries([]string{"O", "B-A", "I", "E", "S"}))
	assert.Error(t, trans.InitIOB([]string{"O"}))
}

func TestPerceptronUpdate(t *testing.T) {
	trans := NewTransitions(2)
	gold := []int{0, 1}
	pred := []int{0, 0}
	require.NoError(t, trans.PerceptronUpdate(gold, pred, 0.5))

	// start -> 0 is shared by both paths
	assert.Equal(t, 0.0, trans.Score(trans.Start(), 0))
	assert.Equal(t, 0.5, trans.Score(0, 1))
	assert.Equal(t, 0.5, trans.Score(1, trans.End()))
	assert.Equal(t, -0.5, trans.Score(0, 0))
	assert.Equal(t, -0.5, trans.Score(0, trans.End()))

	assert.Error(t, trans.PerceptronUpdate([]int{0}, pred, 0.5))
}

func TestViterbiPrefersGoldAfterUpdates(t *testing.T) {
	trans := NewTransitions(2)
	scores := [][]float64{{1, 0}, {1, 0.9}}
	gold := []int{0, 1}
	for i := 0; i < 10; i++ {
		out := Viterbi(scores, trans)
		if reflect.DeepEqual(out.Path, gold) {
			return
		}
		require.NoError(t, trans.PerceptronUpdate(gold, out.Path, 0.1))
	}
	t.Errorf("Viterbi() never reached %v", gold)
}
