package crf_model

import (
	"fmt"
	"math"
)

// ViterbiOutput is the best path found by Viterbi and its total score.
type ViterbiOutput struct {
	Path  []int
	Score float64
}

// Viterbi finds the tag path maximizing the sum of the per-position scores
// (scores[i][tag]) plus the transition scores between consecutive tags,
// including the transitions from the start and to the end state.
func Viterbi(scores [][]float64, t *Transitions) ViterbiOutput {
	numWords := len(scores)
	if numWords == 0 {
		return ViterbiOutput{Path: []int{}}
	}
	numTags := t.NumTags

	// viterbi[i][j] is the score of the best path ending in tag j at word i
	viterbi := make([][]float64, numWords)
	backpointers := make([][]int, numWords)
	for i := range viterbi {
		viterbi[i] = make([]float64, numTags)
		backpointers[i] = make([]int, numTags)
	}
	for j := 0; j < numTags; j++ {
		viterbi[0][j] = t.Score(t.Start(), j) + scores[0][j]
		backpointers[0][j] = -1
	}

	for i := 1; i < numWords; i++ {
		for j := 0; j < numTags; j++ {
			bestScore := math.Inf(-1)
			bestPrevious := 0
			for k := 0; k < numTags; k++ {
				score := viterbi[i-1][k] + t.Score(k, j)
				if score > bestScore {
					bestScore = score
					bestPrevious = k
				}
			}
			viterbi[i][j] = bestScore + scores[i][j]
			backpointers[i][j] = bestPrevious
		}
	}

	bestFinalScore := math.Inf(-1)
	bestFinalTag := 0
	for j, score := range viterbi[numWords-1] {
		score += t.Score(j, t.End())
		if score > bestFinalScore {
			bestFinalScore = score
			bestFinalTag = j
		}
	}

	path := make([]int, numWords)
	current := bestFinalTag
	for i := numWords - 1; i >= 0; i-- {
		path[i] = current
		current = backpointers[i][current]
	}
	return ViterbiOutput{Path: path, Score: bestFinalScore}
}

// PathScore returns the total score Viterbi assigns to a given path.
func PathScore(scores [][]float64, t *Transitions, path []int) float64 {
	if len(path) == 0 {
		return 0
	}
	total := t.Score(t.Start(), path[0])
	for i, tag := range path {
		total += scores[i][tag]
		if i > 0 {
			total += t.Score(path[i-1], tag)
		}
	}
	return total + t.Score(path[len(path)-1], t.End())
}

// PerceptronUpdate raises the transitions used by the gold path and lowers
// those used by the predicted one, both by learningRate. Transitions shared
// by both paths are left unchanged.
func (t *Transitions) PerceptronUpdate(gold, predicted []int, learningRate float64) error {
	if len(gold) != len(predicted) {
		return fmt.Errorf("gold path has %d tags, predicted path %d", len(gold), len(predicted))
	}
	visit := func(path []int, delta float64) {
		prev := t.Start()
		for _, tag := range path {
			t.Scores.Set(prev, tag, t.Score(prev, tag)+delta)
			prev = tag
		}
		t.Scores.Set(prev, t.End(), t.Score(prev, t.End())+delta)
	}
	visit(gold, learningRate)
	visit(predicted, -learningRate)
	return nil
}
