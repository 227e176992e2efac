package nn

import (
	"fmt"

	"github.com/golangast/nlpnet/internal/nerror"
	"github.com/golangast/nlpnet/neural/tensor"
)

// LearningRates holds the independent step sizes of the three kinds of
// parameters.
type LearningRates struct {
	Weights     float64
	Features    float64
	Transitions float64
}

// DefaultLearningRates are used until SetLearningRates is called.
var DefaultLearningRates = LearningRates{Weights: 0.001, Features: 0.01, Transitions: 0.01}

func tablesWidth(tables []*FeatureTable) int {
	w := 0
	for _, t := range tables {
		w += t.Width()
	}
	return w
}

func checkPadding(tables []*FeatureTable, left, right []int) error {
	if len(left) != len(tables) || len(right) != len(tables) {
		return fmt.Errorf("padding vectors must have %d features, got %d and %d", len(tables), len(left), len(right))
	}
	for i, t := range tables {
		if left[i] < 0 || left[i] >= t.NumValues() || right[i] < 0 || right[i] >= t.NumValues() {
			return fmt.Errorf("padding code out of range for feature %s", t.Spec.Key())
		}
	}
	return nil
}

// padSentence surrounds the sentence with half padding rows on each side.
func padSentence(sentence [][]int, left, right []int, half int) [][]int {
	padded := make([][]int, 0, len(sentence)+2*half)
	for i := 0; i < half; i++ {
		padded = append(padded, left)
	}
	padded = append(padded, sentence...)
	for i := 0; i < half; i++ {
		padded = append(padded, right)
	}
	return padded
}

// gatherWindow writes the concatenated embeddings of window consecutive
// rows of padded, starting at start, into x.
func gatherWindow(tables []*FeatureTable, padded [][]int, start, window int, x []float64) int {
	offset := 0
	for _, token := range padded[start : start+window] {
		for f, t := range tables {
			offset += copy(x[offset:], t.Row(token[f]))
		}
	}
	return offset
}

// scatterWindow accumulates the input gradient gX produced for the window
// gathered by gatherWindow into the sparse gradients of the tables.
func scatterWindow(tables []*FeatureTable, padded [][]int, start, window int, gX []float64, grads []SparseGrad) int {
	offset := 0
	for _, token := range padded[start : start+window] {
		for f, t := range tables {
			w := t.Width()
			grads[f].Add(token[f], gX[offset:offset+w])
			offset += w
		}
	}
	return offset
}

// updater applies the accumulated gradients of a network.
type updater struct {
	rates  LearningRates
	opt    *SGD
	tables []*FeatureTable
	sparse []SparseGrad
}

func newUpdater(rates LearningRates, layers []*Linear, tables []*FeatureTable) *updater {
	var params []Param
	for _, l := range layers {
		if l != nil {
			params = append(params, l.Params()...)
		}
	}
	u := &updater{
		rates:  rates,
		opt:    NewOptimizer(params, rates.Weights),
		tables: tables,
		sparse: make([]SparseGrad, len(tables)),
	}
	for i := range u.sparse {
		u.sparse[i] = SparseGrad{}
	}
	return u
}

func (u *updater) step() error {
	for _, sg := range u.sparse {
		if !sg.Finite() {
			return nerror.Overflow("feature gradient")
		}
	}
	if err := u.opt.Step(); err != nil {
		return err
	}
	for i, t := range u.tables {
		if len(u.sparse[i]) > 0 {
			t.ApplySparse(u.sparse[i], -u.rates.Features)
			u.sparse[i] = SparseGrad{}
		}
	}
	return nil
}

// scoreGradients decides the predicted tags of a sentence and the gradient
// of the loss with respect to each position's scores. Positions receiving
// no gradient are left nil. Without transitions every position is trained
// with softmax cross-entropy; with transitions the Viterbi path is compared
// to the gold one and the transitions receive a perceptron update.
func scoreGradients(scores [][]float64, gold []int, trans transitionModel, transRate float64) ([]int, [][]float64, error) {
	if err := checkScores(scores...); err != nil {
		return nil, nil, err
	}
	grads := make([][]float64, len(scores))
	if trans == nil {
		predicted := make([]int, len(scores))
		for i, s := range scores {
			predicted[i] = tensor.ArgMax(s)
			grads[i] = make([]float64, len(s))
			CrossEntropyLoss(s, gold[i], grads[i])
		}
		return predicted, grads, nil
	}
	predicted := trans.decode(scores)
	differs := false
	for i := range predicted {
		if predicted[i] != gold[i] {
			differs = true
			g := make([]float64, len(scores[i]))
			g[gold[i]] = -1
			g[predicted[i]] = 1
			grads[i] = g
		}
	}
	if differs {
		if err := trans.update(gold, predicted, transRate); err != nil {
			return nil, nil, err
		}
	}
	return predicted, grads, nil
}

func checkScores(scores ...[]float64) error {
	for _, s := range scores {
		if !tensor.Finite(s) {
			return nerror.Overflow("network scores")
		}
	}
	return nil
}

func countHits(predicted, gold []int) int {
	hits := 0
	for i := range predicted {
		if predicted[i] == gold[i] {
			hits++
		}
	}
	return hits
}
