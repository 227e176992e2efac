package nn

import (
	"math"

	"github.com/golangast/nlpnet/neural/tensor"
)

// CrossEntropyLoss computes the softmax cross-entropy of scores against the
// gold class. The gradient with respect to the scores is written into grad.
func CrossEntropyLoss(scores []float64, gold int, grad []float64) float64 {
	tensor.Softmax(scores, grad)
	loss := -math.Log(grad[gold] + 1e-12)
	grad[gold] -= 1
	return loss
}

// RankingMargin is the margin by which a true window must outscore a
// corrupted one.
const RankingMargin = 1.0

// HingeLoss returns max(0, margin - positive + negative).
func HingeLoss(positive, negative float64) float64 {
	return math.Max(0, RankingMargin-positive+negative)
}
