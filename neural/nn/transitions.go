package nn

import (
	"github.com/golangast/nlpnet/crf/crf_model"
)

// transitionModel adapts crf_model.Transitions; a nil *Transitions must
// become a nil interface so that tag decoding falls back to argmax.
type transitionModel interface {
	decode(scores [][]float64) []int
	update(gold, predicted []int, rate float64) error
}

type crfTransitions struct {
	t *crf_model.Transitions
}

func (c crfTransitions) decode(scores [][]float64) []int {
	return crf_model.Viterbi(scores, c.t).Path
}

func (c crfTransitions) update(gold, predicted []int, rate float64) error {
	return c.t.PerceptronUpdate(gold, predicted, rate)
}

func asTransitionModel(t *crf_model.Transitions) transitionModel {
	if t == nil {
		return nil
	}
	return crfTransitions{t: t}
}
