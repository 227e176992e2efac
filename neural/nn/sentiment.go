package nn

import (
	"golang.org/x/exp/rand"

	"github.com/golangast/nlpnet/internal/nerror"
)

// Polarity signs used by SentimentModel.
const (
	Negative = -1
	Neutral  = 0
	Positive = 1
)

const (
	contextScore  = 0
	polarityScore = 1
)

// SentimentModel learns embeddings carrying both context and polarity
// information. Its network has two outputs: a language model score and a
// polarity score. The loss of a window is
//
//	alpha*max(0, 1 - f0(x) + f0(x')) + (1-alpha)*max(0, 1 - d*f1(x) + d*f1(x'))
//
// where x' is the corrupted window and d the polarity sign of the tweet.
// Neutral tweets only train the language model part.
type SentimentModel struct {
	*Network
	Alpha float64
	rng   *rand.Rand
}

// NewSentimentModel creates a two-output network.
func NewSentimentModel(rng *rand.Rand, tables []*FeatureTable, cfg NetworkConfig, alpha float64) (*SentimentModel, error) {
	cfg.NumOutputs = 2
	n, err := NewNetwork(rng, tables, cfg)
	if err != nil {
		return nil, err
	}
	return WrapSentimentModel(n, rng, alpha)
}

// WrapSentimentModel turns a loaded two-output network into a sentiment
// model.
func WrapSentimentModel(n *Network, rng *rand.Rand, alpha float64) (*SentimentModel, error) {
	if n.NumOutputs() != 2 {
		return nil, nerror.NewConfigError("a sentiment model has 2 outputs, network has %d", n.NumOutputs())
	}
	if alpha < 0 || alpha > 1 {
		return nil, nerror.NewConfigError("alpha must be within [0, 1], got %g", alpha)
	}
	if err := checkCorruptible(n); err != nil {
		return nil, err
	}
	return &SentimentModel{Network: n, Alpha: alpha, rng: rng}, nil
}

// TrainTweet performs one update per window of a tweet with the given
// polarity sign. It returns the number of windows with no loss.
func (sm *SentimentModel) TrainTweet(sentence [][]int, polarity int) (int, error) {
	if polarity < Negative || polarity > Positive {
		return 0, nerror.NewConfigError("invalid polarity %d", polarity)
	}
	upd := sm.trainer()
	padded := sm.pad(sentence)
	delta := float64(polarity)
	hits := 0
	for i := range sentence {
		corrupted := corrupt(sm.rng, sm.Network, padded, i)
		truePass, falsePass := sm.newPass(), sm.newPass()
		sm.forward(padded, i, truePass)
		sm.forward(corrupted, i, falsePass)
		if err := checkScores(truePass.scores, falsePass.scores); err != nil {
			return hits, err
		}
		gTrue := make([]float64, 2)
		gFalse := make([]float64, 2)
		violated := false
		if HingeLoss(truePass.scores[contextScore], falsePass.scores[contextScore]) > 0 {
			gTrue[contextScore] = -sm.Alpha
			gFalse[contextScore] = sm.Alpha
			violated = true
		}
		if polarity != Neutral &&
			HingeLoss(delta*truePass.scores[polarityScore], delta*falsePass.scores[polarityScore]) > 0 {
			gTrue[polarityScore] = -(1 - sm.Alpha) * delta
			gFalse[polarityScore] = (1 - sm.Alpha) * delta
			violated = true
		}
		if !violated {
			hits++
			continue
		}
		sm.backward(padded, i, truePass, gTrue)
		sm.backward(corrupted, i, falsePass, gFalse)
		if err := upd.step(); err != nil {
			return hits, err
		}
	}
	return hits, nil
}

// Polarity returns the polarity score of the window centred on every token.
func (sm *SentimentModel) Polarity(sentence [][]int) []float64 {
	scores := sm.Scores(sentence)
	ans := make([]float64, len(scores))
	for i, s := range scores {
		ans[i] = s[polarityScore]
	}
	return ans
}
